/*
Copyright © 2024 the VORTRAC authors.
This file is part of VORTRAC.

VORTRAC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

VORTRAC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with VORTRAC.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package griddedfield implements the regular 3-D Cartesian CAPPI
// (Constant Altitude Plan Position Indicator) field, plus the
// polar-sampling services the GBVTD ring fit and simplex search need
// around a movable reference point.
//
// Each field plane is a flat buffer, not a tree of owned pointer arrays,
// per the design notes: this keeps ownership flat and lets the Gridder's
// Barnes passes run in parallel across nodes without synchronization.
package griddedfield

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// Missing is the sentinel value for unfilled grid cells.
const Missing = -999.0

// Name identifies one of the three field planes a Field carries.
type Name int

// The three fields every CAPPI carries.
const (
	Reflectivity Name = iota
	Velocity
	SpectralWidth
	numFields
)

// Field is a regular 3-D Cartesian scalar field over a CAPPI volume. X
// and Y are horizontal grid axes (km), Z is altitude (km). Dimensions and
// spacings are fixed at construction; the reference point used by polar
// sampling queries is mutable.
type Field struct {
	IDim, JDim, KDim int
	ISp, JSp, KSp    float64 // km
	Xmin, Ymin, Zmin float64 // km, relative to an earth-fixed reference

	planes [numFields]*sparse.DenseArray

	// RefPoint is the movable center used by PolarSample; grid
	// coordinates, km.
	RefPoint geom.Point
}

// New allocates a Field with all three planes filled with Missing.
func New(iDim, jDim, kDim int, iSp, jSp, kSp, xmin, ymin, zmin float64) *Field {
	f := &Field{
		IDim: iDim, JDim: jDim, KDim: kDim,
		ISp: iSp, JSp: jSp, KSp: kSp,
		Xmin: xmin, Ymin: ymin, Zmin: zmin,
	}
	for n := Name(0); n < numFields; n++ {
		d := sparse.ZerosDense(kDim, jDim, iDim)
		for i := range d.Elements {
			d.Elements[i] = Missing
		}
		f.planes[n] = d
	}
	return f
}

// Plane returns the dense array backing the named field, indexed
// [k][j][i].
func (f *Field) Plane(n Name) *sparse.DenseArray { return f.planes[n] }

// Set stores val at grid indices (i,j,k) in the named plane.
func (f *Field) Set(n Name, i, j, k int, val float64) {
	f.planes[n].Set(val, k, j, i)
}

// At returns the value at grid indices (i,j,k) in the named plane, or
// Missing if out of bounds.
func (f *Field) At(n Name, i, j, k int) float64 {
	if i < 0 || i >= f.IDim || j < 0 || j >= f.JDim || k < 0 || k >= f.KDim {
		return Missing
	}
	return f.planes[n].Get(k, j, i)
}

// InBounds reports whether the grid-cell coordinates (i,j,k) fall within
// the field's dimensions, used by the simplex search's out-of-CAPPI
// detection.
func (f *Field) InBounds(i, j, k float64) bool {
	return i >= 0 && i < float64(f.IDim) && j >= 0 && j < float64(f.JDim) && k >= 0 && k < float64(f.KDim)
}

// XYZToIJK converts grid-relative Cartesian coordinates (km) to
// fractional grid-cell coordinates.
func (f *Field) XYZToIJK(x, y, z float64) (i, j, k float64) {
	return (x - f.Xmin) / f.ISp, (y - f.Ymin) / f.JSp, (z - f.Zmin) / f.KSp
}

// IJKToXYZ converts fractional grid-cell coordinates to grid-relative
// Cartesian coordinates (km).
func (f *Field) IJKToXYZ(i, j, k float64) (x, y, z float64) {
	return f.Xmin + i*f.ISp, f.Ymin + j*f.JSp, f.Zmin + k*f.KSp
}

// Trilinear reads the named plane at fractional grid-cell coordinates
// using trilinear interpolation, clamping reads at the boundary to the
// edge cell (the Gridder's pass-2 residual correction edge policy).
func (f *Field) Trilinear(n Name, i, j, k float64) float64 {
	i0 := clampInt(int(math.Floor(i)), 0, f.IDim-1)
	j0 := clampInt(int(math.Floor(j)), 0, f.JDim-1)
	k0 := clampInt(int(math.Floor(k)), 0, f.KDim-1)
	i1 := clampInt(i0+1, 0, f.IDim-1)
	j1 := clampInt(j0+1, 0, f.JDim-1)
	k1 := clampInt(k0+1, 0, f.KDim-1)

	fi := clamp01(i - float64(i0))
	fj := clamp01(j - float64(j0))
	fk := clamp01(k - float64(k0))

	get := func(ii, jj, kk int) (float64, bool) {
		v := f.planes[n].Get(kk, jj, ii)
		return v, v != Missing
	}

	var sum, wsum float64
	for _, c := range [2]int{i0, i1} {
		wi := 1 - fi
		if c == i1 {
			wi = fi
		}
		for _, r := range [2]int{j0, j1} {
			wj := 1 - fj
			if r == j1 {
				wj = fj
			}
			for _, l := range [2]int{k0, k1} {
				wk := 1 - fk
				if l == k1 {
					wk = fk
				}
				if v, ok := get(c, r, l); ok {
					w := wi * wj * wk
					sum += w * v
					wsum += w
				}
			}
		}
	}
	if wsum == 0 {
		return Missing
	}
	return sum / wsum
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PolarSample is one observation sampled around RefPoint.
type PolarSample struct {
	Azimuth float64 // degrees, meteorological
	Value   float64
}

// PolarSample samples the named plane at nSamples equally-spaced
// azimuths around RefPoint at the given radius (km) and height (km),
// using trilinear interpolation at that height (between the CAPPI slices
// bracketing it).
// Samples landing on a Missing cell are omitted. Use this only from
// sequential code (e.g. the final wind-profile fit at the chosen
// center); concurrent seed evaluation must use PolarSampleAt instead,
// since RefPoint is ordinary mutable state and is not safe to write
// from multiple goroutines (spec §5 requires GBVTDRing's inputs — the
// center included — to be passed explicitly so the fit stays a pure,
// thread-safe function).
func (f *Field) PolarSample(n Name, radiusKM, heightKM float64, nSamples int) []PolarSample {
	return f.PolarSampleAt(n, f.RefPoint.X, f.RefPoint.Y, radiusKM, heightKM, nSamples)
}

// PolarSampleAt is PolarSample with an explicit center, safe to call
// concurrently from independent goroutines since it only reads Field
// state.
func (f *Field) PolarSampleAt(n Name, centerX, centerY, radiusKM, heightKM float64, nSamples int) []PolarSample {
	out := make([]PolarSample, 0, nSamples)
	_, _, k := f.XYZToIJK(0, 0, heightKM)
	for s := 0; s < nSamples; s++ {
		az := 360.0 * float64(s) / float64(nSamples)
		dx := radiusKM * math.Sin(az*math.Pi/180)
		dy := radiusKM * math.Cos(az*math.Pi/180)
		i, j, _ := f.XYZToIJK(centerX+dx, centerY+dy, heightKM)
		if !f.InBounds(i, j, k) {
			continue
		}
		v := f.Trilinear(n, i, j, k)
		if v == Missing {
			continue
		}
		out = append(out, PolarSample{Azimuth: az, Value: v})
	}
	return out
}
