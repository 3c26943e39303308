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

// Package gridder maps a radar volume onto a Cartesian CAPPI using
// two-pass Barnes interpolation (spec §4.1).
package gridder

import (
	"math"
	"runtime"
	"sync"

	"github.com/vortrac/vortrac/internal/griddedfield"
	"github.com/vortrac/vortrac/internal/radarvolume"
	"github.com/vortrac/vortrac/internal/vortracerr"
	"github.com/vortrac/vortrac/internal/vortraclog"
)

// earthRadiusKM is the 4/3-earth beam-height model's effective radius R.
const earthRadiusKM = 6371.0

// Config describes the target CAPPI geometry, in radar-centered grid
// coordinates: ray endpoints are already computed relative to the radar
// by gatherSamples, so the grid needs no separate center lat/lon of its
// own (AnalysisDriver converts the final chosen center back to lat/lon
// once, after the search, via its own radar-relative transform).
type Config struct {
	IDim, JDim, KDim int
	ISp, JSp, KSp    float64 // km
	Xmin, Ymin, Zmin float64 // km
}

type sample struct {
	x, y, z float64
	refl    float64
	hasRefl bool
	vel     float64
	width   float64
	hasVel  bool
}

// Grid runs the two-pass Barnes interpolation of vol onto a new
// griddedfield.Field built from cfg. log may be nil; when given, a
// region that ends up with no valid contributing samples anywhere in
// the velocity plane is reported as a GridderWarning (spec §4.1), since
// that plane is what the simplex search and GBVTD fits depend on.
func Grid(vol *radarvolume.Volume, cfg Config, log *vortraclog.Logger) *griddedfield.Field {
	field := griddedfield.New(cfg.IDim, cfg.JDim, cfg.KDim, cfg.ISp, cfg.JSp, cfg.KSp, cfg.Xmin, cfg.Ymin, cfg.Zmin)

	samples := gatherSamples(vol, cfg)

	kappaX := barnesKappa(cfg.ISp)
	kappaY := barnesKappa(cfg.JSp)
	kappaZ := barnesKappa(cfg.KSp)

	pass1Refl := barnesPass(field, samples, kappaX, kappaY, kappaZ, fieldRefl)
	pass1Vel := barnesPass(field, samples, kappaX, kappaY, kappaZ, fieldVel)
	pass1Width := barnesPass(field, samples, kappaX, kappaY, kappaZ, fieldWidth)

	writePlane(field, griddedfield.Reflectivity, pass1Refl)
	writePlane(field, griddedfield.Velocity, pass1Vel)
	writePlane(field, griddedfield.SpectralWidth, pass1Width)

	const sigma = 0.3
	residualCorrect(field, griddedfield.Reflectivity, samples, pass1Refl, kappaX*sigma, kappaY*sigma, kappaZ*sigma, fieldRefl)
	residualCorrect(field, griddedfield.Velocity, samples, pass1Vel, kappaX, kappaY, kappaZ, fieldVel)
	residualCorrect(field, griddedfield.SpectralWidth, samples, pass1Width, kappaX, kappaY, kappaZ, fieldWidth)

	if log != nil && allMissing(pass1Vel) {
		warning := &vortracerr.GridderWarning{Detail: "no valid velocity samples contributed to any grid node"}
		log.Warnf("gridder", "%v", warning)
	}

	return field
}

// allMissing reports whether every node in a Barnes pass-1 plane ended
// up with no contributing samples.
func allMissing(plane []float64) bool {
	for _, v := range plane {
		if v != griddedfield.Missing {
			return false
		}
	}
	return true
}

// barnesKappa computes κ for one axis, per spec §4.1: κ = 5.052*(4Δ/π)².
func barnesKappa(spacing float64) float64 {
	return 5.052 * math.Pow(4*spacing/math.Pi, 2)
}

// gatherSamples converts every valid gate in every ray to Cartesian grid
// coordinates via the 4/3-earth beam-height model, discarding samples
// outside the (padded) grid bounds.
func gatherSamples(vol *radarvolume.Volume, cfg Config) []sample {
	padX, padY, padZ := cfg.ISp, cfg.JSp, cfg.KSp
	xmax := cfg.Xmin + cfg.ISp*float64(cfg.IDim)
	ymax := cfg.Ymin + cfg.JSp*float64(cfg.JDim)
	zmax := cfg.Zmin + cfg.KSp*float64(cfg.KDim)

	var out []sample
	const fourThirdsR = 4.0 / 3.0 * earthRadiusKM
	for ri := range vol.Rays {
		r := &vol.Rays[ri]
		elRad := r.Elevation * math.Pi / 180
		azRad := r.Azimuth * math.Pi / 180
		for g := 0; g < r.NumGates(); g++ {
			refS := r.RefAt(g)
			velS := r.VelAt(g)
			widS := r.WidthAt(g)
			if !refS.Ok() && !velS.Ok() {
				continue
			}
			rangeKM := r.RangeOfGate(g) / 1000.0
			z := math.Sqrt(rangeKM*rangeKM+fourThirdsR*fourThirdsR+2*rangeKM*fourThirdsR*math.Sin(elRad)) - fourThirdsR
			groundRange := rangeKM * math.Cos(elRad)
			x := groundRange * math.Sin(azRad)
			y := groundRange * math.Cos(azRad)

			if x < cfg.Xmin-padX || x > xmax+padX {
				continue
			}
			if y < cfg.Ymin-padY || y > ymax+padY {
				continue
			}
			if z < cfg.Zmin-padZ || z > zmax+padZ {
				continue
			}
			s := sample{x: x, y: y, z: z}
			if refS.Ok() {
				s.refl, s.hasRefl = refS.Value(), true
			}
			if velS.Ok() {
				s.vel, s.hasVel = velS.Value(), true
				if widS.Ok() {
					s.width = widS.Value()
				}
			}
			out = append(out, s)
		}
	}
	return out
}

// fieldSelector extracts the (value, present) pair for one of the three
// field planes from a sample.
type fieldSelector func(sample) (float64, bool)

func fieldRefl(s sample) (float64, bool)  { return s.refl, s.hasRefl }
func fieldVel(s sample) (float64, bool)   { return s.vel, s.hasVel }
func fieldWidth(s sample) (float64, bool) { return s.width, s.hasVel }

// barnesPass runs Barnes pass 1 (Gaussian-weighted mean) over field's
// nodes for the plane sel selects. It returns a flat buffer shaped like
// field's planes so the caller can both store it and use it in residual
// correction.
func barnesPass(field *griddedfield.Field, samples []sample, kx, ky, kz float64, sel fieldSelector) []float64 {
	n := field.IDim * field.JDim * field.KDim
	out := make([]float64, n)
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := 0; p < nprocs; p++ {
		go func(p int) {
			defer wg.Done()
			for idx := p; idx < n; idx += nprocs {
				k := idx / (field.IDim * field.JDim)
				rem := idx % (field.IDim * field.JDim)
				j := rem / field.IDim
				i := rem % field.IDim
				x, y, z := field.IJKToXYZ(float64(i), float64(j), float64(k))
				out[idx] = barnesWeightedMean(x, y, z, samples, kx, ky, kz, sel)
			}
		}(p)
	}
	wg.Wait()
	return out
}

func barnesWeightedMean(x, y, z float64, samples []sample, kx, ky, kz float64, sel fieldSelector) float64 {
	maxDx := math.Sqrt(20 * kx)
	maxDy := math.Sqrt(20 * ky)
	maxDz := math.Sqrt(20 * kz)
	var wsum, vsum float64
	for _, s := range samples {
		v, ok := sel(s)
		if !ok {
			continue
		}
		dx, dy, dz := s.x-x, s.y-y, s.z-z
		if math.Abs(dx) > maxDx || math.Abs(dy) > maxDy || math.Abs(dz) > maxDz {
			continue
		}
		w := math.Exp(-dx*dx/kx - dy*dy/ky - dz*dz/kz)
		wsum += w
		vsum += w * v
	}
	if wsum == 0 {
		return griddedfield.Missing
	}
	return vsum / wsum
}

func writePlane(field *griddedfield.Field, name griddedfield.Name, flat []float64) {
	idx := 0
	for k := 0; k < field.KDim; k++ {
		for j := 0; j < field.JDim; j++ {
			for i := 0; i < field.IDim; i++ {
				field.Set(name, i, j, k, flat[idx])
				idx++
			}
		}
	}
}

// residualCorrect runs Barnes pass 2: for every sample, subtract the
// trilinear interpolation of the pass-1 grid at the sample's location
// and accumulate the weighted-mean residual back onto the grid. Nodes
// with no pass-1 value are skipped, per the edge policy.
func residualCorrect(field *griddedfield.Field, name griddedfield.Name, samples []sample, pass1 []float64, kx, ky, kz float64, sel fieldSelector) {
	maxDx := math.Sqrt(20 * kx)
	maxDy := math.Sqrt(20 * ky)
	maxDz := math.Sqrt(20 * kz)

	n := field.IDim * field.JDim * field.KDim
	residual := make([]float64, n)
	weight := make([]float64, n)

	for _, s := range samples {
		v, ok := sel(s)
		if !ok {
			continue
		}
		i, j, k := field.XYZToIJK(s.x, s.y, s.z)
		interp := field.Trilinear(name, i, j, k)
		if interp == griddedfield.Missing {
			continue
		}
		res := v - interp

		idx0 := int(math.Floor(i))
		jdx0 := int(math.Floor(j))
		kdx0 := int(math.Floor(k))
		for di := 0; di <= 1; di++ {
			ii := idx0 + di
			if ii < 0 || ii >= field.IDim {
				continue
			}
			for dj := 0; dj <= 1; dj++ {
				jj := jdx0 + dj
				if jj < 0 || jj >= field.JDim {
					continue
				}
				for dk := 0; dk <= 1; dk++ {
					kk := kdx0 + dk
					if kk < 0 || kk >= field.KDim {
						continue
					}
					x, y, z := field.IJKToXYZ(float64(ii), float64(jj), float64(kk))
					dx, dy, dz := s.x-x, s.y-y, s.z-z
					if math.Abs(dx) > maxDx || math.Abs(dy) > maxDy || math.Abs(dz) > maxDz {
						continue
					}
					w := math.Exp(-dx*dx/kx - dy*dy/ky - dz*dz/kz)
					idx := (kk*field.JDim+jj)*field.IDim + ii
					residual[idx] += w * res
					weight[idx] += w
				}
			}
		}
	}

	idx := 0
	for k := 0; k < field.KDim; k++ {
		for j := 0; j < field.JDim; j++ {
			for i := 0; i < field.IDim; i++ {
				if pass1[idx] != griddedfield.Missing && weight[idx] > 0 {
					field.Set(name, i, j, k, pass1[idx]+residual[idx]/weight[idx])
				}
				idx++
			}
		}
	}
}
