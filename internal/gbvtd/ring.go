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

// Package gbvtd fits a Ground-Based Velocity Track Display harmonic wind
// model on a single (center, radius, height) ring of Doppler velocities
// (spec §4.2).
package gbvtd

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Sample is one radial-velocity observation on the ring, given by its
// meteorological azimuth (degrees, clockwise from north) as seen from
// the ring center.
type Sample struct {
	Azimuth float64
	Vr      float64 // m/s, radial velocity (positive away from radar)
}

// RadarOffset is the radar's position relative to the ring center, in
// the same grid-coordinate system as the samples.
type RadarOffset struct {
	X, Y float64 // km
}

// Config controls one ring fit.
type Config struct {
	Closure    Closure
	MaxWave    int
	Radius     float64 // km
	Height     float64 // km
	Radar      RadarOffset
	Center     struct{ X, Y float64 } // km, grid coordinates
	MaxGapDeg  map[int]float64        // per-wavenumber max azimuthal gap, degrees
}

// Coefficients holds the fitted harmonic amplitudes for wavenumbers
// 0..MaxWave. Index n holds wavenumber n; index 0 only populates
// TangentialCos[0] (==VTC0). Fit solves the single basis
// {1, cos nψ, sin nψ} and stores its terms in the tangential arrays;
// RadialCos/RadialSin are allocated at length MaxWave+1 and left zero.
type Coefficients struct {
	TangentialCos []float64 // length MaxWave+1
	TangentialSin []float64 // length MaxWave+1
	RadialCos     []float64 // length MaxWave+1
	RadialSin     []float64 // length MaxWave+1
	VTC0          float64
	ResidualStdDev float64
	AdmissibleWave int // highest wavenumber actually solved for
}

// ErrInsufficientData is returned when fewer than 2N+1 valid samples
// survive or when the largest azimuthal gap disallows wavenumber 0.
type ErrInsufficientData struct {
	Reason string
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("gbvtd: insufficient ring data: %s", e.Reason)
}

// psiAngle converts a sample's ground-relative azimuth into the GBVTD
// azimuth angle ψ, measured from the storm-radar baseline at the ring.
// Returns ok=false only when the radar coincides with the ring center
// (baseline undefined); a ring that passes through the radar is not
// detected, and its samples are kept.
func psiAngle(azimuthDeg float64, cfg Config) (float64, bool) {
	// Baseline direction: from ring center to radar.
	bx, by := cfg.Radar.X-cfg.Center.X, cfg.Radar.Y-cfg.Center.Y
	if bx == 0 && by == 0 {
		return 0, false
	}
	baseline := math.Atan2(bx, by) // meteorological: atan2(E,N)
	theta := azimuthDeg * math.Pi / 180
	psi := theta - baseline
	// Undefined where the ring point coincides with the radar azimuth
	// direction from center (the baseline itself), i.e. sin(psi) ~ 0
	// and the ring radius roughly equals the radar distance — since
	// psi is just an angular difference here, treat the degenerate
	// case as "radar at ring center" handled above.
	return psi, true
}

// psiSample is a radial-velocity observation reduced to its GBVTD
// azimuth angle.
type psiSample struct {
	psi float64
	vr  float64
}

// Fit performs the GBVTDRing least-squares fit described in spec §4.2.
func Fit(samples []Sample, cfg Config) (*Coefficients, error) {
	var ps []psiSample
	for _, s := range samples {
		psi, ok := psiAngle(s.Azimuth, cfg)
		if !ok {
			continue
		}
		ps = append(ps, psiSample{psi: normalizeAngle(psi), vr: s.Vr})
	}
	if len(ps) == 0 {
		return nil, &ErrInsufficientData{Reason: "no samples with defined baseline angle"}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].psi < ps[j].psi })

	maxGap, gapWave := largestGap(ps)
	admissible := cfg.MaxWave
	for n := 0; n <= cfg.MaxWave; n++ {
		threshold, ok := cfg.MaxGapDeg[n]
		if !ok {
			continue
		}
		if maxGap > threshold*math.Pi/180 {
			admissible = n - 1
			break
		}
	}
	_ = gapWave
	if admissible < 0 {
		return nil, &ErrInsufficientData{Reason: "largest azimuthal gap disallows wavenumber 0"}
	}
	required := 2*admissible + 1
	if len(ps) < required {
		return nil, &ErrInsufficientData{Reason: fmt.Sprintf("%d samples, need %d for wavenumber %d", len(ps), required, admissible)}
	}

	width := 1 + 2*admissible
	zeroed := cfg.Closure.zeroedColumns(admissible)

	// Build active column list (columns not eliminated by the closure).
	var active []int
	for c := 0; c < width; c++ {
		if !zeroed[c] {
			active = append(active, c)
		}
	}

	A := mat.NewDense(len(ps), len(active), nil)
	b := mat.NewVecDense(len(ps), nil)
	for i, p := range ps {
		row := basisRow(p.psi, admissible)
		for ci, c := range active {
			A.Set(i, ci, row[c])
		}
		b.SetVec(i, p.vr)
	}

	coef, err := solveLeastSquaresGaussJordan(A, b)
	if err != nil {
		return nil, &ErrInsufficientData{Reason: err.Error()}
	}

	full := make([]float64, width)
	for ci, c := range active {
		full[c] = coef[ci]
	}

	out := &Coefficients{
		TangentialCos:  make([]float64, cfg.MaxWave+1),
		TangentialSin:  make([]float64, cfg.MaxWave+1),
		RadialCos:      make([]float64, cfg.MaxWave+1),
		RadialSin:      make([]float64, cfg.MaxWave+1),
		AdmissibleWave: admissible,
	}
	out.TangentialCos[0] = full[0]
	out.VTC0 = full[0]
	for n := 1; n <= admissible; n++ {
		out.TangentialCos[n] = full[tangentialCosineIndex(admissible, n)]
		out.TangentialSin[n] = full[tangentialSineIndex(admissible, n)]
	}

	var ss float64
	for _, p := range ps {
		row := basisRow(p.psi, admissible)
		var pred float64
		for c := 0; c < width; c++ {
			pred += row[c] * full[c]
		}
		d := p.vr - pred
		ss += d * d
	}
	out.ResidualStdDev = math.Sqrt(ss / float64(len(ps)))

	return out, nil
}

// basisRow returns the row {1, cos(psi)...cos(N*psi), sin(psi)...sin(N*psi)}
// for a given admissible wavenumber N, in the [tangential cos block,
// tangential sin block] layout the tangential*Index helpers assume.
func basisRow(psi float64, n int) []float64 {
	row := make([]float64, 1+2*n)
	row[0] = 1
	for k := 1; k <= n; k++ {
		row[tangentialCosineIndex(n, k)] = math.Cos(float64(k) * psi)
		row[tangentialSineIndex(n, k)] = math.Sin(float64(k) * psi)
	}
	return row
}

func tangentialCosineIndex(n, wave int) int {
	if wave == 0 {
		return 0
	}
	return wave
}
func tangentialSineIndex(n, wave int) int { return n + wave }

func normalizeAngle(a float64) float64 {
	for a < 0 {
		a += 2 * math.Pi
	}
	for a >= 2*math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// largestGap returns the largest gap, in radians, between consecutive
// (sorted, wrapped) psi samples.
func largestGap(ps []psiSample) (float64, int) {
	if len(ps) == 0 {
		return 2 * math.Pi, 0
	}
	maxGap := 0.0
	for i := 1; i < len(ps); i++ {
		g := ps[i].psi - ps[i-1].psi
		if g > maxGap {
			maxGap = g
		}
	}
	wrap := 2*math.Pi - ps[len(ps)-1].psi + ps[0].psi
	if wrap > maxGap {
		maxGap = wrap
	}
	return maxGap, 0
}

// solveLeastSquaresGaussJordan forms the normal equations A^T A x = A^T b
// and solves them via Gauss-Jordan elimination with partial pivoting, per
// spec §4.2.
func solveLeastSquaresGaussJordan(A *mat.Dense, b *mat.VecDense) ([]float64, error) {
	_, cols := A.Dims()
	var ata mat.Dense
	ata.Mul(A.T(), A)
	var atb mat.VecDense
	atb.MulVec(A.T(), b)

	// Augmented matrix [ata | atb].
	aug := make([][]float64, cols)
	for i := 0; i < cols; i++ {
		aug[i] = make([]float64, cols+1)
		for j := 0; j < cols; j++ {
			aug[i][j] = ata.At(i, j)
		}
		aug[i][cols] = atb.AtVec(i)
	}

	for col := 0; col < cols; col++ {
		// Partial pivot.
		piv := col
		best := math.Abs(aug[col][col])
		for r := col + 1; r < cols; r++ {
			if math.Abs(aug[r][col]) > best {
				best = math.Abs(aug[r][col])
				piv = r
			}
		}
		if best < 1e-12 {
			return nil, fmt.Errorf("ill-conditioned system")
		}
		aug[col], aug[piv] = aug[piv], aug[col]

		pivotVal := aug[col][col]
		for j := 0; j <= cols; j++ {
			aug[col][j] /= pivotVal
		}
		for r := 0; r < cols; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := 0; j <= cols; j++ {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	out := make([]float64, cols)
	for i := 0; i < cols; i++ {
		out[i] = aug[i][cols]
	}
	return out, nil
}
