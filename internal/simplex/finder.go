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

package simplex

import (
	"math"
	"runtime"
	"sync"

	"github.com/GaryBoone/GoStats/stats"

	"github.com/vortrac/vortrac/internal/vortracerr"
	"github.com/vortrac/vortrac/internal/vortraclog"
)

// Config controls a full (height x radius) lattice search.
type Config struct {
	BottomLevel, TopLevel     float64 // km, inclusive, step 1 km
	InnerRadius, OuterRadius  float64 // km, inclusive, step RingWidth
	RingWidth                 float64 // km
	BoxDiameter               float64 // km
	NumPoints                 int     // P, typically 25 (must be a perfect square)
	RadiusOfInfluence         float64 // km
	ConvergenceTol            float64
	MaxIterations             int
}

// Point mirrors spec.md's SimplexPoint: the outcome of one seed.
type Point struct {
	X, Y, VT float64
	Status   Status
}

// Record mirrors spec.md's SimplexRecord for a single (level, ring).
type Record struct {
	Level, Ring int
	MeanX, MeanY, MeanVT float64
	Count                int
	StdDevX, StdDevY, StdDevVT float64
	Points               []Point
	Seeds                [][2]float64
}

// StdDevVertex returns the combined (x,y) position uncertainty CenterChooser
// scores against, per spec §4.4's stdDevVertex term.
func (r Record) StdDevVertex() float64 {
	return math.Sqrt(r.StdDevX*r.StdDevX + r.StdDevY*r.StdDevY)
}

// NullRecord is the sentinel record stored when the point cloud is empty
// at any stage, per spec §4.3 step 6.
func NullRecord(level, ring int) Record {
	return Record{
		Level: level, Ring: ring,
		MeanX: -999, MeanY: -999, MeanVT: -999,
		StdDevX: 999, StdDevY: 999, StdDevVT: 999,
	}
}

// LevelIndex and RingIndex compute the spec's defined indices.
func LevelIndex(height, firstLevel float64) int { return int(math.Round(height - firstLevel)) }
func RingIndex(radius, firstRing, ringWidth float64) int {
	return int(math.Round((radius - firstRing) / ringWidth))
}

// RingObjective builds the GBVTDRing-backed Objective and OutOfBounds
// predicates for one (radius, height); the analysis driver supplies this
// per ring since it alone knows how to invoke the GriddedField and
// GBVTDRing fit.
type RingObjective func(radius, height float64) (Objective, OutOfBounds)

// Find runs the full lattice search described in spec §4.3, returning one
// Record per (level, ring). abort is polled at the per-(level,ring) and
// per-seed boundaries described in spec §5; when it returns true, Find
// stops and returns the records collected so far with ok=false. log may
// be nil, in which case a seed that exhausts MaxIterations is still
// classified as MaxIterReached but nothing is logged.
func Find(cfg Config, guessCenter func(height float64) (x, y float64), makeObjective RingObjective, abort func() bool, log *vortraclog.Logger) (records []Record, ok bool) {
	for h := cfg.BottomLevel; h <= cfg.TopLevel+1e-9; h += 1.0 {
		if abort != nil && abort() {
			return records, false
		}
		level := LevelIndex(h, cfg.BottomLevel)
		gx, gy := guessCenter(h)
		for r := cfg.InnerRadius; r <= cfg.OuterRadius+1e-9; r += cfg.RingWidth {
			if abort != nil && abort() {
				return records, false
			}
			ring := RingIndex(r, cfg.InnerRadius, cfg.RingWidth)
			obj, oob := makeObjective(r, h)
			rec := findOneRing(cfg, level, ring, gx, gy, obj, oob, abort, log)
			records = append(records, rec)
		}
	}
	return records, true
}

// findOneRing implements spec §4.3 steps 1-6 for a single (level, ring).
func findOneRing(cfg Config, level, ring int, gx, gy float64, obj Objective, oob OutOfBounds, abort func() bool, log *vortraclog.Logger) Record {
	seeds := seedGrid(gx, gy, cfg.BoxDiameter, cfg.NumPoints)

	results := make([]Result, len(seeds))
	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	sem := make(chan struct{}, nprocs)
	for i, s := range seeds {
		if abort != nil && abort() {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sx, sy float64) {
			defer wg.Done()
			defer func() { <-sem }()
			init := initialSimplex(sx, sy, cfg.RadiusOfInfluence)
			results[i] = Run(init, obj, oob, cfg.ConvergenceTol, cfg.MaxIterations)
		}(i, s[0], s[1])
	}
	wg.Wait()

	points := make([]Point, len(results))
	var cloud []Result
	for i, res := range results {
		points[i] = Point{X: res.X, Y: res.Y, VT: res.VT, Status: res.Status}
		if res.Status == MaxIterReached && log != nil {
			divergence := &vortracerr.SimplexDivergence{Level: level, Ring: ring}
			log.Warnf("simplex", "%v", divergence)
		}
		if res.Status == Converged && res.VT > 0 && res.VT < 100 {
			cloud = append(cloud, res)
		}
	}

	rec := NullRecord(level, ring)
	rec.Points = points
	rec.Seeds = seeds
	if len(cloud) == 0 {
		return rec
	}

	meanX, meanY, _, sdX, sdY, _ := cloudStats(cloud)
	var trimmed []Result
	for _, c := range cloud {
		if math.Abs(c.X-meanX) <= sdX && math.Abs(c.Y-meanY) <= sdY {
			trimmed = append(trimmed, c)
		}
	}
	if len(trimmed) == 0 {
		trimmed = cloud
	}

	mx, my, mv, sx, sy, sv := cloudStats(trimmed)
	rec.MeanX, rec.MeanY, rec.MeanVT = mx, my, mv
	rec.StdDevX, rec.StdDevY, rec.StdDevVT = sx, sy, sv
	rec.Count = len(trimmed)
	return rec
}

func cloudStats(cloud []Result) (meanX, meanY, meanVT, sdX, sdY, sdVT float64) {
	var sx, sy, sv stats.Stats
	for _, c := range cloud {
		sx.Update(c.X)
		sy.Update(c.Y)
		sv.Update(c.VT)
	}
	meanX, meanY, meanVT = sx.Mean(), sy.Mean(), sv.Mean()
	if len(cloud) > 1 {
		sdX, sdY, sdVT = sx.SampleStandardDeviation(), sy.SampleStandardDeviation(), sv.SampleStandardDeviation()
	}
	return
}

// seedGrid places a sqrt(P) x sqrt(P) square of initial centers on a box
// of side boxDiameter centered on (gx,gy), per spec §4.3 step 1.
func seedGrid(gx, gy, boxDiameter float64, p int) [][2]float64 {
	side := int(math.Round(math.Sqrt(float64(p))))
	if side < 1 {
		side = 1
	}
	out := make([][2]float64, 0, side*side)
	if side == 1 {
		return [][2]float64{{gx, gy}}
	}
	step := boxDiameter / float64(side-1)
	start := -boxDiameter / 2
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			out = append(out, [2]float64{gx + start + float64(i)*step, gy + start + float64(j)*step})
		}
	}
	return out
}

// initialSimplex forms a 3-vertex simplex equidistant from (sx,sy) at
// radiusOfInfluence, placed at angles 90, 210, 330 degrees, per spec
// §4.3 step 2.
func initialSimplex(sx, sy, radiusOfInfluence float64) [3][2]float64 {
	angles := [3]float64{90, 210, 330}
	var out [3][2]float64
	for i, a := range angles {
		rad := a * math.Pi / 180
		out[i] = [2]float64{sx + radiusOfInfluence*math.Sin(rad), sy + radiusOfInfluence*math.Cos(rad)}
	}
	return out
}
