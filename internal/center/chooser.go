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

// Package center selects one representative center and RMW across the
// (height, radius) lattice and over time (spec §4.4).
package center

import (
	"math"
	"sort"

	"github.com/vortrac/vortrac/internal/simplex"
	"github.com/vortrac/vortrac/internal/vortracerr"
)

// Weights are the tuning weights in the score function.
type Weights struct {
	WStd, WCount, WVT, WPeak, WPersistence float64
	LowerFitLevel, UpperFitLevel           float64 // km
	ReferenceAltitude                      float64 // km, RMW reporting altitude
	BottomLevel                            float64 // km, the lattice's first level (Level index 0)
}

// Track is the best-guess track used for the continuity term: a point
// per level, in grid coordinates (km).
type Track map[int][2]float64

// Chosen is the ring selected for one level.
type Chosen struct {
	Level, Ring int
	X, Y, VT    float64
	StdDevVertex float64
	Score        float64
}

// Result is CenterChooser's output for one volume.
type Result struct {
	Chosen      []Chosen          // one entry per level that had a viable ring
	CenterX, CenterY float64       // mean of chosen centers over [LowerFitLevel, UpperFitLevel]
	RMW              float64       // chosen ring's radius at ReferenceAltitude
	Absent           bool
}

// byLevelRing indexes the current volume's simplex records by (level, ring).
func byLevelRing(records []simplex.Record) map[int]map[int]simplex.Record {
	out := map[int]map[int]simplex.Record{}
	for _, r := range records {
		if out[r.Level] == nil {
			out[r.Level] = map[int]simplex.Record{}
		}
		out[r.Level][r.Ring] = r
	}
	return out
}

// Choose implements spec §4.4: for each level, score every ring and pick
// the best; the volume's center is the mean of chosen centers over the
// fit-altitude band, and RMW is read off the chosen ring's radius at
// ReferenceAltitude.
//
// prevChosen is the previous volume's chosen ring per level (nil for the
// first volume); track is the best-guess storm track (from ATCF or
// extrapolation), keyed by level, used for the persistence/continuity
// term.
func Choose(records []simplex.Record, w Weights, ringWidth, innerRadius float64, prevChosen map[int]Chosen, track Track) (Result, error) {
	byLevel := byLevelRing(records)

	maxStd, maxVT := maxima(records)

	var chosen []Chosen
	for level, rings := range byLevel {
		best, ok := bestRing(level, rings, w, maxStd, maxVT, ringWidth, innerRadius, prevChosen, track)
		if ok {
			chosen = append(chosen, best)
		}
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].Level < chosen[j].Level })

	if len(chosen) == 0 {
		return Result{Absent: true}, &vortracerr.CenterAbsent{}
	}

	var sx, sy float64
	var n int
	var rmw float64
	var rmwSet bool
	for _, c := range chosen {
		levelHeight := float64(c.Level) + w.BottomLevel
		if levelHeight >= w.LowerFitLevel && levelHeight <= w.UpperFitLevel {
			sx += c.X
			sy += c.Y
			n++
		}
		if !rmwSet && nearly(levelHeight, w.ReferenceAltitude) {
			rmw = innerRadius + float64(c.Ring)*ringWidth
			rmwSet = true
		}
	}
	if n == 0 {
		// Fall back to all chosen levels if none fall in the fit band.
		for _, c := range chosen {
			sx += c.X
			sy += c.Y
		}
		n = len(chosen)
	}
	if !rmwSet {
		rmw = innerRadius + float64(chosen[len(chosen)/2].Ring)*ringWidth
	}

	return Result{
		Chosen:  chosen,
		CenterX: sx / float64(n),
		CenterY: sy / float64(n),
		RMW:     rmw,
	}, nil
}

func nearly(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 0.5
}

func maxima(records []simplex.Record) (maxStd, maxVT float64) {
	for _, r := range records {
		if r.Count == 0 {
			continue
		}
		if r.StdDevVertex() > maxStd {
			maxStd = r.StdDevVertex()
		}
		if r.MeanVT > maxVT {
			maxVT = r.MeanVT
		}
	}
	if maxStd == 0 {
		maxStd = 1
	}
	if maxVT == 0 {
		maxVT = 1
	}
	return
}

func bestRing(level int, rings map[int]simplex.Record, w Weights, maxStd, maxVT, ringWidth, innerRadius float64, prevChosen map[int]Chosen, track Track) (Chosen, bool) {
	var best Chosen
	found := false
	var bestScore = -1.0

	// Sort ring indices for deterministic peak-scoring and tie-breaking.
	var ringIdx []int
	for idx := range rings {
		ringIdx = append(ringIdx, idx)
	}
	sort.Ints(ringIdx)

	for _, idx := range ringIdx {
		rec := rings[idx]
		if rec.Count == 0 {
			continue
		}
		score := scoreRing(level, idx, rec, w, maxStd, maxVT, ringWidth, innerRadius, ringIdx, rings, prevChosen, track)
		if !found || score > bestScore || (score == bestScore && rec.StdDevVertex() < best.StdDevVertex) {
			best = Chosen{Level: level, Ring: idx, X: rec.MeanX, Y: rec.MeanY, VT: rec.MeanVT, StdDevVertex: rec.StdDevVertex(), Score: score}
			bestScore = score
			found = true
		}
	}
	return best, found
}

func scoreRing(level, ring int, rec simplex.Record, w Weights, maxStd, maxVT, ringWidth, innerRadius float64, ringIdx []int, rings map[int]simplex.Record, prevChosen map[int]Chosen, track Track) float64 {
	stdTerm := w.WStd * (1 - rec.StdDevVertex()/maxStd)
	countTerm := w.WCount * (float64(rec.Count) / float64(maxCount(rings)))
	vtTerm := w.WVT * (rec.MeanVT / maxVT)
	peakTerm := w.WPeak * peakScore(ring, ringIdx, rings)
	persistTerm := w.WPersistence * continuity(level, rec.MeanX, rec.MeanY, prevChosen, track)
	return stdTerm + countTerm + vtTerm + peakTerm + persistTerm
}

func maxCount(rings map[int]simplex.Record) int {
	m := 1
	for _, r := range rings {
		if r.Count > m {
			m = r.Count
		}
	}
	return m
}

// peakScore rewards rings where VT(ring) is a local maximum in radius.
func peakScore(ring int, ringIdx []int, rings map[int]simplex.Record) float64 {
	vt := rings[ring].MeanVT
	higherNeighbor := false
	for _, idx := range ringIdx {
		if idx == ring-1 || idx == ring+1 {
			if rings[idx].Count > 0 && rings[idx].MeanVT > vt {
				higherNeighbor = true
			}
		}
	}
	if higherNeighbor {
		return 0
	}
	return 1
}

// continuity scores agreement with the previous volume's chosen center
// at this level and with the best-guess track.
func continuity(level int, x, y float64, prevChosen map[int]Chosen, track Track) float64 {
	score := 0.0
	n := 0.0
	if prevChosen != nil {
		if p, ok := prevChosen[level]; ok {
			score += proximityScore(x, y, p.X, p.Y)
			n++
		}
	}
	if track != nil {
		if t, ok := track[level]; ok {
			score += proximityScore(x, y, t[0], t[1])
			n++
		}
	}
	if n == 0 {
		return 0.5
	}
	return score / n
}

// proximityScore maps a distance (km) to a [0,1] score, decaying over a
// 5 km continuity radius.
func proximityScore(x, y, px, py float64) float64 {
	const continuityRadiusKM = 5.0
	dx, dy := x-px, y-py
	d := math.Sqrt(dx*dx + dy*dy)
	if d >= continuityRadiusKM {
		return 0
	}
	return 1 - d/continuityRadiusKM
}
