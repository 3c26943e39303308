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

import "math"

// vertex is one point of a 2-D Nelder-Mead simplex plus its objective
// value.
type vertex struct {
	x, y, v float64
}

// Objective scores a candidate center (x,y). It returns ok=false when
// the ring fit underlying it failed; Run then ends that seed with
// status RingFitFailed and ignores the returned value.
type Objective func(x, y float64) (value float64, ok bool)

// OutOfBounds reports whether (x,y) falls outside the CAPPI; a seed
// that steps outside it ends with status OutOfCAPPI.
type OutOfBounds func(x, y float64) bool

// Status is the terminal state of one seed's Nelder-Mead run.
type Status int

// Terminal states, per the per-seed state machine in spec §4.3.
const (
	Converged Status = iota
	MaxIterReached
	OutOfCAPPI
	RingFitFailed
)

// Result is the outcome of maximizing Objective from one initial
// simplex.
type Result struct {
	X, Y, VT float64
	Status   Status
	Evals    int
}

// Run iterates Nelder-Mead to MAXIMIZE obj starting from the three
// vertices in init, per spec §4.3's reflection/expansion/contraction/
// shrink rules.
func Run(init [3][2]float64, obj Objective, oob OutOfBounds, convergenceTol float64, maxIterations int) Result {
	const (
		reflectFactor  = -1.0
		expandFactor   = 2.0
		contractFactor = 0.5
	)

	verts := [3]vertex{}
	for i, p := range init {
		if oob(p[0], p[1]) {
			return Result{X: p[0], Y: p[1], Status: OutOfCAPPI}
		}
		v, ok := obj(p[0], p[1])
		if !ok {
			return Result{X: p[0], Y: p[1], Status: RingFitFailed}
		}
		verts[i] = vertex{p[0], p[1], v}
	}

	evals := 3
	for iter := 0; iter < maxIterations; iter++ {
		lo, mid, hi := order(verts)

		eps := 2 * math.Abs(verts[hi].v-verts[lo].v) / (math.Abs(verts[hi].v) + math.Abs(verts[lo].v) + 1e-10)
		if eps < convergenceTol {
			return Result{X: verts[hi].x, Y: verts[hi].y, VT: verts[hi].v, Status: Converged, Evals: evals}
		}

		cx, cy := centroid(verts, lo)

		reflected, ok, bounded := tryVertex(cx, cy, verts[lo], reflectFactor, obj, oob)
		evals++
		if !bounded {
			return Result{X: reflected.x, Y: reflected.y, Status: OutOfCAPPI, Evals: evals}
		}
		if !ok {
			return Result{X: reflected.x, Y: reflected.y, Status: RingFitFailed, Evals: evals}
		}

		switch {
		case reflected.v > verts[hi].v:
			// Reflection beat the high vertex: try expansion, chained
			// off the reflected vertex per Nelder-Mead's amotry-style
			// update (the reflected point has already replaced the
			// worst vertex by this point conceptually).
			expanded, ok2, bounded2 := tryVertex(cx, cy, reflected, expandFactor, obj, oob)
			evals++
			if !bounded2 {
				verts[lo] = reflected
				continue
			}
			if ok2 && expanded.v > reflected.v {
				verts[lo] = expanded
			} else {
				verts[lo] = reflected
			}
		case reflected.v > verts[mid].v:
			verts[lo] = reflected
		default:
			contracted, ok3, bounded3 := tryVertex(cx, cy, verts[lo], contractFactor, obj, oob)
			evals++
			if bounded3 && ok3 && contracted.v > verts[lo].v {
				verts[lo] = contracted
			} else {
				// Shrink all non-high vertices halfway toward high.
				for i := range verts {
					if i == hi {
						continue
					}
					nx := (verts[i].x + verts[hi].x) / 2
					ny := (verts[i].y + verts[hi].y) / 2
					if oob(nx, ny) {
						return Result{X: nx, Y: ny, Status: OutOfCAPPI, Evals: evals}
					}
					v, ok4 := obj(nx, ny)
					evals++
					if !ok4 {
						return Result{X: nx, Y: ny, Status: RingFitFailed, Evals: evals}
					}
					verts[i] = vertex{nx, ny, v}
				}
				// Shrink counts as the two evaluations made in the loop
				// above.
			}
		}
	}

	_, _, hi := order(verts)
	return Result{X: verts[hi].x, Y: verts[hi].y, VT: verts[hi].v, Status: MaxIterReached, Evals: evals}
}

func order(verts [3]vertex) (lo, mid, hi int) {
	idx := [3]int{0, 1, 2}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && verts[idx[j]].v < verts[idx[j-1]].v; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx[0], idx[1], idx[2]
}

func centroid(verts [3]vertex, exclude int) (float64, float64) {
	var sx, sy float64
	n := 0
	for i, v := range verts {
		if i == exclude {
			continue
		}
		sx += v.x
		sy += v.y
		n++
	}
	return sx / float64(n), sy / float64(n)
}

// tryVertex moves `from` through the centroid (cx,cy) by factor —
// new = centroid + factor*(from - centroid) — evaluating the objective
// at the new point. Reflection passes the worst vertex as `from` with
// factor -1.0; expansion chains off the just-computed reflected vertex
// with factor 2.0; contraction passes the worst vertex again with
// factor 0.5. bounded is false when the candidate point falls outside
// the CAPPI.
func tryVertex(cx, cy float64, from vertex, factor float64, obj Objective, oob OutOfBounds) (vertex, bool, bool) {
	nx := cx + factor*(from.x-cx)
	ny := cy + factor*(from.y-cy)
	if oob(nx, ny) {
		return vertex{x: nx, y: ny}, false, false
	}
	v, ok := obj(nx, ny)
	return vertex{nx, ny, v}, ok, true
}
