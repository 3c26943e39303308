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

package center

import (
	"math"
	"testing"

	"github.com/vortrac/vortrac/internal/simplex"
)

func defaultWeights() Weights {
	return Weights{
		WStd: 1, WCount: 1, WVT: 1, WPeak: 1, WPersistence: 1,
		LowerFitLevel: 1, UpperFitLevel: 3, ReferenceAltitude: 2, BottomLevel: 0,
	}
}

func TestChooseSelectsHigherVTRing(t *testing.T) {
	records := []simplex.Record{
		{Level: 1, Ring: 0, MeanX: 1, MeanY: 1, MeanVT: 20, Count: 30, StdDevX: 0.3, StdDevY: 0.3},
		{Level: 1, Ring: 1, MeanX: 1.1, MeanY: 0.9, MeanVT: 35, Count: 30, StdDevX: 0.3, StdDevY: 0.3},
	}
	res, err := Choose(records, defaultWeights(), 5, 10, nil, nil)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if len(res.Chosen) != 1 || res.Chosen[0].Ring != 1 {
		t.Fatalf("Chosen = %+v, want ring 1 (higher VT, same dispersion)", res.Chosen)
	}
}

func TestChooseNoViableRingsReturnsAbsent(t *testing.T) {
	records := []simplex.Record{
		simplex.NullRecord(0, 0),
		simplex.NullRecord(0, 1),
	}
	res, err := Choose(records, defaultWeights(), 5, 10, nil, nil)
	if err == nil {
		t.Fatal("Choose over only null records: want error, got nil")
	}
	if !res.Absent {
		t.Error("Result.Absent = false, want true")
	}
}

func TestChoosePersistenceFavorsContinuity(t *testing.T) {
	w := defaultWeights()
	w.WPersistence = 10
	w.WVT, w.WStd, w.WCount, w.WPeak = 0, 0, 0, 0

	records := []simplex.Record{
		{Level: 1, Ring: 0, MeanX: 0, MeanY: 0, MeanVT: 30, Count: 20, StdDevX: 0.2, StdDevY: 0.2},
		{Level: 1, Ring: 1, MeanX: 10, MeanY: 10, MeanVT: 30, Count: 20, StdDevX: 0.2, StdDevY: 0.2},
	}
	prev := map[int]Chosen{1: {Level: 1, Ring: 0, X: 0.2, Y: 0.1}}

	res, err := Choose(records, w, 5, 10, prev, nil)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if res.Chosen[0].Ring != 0 {
		t.Errorf("Chosen ring = %d, want 0 (closest to the previous volume's center)", res.Chosen[0].Ring)
	}
}

func TestChooseCenterIsMeanOverFitBand(t *testing.T) {
	records := []simplex.Record{
		{Level: 1, Ring: 0, MeanX: 2, MeanY: 2, MeanVT: 30, Count: 20, StdDevX: 0.2, StdDevY: 0.2},
		{Level: 2, Ring: 0, MeanX: 4, MeanY: 4, MeanVT: 30, Count: 20, StdDevX: 0.2, StdDevY: 0.2},
		{Level: 5, Ring: 0, MeanX: 100, MeanY: 100, MeanVT: 30, Count: 20, StdDevX: 0.2, StdDevY: 0.2},
	}
	res, err := Choose(records, defaultWeights(), 5, 10, nil, nil)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	// Level 5 (height 5km) falls outside [LowerFitLevel=1, UpperFitLevel=3]
	// and must not pull the mean center toward (100,100).
	if math.Abs(res.CenterX-3) > 1e-9 || math.Abs(res.CenterY-3) > 1e-9 {
		t.Errorf("CenterX,CenterY = (%v,%v), want (3,3) averaging only the in-band levels", res.CenterX, res.CenterY)
	}
}

func TestChooseRMWReadOffReferenceAltitude(t *testing.T) {
	w := defaultWeights()
	w.ReferenceAltitude = 2
	w.BottomLevel = 0
	records := []simplex.Record{
		{Level: 2, Ring: 3, MeanX: 0, MeanY: 0, MeanVT: 30, Count: 20, StdDevX: 0.2, StdDevY: 0.2},
	}
	res, err := Choose(records, w, 5, 10, nil, nil)
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	want := 10 + 3*5.0
	if res.RMW != want {
		t.Errorf("RMW = %v, want %v (innerRadius + ring*ringWidth at the reference altitude)", res.RMW, want)
	}
}
