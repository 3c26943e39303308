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

package atcf

import (
	"strings"
	"testing"
	"time"
)

const sampleBestTrack = `AL, 12, 2005082506, 03, BEST,   0, 251N,  800W,  65, 985, HU,  34, NEQ,  120,  90,  80,  60, 1008,  180,  35,  10, 120,   0,    ,   0,   0,    0, KATRINA, D
AL, 12, 2005082506, 03, OFCL,  12, 252N,  801W,  70, 980, HU,  34, NEQ,  130,  90,  80,  60, 1008,  180,  35,  10, 120,   0,    ,   0,   0,    0, KATRINA, D
AL, 12, 2005082512, 03, BEST,   0, 258N,  805W,  70, 978, HU,  34, NEQ,  130, 100,  85,  65, 1008,  180,  35,  10, 120,   0,    ,   0,   0,    0, KATRINA, D
`

func TestReadBestTrackKeepsOnlyBestLines(t *testing.T) {
	fixes, err := ReadBestTrack(strings.NewReader(sampleBestTrack))
	if err != nil {
		t.Fatalf("ReadBestTrack: %v", err)
	}
	if len(fixes) != 2 {
		t.Fatalf("len(fixes) = %d, want 2 (OFCL line excluded)", len(fixes))
	}
}

func TestReadBestTrackParsesCoordinatesAndIntensity(t *testing.T) {
	fixes, err := ReadBestTrack(strings.NewReader(sampleBestTrack))
	if err != nil {
		t.Fatalf("ReadBestTrack: %v", err)
	}
	f := fixes[0]
	if f.Lat != 25.1 {
		t.Errorf("Lat = %v, want 25.1", f.Lat)
	}
	if f.Lon != -80.0 {
		t.Errorf("Lon = %v, want -80.0", f.Lon)
	}
	if f.VMaxKt != 65 {
		t.Errorf("VMaxKt = %v, want 65", f.VMaxKt)
	}
	if f.MSLPHPa != 985 {
		t.Errorf("MSLPHPa = %v, want 985", f.MSLPHPa)
	}
	want := time.Date(2005, 8, 25, 6, 0, 0, 0, time.UTC)
	if !f.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", f.Time, want)
	}
}

func TestParseLatLonHemispheres(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"251N", 25.1},
		{"251S", -25.1},
		{"800W", -80.0},
		{"800E", 80.0},
	}
	for _, c := range cases {
		got, err := parseLatLon(c.in)
		if err != nil {
			t.Fatalf("parseLatLon(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseLatLon(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseLatLonUnknownHemisphere(t *testing.T) {
	if _, err := parseLatLon("251X"); err == nil {
		t.Error("parseLatLon with an unknown hemisphere letter: want error, got nil")
	}
}

func TestNearestBeforePicksLatestFixAtOrBeforeT(t *testing.T) {
	fixes, err := ReadBestTrack(strings.NewReader(sampleBestTrack))
	if err != nil {
		t.Fatalf("ReadBestTrack: %v", err)
	}
	query := time.Date(2005, 8, 25, 18, 0, 0, 0, time.UTC)
	fix, ok := NearestBefore(fixes, query)
	if !ok {
		t.Fatal("NearestBefore: ok = false, want true")
	}
	want := time.Date(2005, 8, 25, 12, 0, 0, 0, time.UTC)
	if !fix.Time.Equal(want) {
		t.Errorf("NearestBefore picked %v, want %v", fix.Time, want)
	}
}

func TestNearestBeforeNoEarlierFix(t *testing.T) {
	fixes, err := ReadBestTrack(strings.NewReader(sampleBestTrack))
	if err != nil {
		t.Fatalf("ReadBestTrack: %v", err)
	}
	query := time.Date(2005, 8, 24, 0, 0, 0, 0, time.UTC)
	if _, ok := NearestBefore(fixes, query); ok {
		t.Error("NearestBefore with a query before every fix: ok = true, want false")
	}
}
