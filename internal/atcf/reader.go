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

// Package atcf reads Automated Tropical Cyclone Forecasting best-track
// records, used only to seed the first volume's best-guess center
// (spec §4.6, §9).
package atcf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Fix is one best-track fix: a storm position and intensity at a time.
type Fix struct {
	Time    time.Time
	Lat     float64 // degrees, +N
	Lon     float64 // degrees, +E
	VMaxKt  float64
	MSLPHPa float64
}

// ReadBestTrack reads ATCF BEST-technique fixed-format lines from r,
// skipping lines that aren't tagged BEST (forecast guidance lines) or
// that fail to parse.
func ReadBestTrack(r io.Reader) ([]Fix, error) {
	var fixes []Fix
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		if len(fields) < 10 {
			continue
		}
		if fields[4] != "BEST" {
			continue
		}
		t, err := time.Parse("2006010215", fields[2])
		if err != nil {
			continue
		}
		lat, err := parseLatLon(fields[6])
		if err != nil {
			continue
		}
		lon, err := parseLatLon(fields[7])
		if err != nil {
			continue
		}
		vmax, _ := strconv.ParseFloat(fields[8], 64)
		mslp, _ := strconv.ParseFloat(fields[9], 64)
		fixes = append(fixes, Fix{Time: t.UTC(), Lat: lat, Lon: lon, VMaxKt: vmax, MSLPHPa: mslp})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("atcf: %v", err)
	}
	return fixes, nil
}

// parseLatLon parses ATCF's tenths-of-a-degree, hemisphere-suffixed
// coordinate encoding (e.g. "251N", "800W") into signed degrees.
func parseLatLon(s string) (float64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("atcf: malformed coordinate %q", s)
	}
	hemi := s[len(s)-1]
	digits := s[:len(s)-1]
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("atcf: malformed coordinate %q: %v", s, err)
	}
	v /= 10.0
	switch hemi {
	case 'S', 'W':
		v = -v
	case 'N', 'E':
	default:
		return 0, fmt.Errorf("atcf: unknown hemisphere %q", s)
	}
	return v, nil
}

// NearestBefore returns the latest fix at or before t, and ok=false if
// every fix is after t.
func NearestBefore(fixes []Fix, t time.Time) (Fix, bool) {
	var best Fix
	found := false
	for _, f := range fixes {
		if f.Time.After(t) {
			continue
		}
		if !found || f.Time.After(best.Time) {
			best = f
			found = true
		}
	}
	return best, found
}
