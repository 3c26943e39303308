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

// Package ingest watches a directory for new radar volume files, waits
// for each to stop growing, and feeds a timestamp-ordered queue of
// parsed filenames to the analysis core (spec §6).
package ingest

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Parsed is the radar ID and embedded volume time recovered from a
// filename.
type Parsed struct {
	RadarID string
	Time    time.Time
}

// The four filename conventions the spec requires, tried in order.
var conventions = []*regexp.Regexp{
	// <ID>_<yyyyMMdd>_<hhmmss or hhmm>.nc
	regexp.MustCompile(`^([A-Za-z0-9]+)_(\d{8})_(\d{6}|\d{4})\.nc$`),
	// Level2_<ID>_<yyyyMMdd>_<hhmm>.ar2v
	regexp.MustCompile(`^Level2_([A-Za-z0-9]+)_(\d{8})_(\d{4})\.ar2v$`),
	// <ID>.<yyyyMMdd><hhmmss>
	regexp.MustCompile(`^([A-Za-z0-9]+)\.(\d{8})(\d{6})$`),
	// <ID>_<yyyyMMdd>_<hhmm>
	regexp.MustCompile(`^([A-Za-z0-9]+)_(\d{8})_(\d{4})$`),
}

// ParseFilename recovers the radar ID and volume time from name,
// tolerating all four conventions the spec describes. Unparseable names
// return ok=false; the caller logs and skips them (IngestError).
func ParseFilename(name string) (Parsed, bool) {
	base := filepath.Base(name)
	for _, re := range conventions {
		m := re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		id, date, clock := m[1], m[2], m[3]
		// clock is either "150405" (hhmmss) or "1504" (hhmm); slicing
		// Go's reference clock to match its length gives the right
		// layout for both without a second parse path.
		layout := "20060102" + "150405"[:len(clock)]
		t, err := time.Parse(layout, date+clock)
		if err != nil {
			continue
		}
		return Parsed{RadarID: id, Time: t.UTC()}, true
	}
	return Parsed{}, false
}

func (p Parsed) String() string {
	return fmt.Sprintf("%s@%s", p.RadarID, p.Time.Format(time.RFC3339))
}
