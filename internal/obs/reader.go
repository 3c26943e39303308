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

// Package obs reads the line-oriented, fixed-column surface pressure
// observation stream PressureSolver draws on (spec §4.5, §6).
package obs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/vortrac/vortrac/internal/pressure"
)

// ReadStream reads "unix_time lat lon pressure_hPa station_id"
// whitespace-separated lines from r. Wind speed and direction are not
// part of this feed's fixed columns and are left zero; malformed lines
// are skipped.
func ReadStream(r io.Reader) ([]pressure.Observation, error) {
	var out []pressure.Observation
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		unixTime, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			continue
		}
		p, err := strconv.ParseFloat(fields[3], 64)
		if err != nil {
			continue
		}
		out = append(out, pressure.Observation{
			Time:        time.Unix(unixTime, 0).UTC(),
			Lat:         lat,
			Lon:         lon,
			PressureHPa: p,
			Source:      fields[4],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("obs: %v", err)
	}
	return out, nil
}
