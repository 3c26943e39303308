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

// Package analysis sequences the Gridder, SimplexCenterFinder,
// CenterChooser and PressureSolver stages for one volume and publishes
// the resulting VortexRecord (spec §4.6).
package analysis

import "time"

// WindPoint is one (radius, VTC0) sample of the reported tangential-wind
// profile.
type WindPoint struct {
	RadiusKM float64
	VTC0     float64
}

// VortexRecord is the public, time-indexed output of one volume's
// analysis (spec §3).
type VortexRecord struct {
	Time                time.Time
	CenterLat, CenterLon float64
	RMWKM               float64
	WindProfile         []WindPoint
	CentralPressureHPa  *float64
	PressureDeficitHPa  *float64
	Null                bool
	// Cancelled is true when abort() fired mid-search (spec §5) and this
	// record reflects whatever partial simplex/center result had already
	// been recovered, rather than a completed analysis.
	Cancelled bool
}
