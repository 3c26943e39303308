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

// Package pressure combines the axisymmetric wind field with in-situ
// surface pressure observations to derive a central-pressure estimate
// (spec §4.5).
package pressure

import (
	"math"
	"sort"
	"time"
)

// earthRotationRate is Ω, rad/s.
const earthRotationRate = 7.2921159e-5

// defaultRho is sea-level air density, kg/m^3, used unless overridden by
// configuration.
const defaultRho = 1.1

// RingVT is one (radius, VTC0) pair from the chosen level's tangential
// wind profile.
type RingVT struct {
	RadiusKM float64
	VT       float64 // m/s
}

// Observation mirrors spec.md's PressureObservation.
type Observation struct {
	Time           time.Time
	Lat, Lon       float64
	PressureHPa    float64
	WindSpeed      float64
	WindDir        float64
	Source         string
}

// Config controls one pressure solve.
type Config struct {
	CenterLat        float64 // degrees
	Rho              float64 // kg/m^3; 0 means use defaultRho
	TimeWindow       time.Duration
	RadialExtentKM   float64
	ClimatologyHPa   float64 // used when no observation is available at r_out
}

// Result is PressureSolver's output. PressureDeficit and CentralPressure
// are both nil when there is no outer valid radius (§4.5);
// CentralPressure alone is nil when neither an observation nor a
// climatology value is available.
type Result struct {
	PressureDeficit *float64 // hPa
	CentralPressure *float64 // hPa
	OuterRadiusKM   float64
}

// Solve implements spec §4.5's cyclostrophic/gradient-wind balance
// integration from the outermost valid radius inward, combined with the
// nearest valid observation at that radius (or the climatological
// envelope value if none is available within cfg.TimeWindow /
// cfg.RadialExtentKM of centerLat/centerLon).
func Solve(profile []RingVT, centerLat, centerLon float64, obsTime time.Time, obs []Observation, cfg Config) Result {
	rings := append([]RingVT(nil), profile...)
	sort.Slice(rings, func(i, j int) bool { return rings[i].RadiusKM > rings[j].RadiusKM })

	var valid []RingVT
	for _, r := range rings {
		if r.VT > 0 {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return Result{}
	}

	rho := cfg.Rho
	if rho == 0 {
		rho = defaultRho
	}
	f := coriolis(centerLat)

	rOut := valid[0].RadiusKM

	// Trapezoidal integration of dP/dr = rho*(V^2/r + f*V) from r_out
	// inward to the innermost valid ring.
	deficit := 0.0
	for i := 1; i < len(valid); i++ {
		r0, r1 := valid[i-1].RadiusKM, valid[i].RadiusKM
		v0, v1 := valid[i-1].VT, valid[i].VT
		dpdr0 := rho * (v0*v0/(r0*1000) + f*v0)
		dpdr1 := rho * (v1*v1/(r1*1000) + f*v1)
		drMeters := (r1 - r0) * 1000
		// Integrating inward: dr is negative in r, but the integral is
		// taken from r_out to r, i.e. r1 < r0 here (sorted descending),
		// so drMeters is negative; the trapezoidal contribution keeps
		// the physical sign of decreasing pressure deficit as radius
		// shrinks toward the eye.
		deficit += 0.5 * (dpdr0 + dpdr1) * drMeters
	}
	deficitHPa := deficit / 100.0 // Pa -> hPa
	if deficitHPa < 0 {
		deficitHPa = -deficitHPa
	}

	outerObs := nearestObservation(obs, obsTime, centerLat, centerLon, rOut, cfg)
	var centralHPa float64
	if outerObs != nil {
		centralHPa = outerObs.PressureHPa - deficitHPa
	} else if cfg.ClimatologyHPa > 0 {
		centralHPa = cfg.ClimatologyHPa - deficitHPa
	} else {
		d := deficitHPa
		return Result{PressureDeficit: &d, OuterRadiusKM: rOut}
	}

	d := deficitHPa
	c := centralHPa
	return Result{PressureDeficit: &d, CentralPressure: &c, OuterRadiusKM: rOut}
}

func coriolis(latDeg float64) float64 {
	return 2 * earthRotationRate * math.Sin(latDeg*math.Pi/180)
}

// nearestObservation finds the closest-in-time observation within
// cfg.TimeWindow of obsTime and within cfg.RadialExtentKM of
// (centerLat, centerLon), approximating the r_out ring; returns nil if
// none qualify.
func nearestObservation(obs []Observation, obsTime time.Time, centerLat, centerLon, rOutKM float64, cfg Config) *Observation {
	var best *Observation
	var bestDT time.Duration = -1
	for i := range obs {
		o := &obs[i]
		dt := o.Time.Sub(obsTime)
		if dt < 0 {
			dt = -dt
		}
		if dt > cfg.TimeWindow {
			continue
		}
		dKM := haversineKM(centerLat, centerLon, o.Lat, o.Lon)
		if dKM > cfg.RadialExtentKM {
			continue
		}
		if best == nil || dt < bestDT {
			best, bestDT = o, dt
		}
	}
	return best
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKM = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
