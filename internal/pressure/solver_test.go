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

package pressure

import (
	"math"
	"testing"
	"time"
)

var obsTime = time.Date(2005, 8, 25, 6, 0, 0, 0, time.UTC)

func TestSolveNoValidRingsReturnsEmptyResult(t *testing.T) {
	profile := []RingVT{{RadiusKM: 40, VT: 0}, {RadiusKM: 20, VT: -1}}
	result := Solve(profile, 25, -80, obsTime, nil, Config{})
	if result.PressureDeficit != nil {
		t.Errorf("PressureDeficit = %v, want nil for an all-invalid profile", *result.PressureDeficit)
	}
}

func TestSolveDeficitAlwaysPositive(t *testing.T) {
	profile := []RingVT{{RadiusKM: 20, VT: 30}, {RadiusKM: 40, VT: 20}, {RadiusKM: 60, VT: 10}}
	result := Solve(profile, 25, -80, obsTime, nil, Config{Rho: 1.1})
	if result.PressureDeficit == nil {
		t.Fatal("PressureDeficit is nil, want a value")
	}
	if *result.PressureDeficit <= 0 {
		t.Errorf("PressureDeficit = %v, want > 0", *result.PressureDeficit)
	}
}

func TestSolveNoObservationOrClimatologyLeavesCentralPressureNil(t *testing.T) {
	profile := []RingVT{{RadiusKM: 20, VT: 30}, {RadiusKM: 40, VT: 10}}
	result := Solve(profile, 25, -80, obsTime, nil, Config{Rho: 1.1})
	if result.CentralPressure != nil {
		t.Errorf("CentralPressure = %v, want nil with no observation and no climatology", *result.CentralPressure)
	}
	if result.PressureDeficit == nil {
		t.Error("PressureDeficit is nil, want a value even without a central pressure")
	}
}

func TestSolveUsesNearestObservationWithinWindow(t *testing.T) {
	profile := []RingVT{{RadiusKM: 40, VT: 30}, {RadiusKM: 20, VT: 10}}
	obs := []Observation{
		{Time: obsTime.Add(-2 * time.Hour), Lat: 25, Lon: -80, PressureHPa: 1010, Source: "too-old"},
		{Time: obsTime.Add(10 * time.Minute), Lat: 25, Lon: -80, PressureHPa: 1005, Source: "nearest"},
		{Time: obsTime.Add(40 * time.Minute), Lat: 25, Lon: -80, PressureHPa: 1000, Source: "farther"},
	}
	cfg := Config{Rho: 1.1, TimeWindow: time.Hour, RadialExtentKM: 50}
	result := Solve(profile, 25, -80, obsTime, obs, cfg)
	if result.CentralPressure == nil {
		t.Fatal("CentralPressure is nil, want a value from the nearest qualifying observation")
	}
	want := 1005.0 - *result.PressureDeficit
	if math.Abs(*result.CentralPressure-want) > 1e-9 {
		t.Errorf("CentralPressure = %v, want %v (nearest-in-time observation minus deficit)", *result.CentralPressure, want)
	}
}

func TestSolveIgnoresObservationOutsideRadialExtent(t *testing.T) {
	profile := []RingVT{{RadiusKM: 40, VT: 30}, {RadiusKM: 20, VT: 10}}
	obs := []Observation{
		{Time: obsTime, Lat: 40, Lon: -80, PressureHPa: 1000, Source: "far-away"},
	}
	cfg := Config{Rho: 1.1, TimeWindow: time.Hour, RadialExtentKM: 50}
	result := Solve(profile, 25, -80, obsTime, obs, cfg)
	if result.CentralPressure != nil {
		t.Errorf("CentralPressure = %v, want nil when the only observation is outside RadialExtentKM", *result.CentralPressure)
	}
}

func TestSolveFallsBackToClimatology(t *testing.T) {
	profile := []RingVT{{RadiusKM: 40, VT: 30}, {RadiusKM: 20, VT: 10}}
	cfg := Config{Rho: 1.1, ClimatologyHPa: 1012}
	result := Solve(profile, 25, -80, obsTime, nil, cfg)
	if result.CentralPressure == nil {
		t.Fatal("CentralPressure is nil, want a value derived from ClimatologyHPa")
	}
	want := 1012.0 - *result.PressureDeficit
	if math.Abs(*result.CentralPressure-want) > 1e-9 {
		t.Errorf("CentralPressure = %v, want %v", *result.CentralPressure, want)
	}
}

func TestSolveDefaultRhoWhenUnset(t *testing.T) {
	profile := []RingVT{{RadiusKM: 40, VT: 30}, {RadiusKM: 20, VT: 10}}
	withDefault := Solve(profile, 25, -80, obsTime, nil, Config{})
	withExplicit := Solve(profile, 25, -80, obsTime, nil, Config{Rho: defaultRho})
	if *withDefault.PressureDeficit != *withExplicit.PressureDeficit {
		t.Errorf("Rho: 0 deficit = %v, want the same as Rho: defaultRho = %v", *withDefault.PressureDeficit, *withExplicit.PressureDeficit)
	}
}

func TestCoriolisSignMatchesHemisphere(t *testing.T) {
	if coriolis(25) <= 0 {
		t.Error("coriolis(25) <= 0, want positive in the northern hemisphere")
	}
	if coriolis(-25) >= 0 {
		t.Error("coriolis(-25) >= 0, want negative in the southern hemisphere")
	}
}

func TestOuterRadiusIsOutermostValidRing(t *testing.T) {
	profile := []RingVT{{RadiusKM: 20, VT: 30}, {RadiusKM: 60, VT: 5}, {RadiusKM: 40, VT: 10}}
	result := Solve(profile, 25, -80, obsTime, nil, Config{Rho: 1.1})
	if result.OuterRadiusKM != 60 {
		t.Errorf("OuterRadiusKM = %v, want 60 (the largest valid ring radius)", result.OuterRadiusKM)
	}
}
