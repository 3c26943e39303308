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

// Package radarvolume holds the immutable representation of one radar
// volume. Reading the original file formats (Level II, dorade, NetCDF) is
// an external radar I/O library's concern; this package only defines the
// shape that I/O layer hands back, plus the one NetCDF convention thin
// enough to load here directly (see NewFromCDF).
package radarvolume

import "time"

// Missing is the sentinel value used throughout VORTRAC for absent
// samples. It is an in-range physical sentinel, not an implementation
// artifact, so arithmetic must never touch it directly; use Sample to
// read gate values.
const Missing = -999.0

// Sample is an optional gate value: it wraps Missing so callers can't
// accidentally do arithmetic on the sentinel.
type Sample struct {
	value float64
	ok    bool
}

// NewSample builds a Sample from a raw gate value, treating Missing as
// absent.
func NewSample(v float64) Sample {
	if v == Missing {
		return Sample{}
	}
	return Sample{value: v, ok: true}
}

// Value and Ok report the sample's value and whether it is present.
func (s Sample) Value() float64 { return s.value }
func (s Sample) Ok() bool       { return s.ok }

// Ray is one radial of gates at a fixed elevation and azimuth.
type Ray struct {
	Elevation   float64 // degrees
	Azimuth     float64 // degrees, meteorological (clockwise from north)
	FirstGate   float64 // range to first gate, m
	GateSpacing float64 // m
	Reflectivity []float64 // dBZ, Missing where absent
	Velocity     []float64 // m/s radial velocity, Missing where absent
	SpectralWidth []float64 // m/s, Missing where absent
}

// NumGates returns the number of gates on the ray.
func (r *Ray) NumGates() int { return len(r.Velocity) }

// RangeOfGate returns the slant range, in meters, to gate i.
func (r *Ray) RangeOfGate(i int) float64 {
	return r.FirstGate + float64(i)*r.GateSpacing
}

// RefAt, VelAt and WidthAt return the gate value at index i as an
// Optional Sample.
func (r *Ray) RefAt(i int) Sample   { return NewSample(r.Reflectivity[i]) }
func (r *Ray) VelAt(i int) Sample   { return NewSample(r.Velocity[i]) }
func (r *Ray) WidthAt(i int) Sample { return NewSample(r.SpectralWidth[i]) }

// Sweep is one elevation scan: a contiguous run of rays in the volume's
// ray list, plus the sweep-level metadata shared by all of them.
type Sweep struct {
	Elevation float64
	Nyquist   float64 // m/s
	VCP       int
	FirstRay  int // inclusive index into Volume.Rays
	LastRay   int // exclusive index into Volume.Rays
}

// Rays returns the sweep's rays from the volume's ray list.
func (s Sweep) Rays(all []Ray) []Ray { return all[s.FirstRay:s.LastRay] }

// Volume is the immutable representation of one radar volume: a radar
// position, a UTC timestamp and an ordered list of sweeps. Sweeps are
// ordered by elevation (lowest first), per the data model invariant.
type Volume struct {
	RadarName string
	Lat, Lon  float64 // degrees
	AltKM     float64 // km above sea level
	Time      time.Time
	Sweeps    []Sweep
	Rays      []Ray
}

// New constructs a Volume, sorting sweeps by elevation to satisfy the
// ordering invariant. It does not mutate the supplied rays.
func New(radarName string, lat, lon, altKM float64, t time.Time, sweeps []Sweep, rays []Ray) *Volume {
	v := &Volume{
		RadarName: radarName,
		Lat:       lat,
		Lon:       lon,
		AltKM:     altKM,
		Time:      t.UTC(),
		Sweeps:    append([]Sweep(nil), sweeps...),
		Rays:      rays,
	}
	sortSweepsByElevation(v.Sweeps)
	return v
}

func sortSweepsByElevation(s []Sweep) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Elevation < s[j-1].Elevation; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// IsNull reports whether every ray in the volume carries only sentinel
// samples — the scenario S3 "null volume" edge case.
func (v *Volume) IsNull() bool {
	for i := range v.Rays {
		r := &v.Rays[i]
		for g := 0; g < r.NumGates(); g++ {
			if r.RefAt(g).Ok() || r.VelAt(g).Ok() {
				return false
			}
		}
	}
	return true
}
