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

package radarvolume

import (
	"fmt"
	"os"
	"time"

	"github.com/ctessum/cdf"
)

// readNCFVar reads a 1-D or 2-D float32 variable out of a per-radar NetCDF
// sweep file, following the same Reader/Zero/Read sequence the rest of the
// pack uses for COARDS-style variables.
func readNCFVar(ff *cdf.File, name string) ([]float64, error) {
	dims := ff.Header.Lengths(name)
	if len(dims) == 0 {
		return nil, fmt.Errorf("radarvolume: variable %q not in file", name)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	r := ff.Reader(name, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("radarvolume: reading variable %q: %v", name, err)
	}
	raw, ok := buf.([]float32)
	if !ok {
		return nil, fmt.Errorf("radarvolume: variable %q is not float32", name)
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

// NewFromCDF loads a single-sweep NetCDF radar file encoded in the
// per-radar convention §6 allows the I/O layer to deliver: flat
// "elevation", "azimuth", "reflectivity" and "velocity" variables sharing
// a ray/gate grid, plus "first_gate_m", "gate_spacing_m" and
// "nyquist_m_s" scalars. Any other on-disk radar format is out of scope;
// it is the external radar I/O library's job to normalize into Volume.
func NewFromCDF(path, radarName string, lat, lon, altKM float64, t time.Time, nRays, nGates int) (*Volume, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("radarvolume: opening %q: %v", path, err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("radarvolume: opening netcdf %q: %v", path, err)
	}

	elev, err := readNCFVar(ff, "elevation")
	if err != nil {
		return nil, err
	}
	az, err := readNCFVar(ff, "azimuth")
	if err != nil {
		return nil, err
	}
	refl, err := readNCFVar(ff, "reflectivity")
	if err != nil {
		return nil, err
	}
	vel, err := readNCFVar(ff, "velocity")
	if err != nil {
		return nil, err
	}
	firstGate, err := readNCFVar(ff, "first_gate_m")
	if err != nil {
		return nil, err
	}
	gateSpacing, err := readNCFVar(ff, "gate_spacing_m")
	if err != nil {
		return nil, err
	}
	nyquist, err := readNCFVar(ff, "nyquist_m_s")
	if err != nil {
		return nil, err
	}
	if len(elev) != nRays || len(az) != nRays {
		return nil, fmt.Errorf("radarvolume: %q: expected %d rays, got %d", path, nRays, len(elev))
	}

	rays := make([]Ray, nRays)
	for i := 0; i < nRays; i++ {
		rays[i] = Ray{
			Elevation:     elev[i],
			Azimuth:       az[i],
			FirstGate:     firstGate[0],
			GateSpacing:   gateSpacing[0],
			Reflectivity:  refl[i*nGates : (i+1)*nGates],
			Velocity:      vel[i*nGates : (i+1)*nGates],
			SpectralWidth: make([]float64, nGates),
		}
		for g := range rays[i].SpectralWidth {
			rays[i].SpectralWidth[g] = Missing
		}
	}
	sweep := Sweep{Elevation: elev[0], Nyquist: nyquist[0], FirstRay: 0, LastRay: nRays}
	return New(radarName, lat, lon, altKM, t, []Sweep{sweep}, rays), nil
}
