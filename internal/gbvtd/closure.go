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

package gbvtd

// Closure names the linear-constraint assumption applied to eliminate
// unobservable GBVTD coefficients (spec §4.2). The standard GBVTD closure
// assumptions (Lee, Jou, Chang & Carbone 1999) are used rather than the
// sign conventions in the original program, which §9 flags as unreliable.
type Closure int

const (
	// Original solves the full unconstrained system up to MaxWave.
	Original Closure = iota
	// ZeroVTC2 additionally zeroes the wavenumber-2 tangential
	// cosine/sine pair, assuming no asymmetric VT forcing at that
	// wavenumber.
	ZeroVTC2
	// ZeroVTC2AndVRS1 additionally zeroes the wavenumber-1 radial sine
	// term on top of ZeroVTC2, assuming no cross-beam radial flow
	// asymmetry.
	ZeroVTC2AndVRS1
)

// zeroedColumns returns the indices, in the basis ordering used by
// buildBasis, of coefficients this closure assumption eliminates.
func (c Closure) zeroedColumns(n int) map[int]bool {
	z := map[int]bool{}
	switch c {
	case ZeroVTC2:
		zeroWavenumberPair(z, n, 2)
	case ZeroVTC2AndVRS1:
		zeroWavenumberPair(z, n, 2)
		// The wavenumber-1 sine term carries the cross-beam radial-flow
		// contamination in a single-Doppler ring fit; this closure
		// additionally assumes it away.
		if n >= 1 {
			z[tangentialSineIndex(n, 1)] = true
		}
	}
	return z
}

func zeroWavenumberPair(z map[int]bool, n, wave int) {
	if wave > n {
		return
	}
	z[tangentialCosineIndex(n, wave)] = true
	z[tangentialSineIndex(n, wave)] = true
}
