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

// Package vortracerr defines the error taxonomy that the analysis chain
// uses to classify failures: which ones abort startup, which ones are
// skipped per-volume, and which ones are silently absorbed into a null
// result.
package vortracerr

import "fmt"

// ConfigError signals missing or invalid configuration. It is fatal and
// surfaces on startup.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("vortrac: config error for %q: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IngestError signals an unreadable or unparseable radar volume. The
// offending file is logged and skipped; the pipeline continues.
type IngestError struct {
	File string
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("vortrac: ingest error for %q: %v", e.File, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

// GridderWarning signals that a gridded region had no valid contributing
// samples. The field carries all-sentinel values there; it is not an
// error that halts gridding.
type GridderWarning struct {
	Detail string
}

func (e *GridderWarning) Error() string {
	return fmt.Sprintf("vortrac: gridder warning: %s", e.Detail)
}

// RingFitFailure signals that GBVTDRing could not fit a ring: too few
// samples survived, or the azimuthal gap disallowed wavenumber 0.
type RingFitFailure struct {
	Detail string
}

func (e *RingFitFailure) Error() string {
	return fmt.Sprintf("vortrac: ring fit failed: %s", e.Detail)
}

// SimplexDivergence signals that a Nelder-Mead seed exceeded
// maxIterations without converging.
type SimplexDivergence struct {
	Level, Ring int
}

func (e *SimplexDivergence) Error() string {
	return fmt.Sprintf("vortrac: simplex did not converge at level=%d ring=%d", e.Level, e.Ring)
}

// CenterAbsent signals that CenterChooser found no viable center anywhere
// in the lattice for a volume.
type CenterAbsent struct{}

func (e *CenterAbsent) Error() string { return "vortrac: no center found" }

// Cancelled signals a cooperative abort. It is not an error condition; it
// terminates the current volume's analysis cleanly.
type Cancelled struct{}

func (e *Cancelled) Error() string { return "vortrac: analysis cancelled" }
