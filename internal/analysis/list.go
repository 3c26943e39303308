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

package analysis

import (
	"encoding/gob"
	"fmt"
	"io"
	"sync"

	"github.com/vortrac/vortrac/internal/simplex"
)

// listDataVersion is checked on Load, the same version-tag pattern the
// teacher's Save/Load pair uses for its gob-encoded grid snapshots.
const listDataVersion = "vortrac-list-v1"

// VortexList is the process-singleton, append-only list of published
// VortexRecords. The AnalysisDriver is its only mutator; observers read
// an atomic snapshot under a readers-writer discipline.
type VortexList struct {
	mu      sync.RWMutex
	records []VortexRecord
}

// NewVortexList returns an empty VortexList.
func NewVortexList() *VortexList { return &VortexList{} }

// Append adds a record. Records must be appended in strictly increasing
// Time order (spec §5); callers are responsible for enforcing that by
// processing volumes in timestamp order.
func (l *VortexList) Append(r VortexRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, r)
}

// Snapshot returns a copy of the list's current contents.
func (l *VortexList) Snapshot() []VortexRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]VortexRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Last returns the most recently appended record and true, or the zero
// value and false if the list is empty.
func (l *VortexList) Last() (VortexRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return VortexRecord{}, false
	}
	return l.records[len(l.records)-1], true
}

type versionedVortexRecords struct {
	DataVersion string
	Records     []VortexRecord
}

// Save gob-encodes the list's current contents to w, for restart
// continuity (spec §6).
func (l *VortexList) Save(w io.Writer) error {
	data := versionedVortexRecords{DataVersion: listDataVersion, Records: l.Snapshot()}
	if err := gob.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("analysis: saving vortex list: %v", err)
	}
	return nil
}

// LoadVortexList gob-decodes a previously-saved VortexList from r.
func LoadVortexList(r io.Reader) (*VortexList, error) {
	var data versionedVortexRecords
	if err := gob.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("analysis: loading vortex list: %v", err)
	}
	if data.DataVersion != listDataVersion {
		return nil, fmt.Errorf("vortex list data version %q is not compatible with required version %q", data.DataVersion, listDataVersion)
	}
	return &VortexList{records: data.Records}, nil
}

// SimplexList is the process-singleton, append-only list of persisted
// SimplexRecords for a storm, one slice of records per volume.
type SimplexList struct {
	mu    sync.RWMutex
	byVol [][]simplex.Record
}

// NewSimplexList returns an empty SimplexList.
func NewSimplexList() *SimplexList { return &SimplexList{} }

// Append adds one volume's worth of simplex records.
func (l *SimplexList) Append(records []simplex.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byVol = append(l.byVol, records)
}

// Last returns the most recently appended volume's records.
func (l *SimplexList) Last() ([]simplex.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.byVol) == 0 {
		return nil, false
	}
	return l.byVol[len(l.byVol)-1], true
}

type versionedSimplexRecords struct {
	DataVersion string
	ByVolume    [][]simplex.Record
}

// Save gob-encodes the list's current contents to w.
func (l *SimplexList) Save(w io.Writer) error {
	l.mu.RLock()
	data := versionedSimplexRecords{DataVersion: listDataVersion, ByVolume: l.byVol}
	l.mu.RUnlock()
	if err := gob.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("analysis: saving simplex list: %v", err)
	}
	return nil
}

// LoadSimplexList gob-decodes a previously-saved SimplexList from r.
func LoadSimplexList(r io.Reader) (*SimplexList, error) {
	var data versionedSimplexRecords
	if err := gob.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("analysis: loading simplex list: %v", err)
	}
	if data.DataVersion != listDataVersion {
		return nil, fmt.Errorf("simplex list data version %q is not compatible with required version %q", data.DataVersion, listDataVersion)
	}
	return &SimplexList{byVol: data.ByVolume}, nil
}
