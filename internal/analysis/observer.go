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

import "sync"

// Observer receives published VortexRecords. It replaces the original
// program's signal/slot GUI coupling (spec §9): the driver is the only
// mutator of the VortexList, and every observer sees the same sequence
// of publications.
type Observer interface {
	OnVortexRecord(VortexRecord)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(VortexRecord)

// OnVortexRecord implements Observer.
func (f ObserverFunc) OnVortexRecord(r VortexRecord) { f(r) }

// Publisher fans out published VortexRecords to a set of Observers.
type Publisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewPublisher returns an empty Publisher.
func NewPublisher() *Publisher { return &Publisher{} }

// Subscribe registers an observer.
func (p *Publisher) Subscribe(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// Publish notifies every subscribed observer of r, in subscription
// order.
func (p *Publisher) Publish(r VortexRecord) {
	p.mu.RLock()
	obs := append([]Observer(nil), p.observers...)
	p.mu.RUnlock()
	for _, o := range obs {
		o.OnVortexRecord(r)
	}
}
