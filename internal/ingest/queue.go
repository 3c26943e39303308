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

package ingest

import (
	"sort"
	"sync"
	"time"
)

// Item is one file-ingest queue entry: a volume file ready to be opened
// and handed to the analysis core.
type Item struct {
	Path    string
	RadarID string
	Time    time.Time
}

// Queue is the file-ingest queue: volumes strictly ordered by embedded
// timestamp regardless of filesystem discovery order (spec §8 invariant
// 6, scenario S5).
type Queue struct {
	mu    sync.Mutex
	items []Item
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue { return &Queue{} }

// Push inserts item in timestamp order.
func (q *Queue) Push(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := sort.Search(len(q.items), func(i int) bool { return q.items[i].Time.After(item.Time) })
	q.items = append(q.items, Item{})
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = item
}

// Pop removes and returns the earliest-timestamped item.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len reports the number of items currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
