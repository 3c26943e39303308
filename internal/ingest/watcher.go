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
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/vortrac/vortrac/internal/vortracerr"
	"github.com/vortrac/vortrac/internal/vortraclog"
)

// Window restricts which embedded volume times the Watcher will enqueue.
// A zero Window imposes no restriction.
type Window struct {
	Start, End time.Time
}

func (w Window) contains(t time.Time) bool {
	if w.Start.IsZero() && w.End.IsZero() {
		return true
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// Watcher polls a directory for new radar volume files, tolerates all
// four filename conventions, waits for each file to stop growing, and
// pushes admissible ones onto a Queue.
type Watcher struct {
	Dir    string
	Window Window
	Queue  *Queue
	Log    *vortraclog.Logger

	seen map[string]bool
}

// NewWatcher returns a Watcher over dir, feeding q.
func NewWatcher(dir string, q *Queue, log *vortraclog.Logger) *Watcher {
	return &Watcher{Dir: dir, Queue: q, Log: log, seen: map[string]bool{}}
}

// PollOnce scans the directory once for files not previously seen,
// parses their names, waits for quiescence, and enqueues the admissible
// ones. It never blocks waiting for new files to appear; call it
// periodically from the driving loop.
func (w *Watcher) PollOnce(ctx context.Context) error {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || w.seen[e.Name()] {
			continue
		}
		w.seen[e.Name()] = true

		parsed, ok := ParseFilename(e.Name())
		if !ok {
			w.Log.Warnf("ingest", "unparseable filename %q, skipping", e.Name())
			continue
		}
		if !w.Window.contains(parsed.Time) {
			w.Log.Infof("ingest", "%s outside ingest window, skipping", parsed)
			continue
		}

		path := filepath.Join(w.Dir, e.Name())
		if err := waitStable(ctx, path); err != nil {
			ingestErr := &vortracerr.IngestError{File: path, Err: err}
			w.Log.Warnf("ingest", "%v", ingestErr)
			continue
		}

		w.Queue.Push(Item{Path: path, RadarID: parsed.RadarID, Time: parsed.Time})
		w.Log.Infof("ingest", "enqueued %s", parsed)
	}
	return nil
}

// waitStable blocks until two consecutive size reads of path agree,
// checked on a 1-second quiescence window (spec §6), or until ctx is
// canceled. The library's Retry helper has no context support in this
// major version, so the backoff is driven by hand via NextBackOff
// instead, checked against ctx.Done() between attempts.
func waitStable(ctx context.Context, path string) error {
	b := backoff.NewConstantBackOff(time.Second)
	var lastSize int64
	first := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !first && info.Size() == lastSize {
			return nil
		}
		first = false
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.NextBackOff()):
		}
	}
}
