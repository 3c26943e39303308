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
	"testing"
	"time"

	"github.com/vortrac/vortrac/internal/vortraclog"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("volume-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// TestWatcherPollOnceEnqueuesWithinWindow is spec §8 scenario S5, driven
// through the real Watcher against a temp directory instead of
// ParseFilename directly.
func TestWatcherPollOnceEnqueuesWithinWindow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KAMX_20050825_0608.nc")

	q := NewQueue()
	w := NewWatcher(dir, q, vortraclog.New())
	w.Window = Window{
		Start: time.Date(2005, 8, 25, 6, 0, 0, 0, time.UTC),
		End:   time.Date(2005, 8, 25, 7, 0, 0, 0, time.UTC),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}

	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}
	item, _ := q.Pop()
	if item.RadarID != "KAMX" {
		t.Errorf("RadarID = %q, want KAMX", item.RadarID)
	}
}

func TestWatcherPollOnceSkipsOutsideWindow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KAMX_20050825_0930.nc")

	q := NewQueue()
	w := NewWatcher(dir, q, vortraclog.New())
	w.Window = Window{
		Start: time.Date(2005, 8, 25, 6, 0, 0, 0, time.UTC),
		End:   time.Date(2005, 8, 25, 7, 0, 0, 0, time.UTC),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0 for a file outside the ingest window", q.Len())
	}
}

func TestWatcherPollOnceSkipsUnparseableNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.txt")

	q := NewQueue()
	w := NewWatcher(dir, q, vortraclog.New())
	if err := w.PollOnce(context.Background()); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0 for an unparseable filename", q.Len())
	}
}

// TestWatcherPollOnceLogsIngestErrorOnUnstableFile drives PollOnce with an
// already-canceled context so waitStable fails immediately, exercising
// the vortracerr.IngestError-wrapped warning path.
func TestWatcherPollOnceLogsIngestErrorOnUnstableFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KAMX_20050825_0608.nc")

	q := NewQueue()
	log := vortraclog.New()
	sub := log.Subscribe()
	w := NewWatcher(dir, q, log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("queue length = %d, want 0 (file never stabilized)", q.Len())
	}

	select {
	case e := <-sub:
		if e.Severity != vortraclog.Warn || e.Component != "ingest" {
			t.Errorf("entry = %+v, want an ingest warning", e)
		}
	default:
		t.Error("PollOnce with a canceled context logged nothing, want an IngestError warning")
	}
}

func TestWatcherPollOnceIgnoresAlreadySeen(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "KAMX_20050825_0608.nc")

	q := NewQueue()
	w := NewWatcher(dir, q, vortraclog.New())
	ctx := context.Background()
	if err := w.PollOnce(ctx); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	if err := w.PollOnce(ctx); err != nil {
		t.Fatalf("second PollOnce: %v", err)
	}
	if q.Len() != 1 {
		t.Errorf("queue length after two polls = %d, want 1 (file seen only once)", q.Len())
	}
}
