// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitHeartbeat(t *testing.T) {
	t.Parallel()

	path := heartbeatFileName(t.TempDir(), 0)
	if err := initHeartbeat(path); err != nil {
		t.Fatalf("initHeartbeat() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("heartbeat file missing: %v", err)
	}
}

func TestHeartbeatFileName(t *testing.T) {
	t.Parallel()

	got := heartbeatFileName("/run/hb", 2)
	want := filepath.Join("/run/hb", "worker-2.hb")
	if got != want {
		t.Errorf("heartbeatFileName() = %q, want %q", got, want)
	}
}

func TestStale(t *testing.T) {
	t.Parallel()

	path := heartbeatFileName(t.TempDir(), 0)
	if err := initHeartbeat(path); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	if stale(path, time.Minute, now) {
		t.Error("fresh heartbeat reported stale")
	}
	if !stale(path, time.Minute, now.Add(2*time.Minute)) {
		t.Error("old heartbeat not reported stale")
	}
}

func TestStaleMissingFileIsFresh(t *testing.T) {
	t.Parallel()

	if stale(filepath.Join(t.TempDir(), "absent.hb"), time.Millisecond, time.Now()) {
		t.Error("missing heartbeat file reported stale")
	}
}

func TestTouchRefreshesHeartbeat(t *testing.T) {
	t.Parallel()

	path := heartbeatFileName(t.TempDir(), 0)
	if err := initHeartbeat(path); err != nil {
		t.Fatal(err)
	}

	// Backdate the file, then touch it the way a worker does.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if !stale(path, time.Minute, time.Now()) {
		t.Fatal("backdated heartbeat not stale")
	}

	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatal(err)
	}
	if stale(path, time.Minute, time.Now()) {
		t.Error("touched heartbeat still stale")
	}
}
