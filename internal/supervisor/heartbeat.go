// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// heartbeatFileName returns the heartbeat file for a worker slot.
func heartbeatFileName(dir string, slot int) string {
	return filepath.Join(dir, fmt.Sprintf("worker-%d.hb", slot))
}

// initHeartbeat creates a worker's heartbeat file with a fresh timestamp so
// the worker starts its timeout window at spawn, not at its first touch.
func initHeartbeat(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create heartbeat file: %w", err)
	}
	return f.Close()
}

// heartbeatAge returns how long ago the heartbeat file was last touched.
// A missing file reports its age as zero: the worker may be mid-boot and is
// judged by its spawn-time file otherwise.
func heartbeatAge(path string, now time.Time) time.Duration {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return now.Sub(info.ModTime())
}

// stale reports whether a heartbeat older than timeout means the worker has
// stalled.
func stale(path string, timeout time.Duration, now time.Time) bool {
	return heartbeatAge(path, now) > timeout
}
