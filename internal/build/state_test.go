// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := &State{
		ImageTag:    "gantry/web:abc123def456",
		ContentHash: "abc123def456abc123def456",
		BuiltAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := SaveState(dir, want); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	got, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}

	if got.ImageTag != want.ImageTag {
		t.Errorf("ImageTag = %q, want %q", got.ImageTag, want.ImageTag)
	}
	if got.ContentHash != want.ContentHash {
		t.Errorf("ContentHash = %q, want %q", got.ContentHash, want.ContentHash)
	}
	if !got.BuiltAt.Equal(want.BuiltAt) {
		t.Errorf("BuiltAt = %v, want %v", got.BuiltAt, want.BuiltAt)
	}
}

func TestLoadStateMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadState(t.TempDir())
	if !errors.Is(err, ErrNoState) {
		t.Errorf("LoadState() error = %v, want ErrNoState", err)
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := SaveState(dir, &State{ImageTag: "gantry/web:old"}); err != nil {
		t.Fatal(err)
	}
	if err := SaveState(dir, &State{ImageTag: "gantry/web:new"}); err != nil {
		t.Fatal(err)
	}

	got, err := LoadState(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.ImageTag != "gantry/web:new" {
		t.Errorf("ImageTag = %q, want gantry/web:new", got.ImageTag)
	}
}
