// SPDX-License-Identifier: MPL-2.0

package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	// StateDirName is the per-project directory holding gantry state.
	StateDirName = ".gantry"
	// StateFileName is the build state file inside StateDirName.
	StateFileName = "state.toml"
)

// ErrNoState is returned when a project has never been built.
var ErrNoState = errors.New("no build state found")

// State records the outcome of the last successful build of a project.
type State struct {
	// ImageTag is the tag of the last built image.
	ImageTag string `toml:"image_tag"`
	// ContentHash is the source tree hash the image was built from.
	ContentHash string `toml:"content_hash"`
	// BuiltAt is when the build finished.
	BuiltAt time.Time `toml:"built_at"`
}

// statePath returns the state file path for a project directory.
func statePath(projectDir string) string {
	return filepath.Join(projectDir, StateDirName, StateFileName)
}

// LoadState reads the build state of a project. ErrNoState is returned when
// the project has never been built.
func LoadState(projectDir string) (*State, error) {
	data, err := os.ReadFile(statePath(projectDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w in %s", ErrNoState, projectDir)
		}
		return nil, fmt.Errorf("failed to read build state: %w", err)
	}

	var st State
	if err := toml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse build state: %w", err)
	}
	return &st, nil
}

// SaveState writes the build state of a project, creating the state
// directory if needed.
func SaveState(projectDir string, st *State) error {
	dir := filepath.Join(projectDir, StateDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode build state: %w", err)
	}

	if err := os.WriteFile(statePath(projectDir), data, 0o644); err != nil {
		return fmt.Errorf("failed to write build state: %w", err)
	}
	return nil
}
