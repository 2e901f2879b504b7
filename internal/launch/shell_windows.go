// SPDX-License-Identifier: MPL-2.0

//go:build windows

package launch

import (
	"context"
	"errors"
)

// ErrShellUnsupported is returned on platforms without PTY support.
var ErrShellUnsupported = errors.New("interactive shell is not supported on Windows")

// Shell is not available on Windows: the engine attach relies on a
// pseudo-terminal.
func (r *Runner) Shell(_ context.Context, _ string, _ string, _ []string) error {
	return ErrShellUnsupported
}
