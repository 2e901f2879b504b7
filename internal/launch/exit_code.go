// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode is a process exit status in the POSIX range 0-255.
	// The zero value means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range.
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode for errors.Is compatibility.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate checks the code is in the valid range.
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess reports whether the code means the application exited cleanly.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// IsTransient reports whether the code is a container engine error that may
// succeed on retry (125: engine failure, 126: command not executable yet,
// as seen while an image is still being loaded).
func (c ExitCode) IsTransient() bool { return c == 125 || c == 126 }

// String returns the decimal representation.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
