// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    ExitCode
		wantErr bool
	}{
		{"success", 0, false},
		{"failure", 1, false},
		{"max", 255, false},
		{"negative", -1, true},
		{"over max", 256, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.code.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidExitCode) {
					t.Errorf("Validate() error = %v, want ErrInvalidExitCode", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestExitCodePredicates(t *testing.T) {
	t.Parallel()

	if !ExitCode(0).IsSuccess() {
		t.Error("0 should be success")
	}
	if ExitCode(1).IsSuccess() {
		t.Error("1 should not be success")
	}
	for _, code := range []ExitCode{125, 126} {
		if !code.IsTransient() {
			t.Errorf("%s should be transient", code)
		}
	}
	for _, code := range []ExitCode{0, 1, 2, 124, 127, 255} {
		if code.IsTransient() {
			t.Errorf("%s should not be transient", code)
		}
	}
}
