// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// HookError reports a hook script that failed, keeping the script index so
// the message pinpoints which entry in the manifest list broke.
type HookError struct {
	Phase    string
	Index    int
	ExitCode int
	Cause    error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook #%d failed with exit code %d", e.Phase, e.Index+1, e.ExitCode)
}

// Unwrap returns the underlying cause.
func (e *HookError) Unwrap() error { return e.Cause }

// RunHooks executes hook scripts sequentially with the embedded shell
// interpreter. Scripts run on the host in workDir with env appended to the
// current environment. The first failure stops the sequence.
func RunHooks(ctx context.Context, phase string, scripts []string, workDir string, env map[string]string, stdout, stderr io.Writer) error {
	if len(scripts) == 0 {
		return nil
	}

	parser := syntax.NewParser()

	environ := os.Environ()
	for k, v := range env {
		environ = append(environ, k+"="+v)
	}

	for i, script := range scripts {
		prog, err := parser.Parse(strings.NewReader(script), fmt.Sprintf("%s-hook-%d", phase, i+1))
		if err != nil {
			return &HookError{
				Phase:    phase,
				Index:    i,
				ExitCode: 1,
				Cause:    fmt.Errorf("script syntax error: %w", err),
			}
		}

		runner, err := interp.New(
			interp.Dir(workDir),
			interp.Env(expand.ListEnviron(environ...)),
			interp.StdIO(nil, stdout, stderr),
		)
		if err != nil {
			return fmt.Errorf("failed to create hook interpreter: %w", err)
		}

		if err := runner.Run(ctx, prog); err != nil {
			var exitStatus interp.ExitStatus
			if errors.As(err, &exitStatus) {
				return &HookError{Phase: phase, Index: i, ExitCode: int(exitStatus), Cause: err}
			}
			return &HookError{Phase: phase, Index: i, ExitCode: 1, Cause: err}
		}
	}

	return nil
}

// CheckHooks parses hook scripts without running them, surfacing syntax
// errors at validate time instead of mid-build.
func CheckHooks(phase string, scripts []string) error {
	parser := syntax.NewParser()
	for i, script := range scripts {
		if _, err := parser.Parse(strings.NewReader(script), fmt.Sprintf("%s-hook-%d", phase, i+1)); err != nil {
			return &HookError{
				Phase:    phase,
				Index:    i,
				ExitCode: 1,
				Cause:    fmt.Errorf("script syntax error: %w", err),
			}
		}
	}
	return nil
}
