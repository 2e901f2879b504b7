// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"

	"gantry/internal/container"
)

// defaultShellCommand is tried inside the container. Slim Python images
// ship bash; sh is the fallback.
var defaultShellCommand = []string{"/bin/sh", "-c", "exec bash || exec sh"}

// Shell attaches an interactive shell inside the application container
// through a pseudo-terminal. The engine must expose its command
// construction (both CLI engines do).
func (r *Runner) Shell(ctx context.Context, app string, imageTag string, command []string) error {
	cli, ok := r.engine.(container.CLIEngine)
	if !ok {
		return fmt.Errorf("engine %s does not support interactive attach", r.engine.Name())
	}

	if len(command) == 0 {
		command = defaultShellCommand
	}

	args := cli.RunArgs(container.RunOptions{
		Image:       imageTag,
		Name:        containerName(app) + "-shell",
		Command:     command,
		Remove:      true,
		Interactive: true,
		TTY:         true,
	})
	cmd := cli.CreateCommand(ctx, args...)

	r.logger.Info("attaching shell", "image", imageTag)
	return attachPTY(cmd)
}

// attachPTY runs cmd on a fresh PTY wired to the process's own terminal.
func attachPTY(cmd *exec.Cmd) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}
	defer func() { _ = ptmx.Close() }()

	// Best effort; a non-terminal stdin has no size to inherit.
	_ = pty.InheritSize(os.Stdin, ptmx)

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	_, _ = io.Copy(os.Stdout, ptmx)

	return cmd.Wait()
}
