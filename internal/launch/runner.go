// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"gantry/internal/container"
	"gantry/pkg/appfile"
)

const (
	// transientRetries is how many times a run is attempted when the
	// engine reports a transient failure.
	transientRetries = 3
	// retryBackoff is the base backoff between attempts.
	retryBackoff = 500 * time.Millisecond
)

type (
	// Options control a container launch.
	Options struct {
		// ImageTag is the image to run.
		ImageTag string
		// KeepContainer leaves the container around after exit.
		KeepContainer bool
		// ExtraPorts are additional host:container mappings beyond the
		// application port.
		ExtraPorts []string
		// Volumes are host:container[:opts] bind mounts.
		Volumes []string
		// Stdin, Stdout, Stderr wire the container streams; nil means
		// the process's own.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner launches application containers.
	Runner struct {
		engine container.Engine
		logger *log.Logger
	}
)

// NewRunner creates a Runner for the given engine.
func NewRunner(engine container.Engine) *Runner {
	return &Runner{
		engine: engine,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "run"}),
	}
}

// EngineRunOptions translates an application manifest and launch options
// into engine run options. The application port is always published 1:1.
func EngineRunOptions(app *appfile.Appfile, opts Options) (container.RunOptions, error) {
	port := container.NetworkPort(app.Port)
	ports := []container.PortMapping{{HostPort: port, ContainerPort: port}}

	for _, raw := range append(app.ExtraPorts, opts.ExtraPorts...) {
		p, err := container.ParsePortMapping(raw)
		if err != nil {
			return container.RunOptions{}, fmt.Errorf("extra port %q: %w", raw, err)
		}
		ports = append(ports, p)
	}

	var volumes []container.VolumeMount
	for _, raw := range append(app.Volumes, opts.Volumes...) {
		v, err := container.ParseVolumeMount(raw)
		if err != nil {
			return container.RunOptions{}, fmt.Errorf("volume %q: %w", raw, err)
		}
		volumes = append(volumes, v)
	}

	stdin := opts.Stdin
	stdout := opts.Stdout
	stderr := opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return container.RunOptions{
		Image:   opts.ImageTag,
		Name:    containerName(app.Name),
		Env:     app.Env,
		Ports:   ports,
		Volumes: volumes,
		Remove:  !opts.KeepContainer,
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
	}, nil
}

// Run launches the application container and blocks until it exits,
// returning the application's exit code. Transient engine failures are
// retried with backoff before giving up.
func (r *Runner) Run(ctx context.Context, app *appfile.Appfile, opts Options) (ExitCode, error) {
	runOpts, err := EngineRunOptions(app, opts)
	if err != nil {
		return 1, err
	}

	r.logger.Info("starting container",
		"image", opts.ImageTag, "name", runOpts.Name, "port", app.Port)

	var code ExitCode
	err = container.RetryWithBackoff(ctx, transientRetries, retryBackoff,
		func(attempt int) (bool, error) {
			result, runErr := r.engine.Run(ctx, runOpts)
			if runErr != nil {
				return false, runErr
			}
			if result.Error != nil {
				return false, result.Error
			}

			code = ExitCode(result.ExitCode)
			if code.IsTransient() {
				r.logger.Warn("transient engine failure, retrying",
					"code", code, "attempt", attempt+1)
				return true, fmt.Errorf("engine reported transient exit code %s", code)
			}
			return false, nil
		})
	if err != nil && !code.IsTransient() {
		return 1, err
	}

	return code, nil
}

// containerName derives a stable container name from the application name.
func containerName(app string) string {
	return "gantry-" + app
}
