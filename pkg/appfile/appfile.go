// SPDX-License-Identifier: MPL-2.0

package appfile

import (
	"errors"
	"fmt"
	"strconv"
)

// Packaging defaults. These reproduce the canonical deployment recipe for a
// small WSGI service: a slim Python base, requirements.txt, port 5000, four
// workers with a 120 second timeout, and a server:app entry point resolved
// inside web_app.
const (
	DefaultBaseImage  = "python:3.9-slim"
	DefaultManifest   = "requirements.txt"
	DefaultWorkdir    = "/app"
	DefaultPort       = 5000
	DefaultWorkers    = 4
	DefaultTimeout    = 120
	DefaultEntrypoint = Entrypoint("server:app")
	DefaultChdir      = "web_app"
)

// DefaultFileName is the manifest file gantry looks for in the working
// directory when no path is given.
const DefaultFileName = "gantry.cue"

var (
	// ErrInvalidPort is the sentinel error wrapped by InvalidPortError.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidWorkerCount is the sentinel error wrapped by InvalidWorkerCountError.
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrInvalidTimeout is the sentinel error wrapped by InvalidTimeoutError.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

type (
	// Appfile is a parsed gantry.cue manifest with defaults applied.
	Appfile struct {
		// Name is the application name, used for image tags and container names.
		Name string `json:"name"`
		// BaseImage is the base interpreter image reference.
		BaseImage string `json:"base_image,omitempty"`
		// Manifest is the dependency manifest path relative to Source.
		Manifest string `json:"manifest,omitempty"`
		// Source is the application source tree copied into the image.
		Source string `json:"source,omitempty"`
		// Workdir is the working directory set in the image.
		Workdir string `json:"workdir,omitempty"`
		// IndexURL is the package index mirror; empty means the installer default.
		IndexURL string `json:"index_url,omitempty"`
		// Port is the port the supervisor binds (and the image exposes).
		Port int `json:"port,omitempty"`
		// Workers is the number of worker processes.
		Workers int `json:"workers,omitempty"`
		// Timeout is the per-request timeout in seconds.
		Timeout int `json:"timeout,omitempty"`
		// Entry is the WSGI entry point in module:attr form.
		Entry Entrypoint `json:"entrypoint,omitempty"`
		// Chdir is the directory changed into before entry point resolution.
		Chdir string `json:"chdir,omitempty"`
		// Env contains environment variables baked into the image.
		Env map[string]string `json:"env,omitempty"`
		// ExtraPorts are additional host:container mappings for `gantry run`.
		ExtraPorts []string `json:"extra_ports,omitempty"`
		// Volumes are mounts for `gantry run` in host:container[:opts] form.
		Volumes []string `json:"volumes,omitempty"`
		// Hooks are host-side shell scripts run around the image build.
		Hooks Hooks `json:"hooks,omitempty"`

		// FilePath is where the manifest was loaded from. Set by Parse.
		FilePath string `json:"-"`
	}

	// Hooks are shell scripts executed on the host around the image build.
	Hooks struct {
		PreBuild  []string `json:"pre_build,omitempty"`
		PostBuild []string `json:"post_build,omitempty"`
	}

	// InvalidPortError is returned when a port is outside 1-65535.
	InvalidPortError struct {
		Value int
	}

	// InvalidWorkerCountError is returned when the worker count is below 1.
	InvalidWorkerCountError struct {
		Value int
	}

	// InvalidTimeoutError is returned when the timeout is below 1 second.
	InvalidTimeoutError struct {
		Value int
	}
)

// Error implements the error interface.
func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port %d (must be in range 1-65535)", e.Value)
}

// Unwrap returns ErrInvalidPort so callers can use errors.Is.
func (e *InvalidPortError) Unwrap() error { return ErrInvalidPort }

// Error implements the error interface.
func (e *InvalidWorkerCountError) Error() string {
	return fmt.Sprintf("invalid worker count %d (must be at least 1)", e.Value)
}

// Unwrap returns ErrInvalidWorkerCount so callers can use errors.Is.
func (e *InvalidWorkerCountError) Unwrap() error { return ErrInvalidWorkerCount }

// Error implements the error interface.
func (e *InvalidTimeoutError) Error() string {
	return fmt.Sprintf("invalid timeout %d (must be at least 1 second)", e.Value)
}

// Unwrap returns ErrInvalidTimeout so callers can use errors.Is.
func (e *InvalidTimeoutError) Unwrap() error { return ErrInvalidTimeout }

// ApplyDefaults fills unset fields with the packaging defaults.
func (a *Appfile) ApplyDefaults() {
	if a.BaseImage == "" {
		a.BaseImage = DefaultBaseImage
	}
	if a.Manifest == "" {
		a.Manifest = DefaultManifest
	}
	if a.Source == "" {
		a.Source = "."
	}
	if a.Workdir == "" {
		a.Workdir = DefaultWorkdir
	}
	if a.Port == 0 {
		a.Port = DefaultPort
	}
	if a.Workers == 0 {
		a.Workers = DefaultWorkers
	}
	if a.Timeout == 0 {
		a.Timeout = DefaultTimeout
	}
	if a.Entry == "" {
		a.Entry = DefaultEntrypoint
	}
	if a.Chdir == "" {
		a.Chdir = DefaultChdir
	}
}

// Validate checks constraints the CUE schema cannot express alongside typed
// field validation. All field errors are joined so the user sees every
// problem at once.
func (a *Appfile) Validate() error {
	var errs []error

	if a.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if a.Port < 1 || a.Port > 65535 {
		errs = append(errs, &InvalidPortError{Value: a.Port})
	}
	if a.Workers < 1 {
		errs = append(errs, &InvalidWorkerCountError{Value: a.Workers})
	}
	if a.Timeout < 1 {
		errs = append(errs, &InvalidTimeoutError{Value: a.Timeout})
	}
	if err := a.Entry.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// BindAddr returns the address:port the supervisor binds, on all interfaces.
func (a *Appfile) BindAddr() string {
	return "0.0.0.0:" + strconv.Itoa(a.Port)
}

// LaunchCommand returns the process supervisor invocation baked into the
// image as its CMD. The flag surface is fixed:
//
//	gunicorn --bind 0.0.0.0:<port> --workers <n> --timeout <s> --chdir <dir> <module:attr>
func (a *Appfile) LaunchCommand() []string {
	return []string{
		"gunicorn",
		"--bind", a.BindAddr(),
		"--workers", strconv.Itoa(a.Workers),
		"--timeout", strconv.Itoa(a.Timeout),
		"--chdir", a.Chdir,
		string(a.Entry),
	}
}
