// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
)

// Engine defines the interface for container operations.
type Engine interface {
	// Name returns the engine name (docker or podman).
	Name() string
	// Available checks if the engine is usable on this system.
	Available() bool
	// Version returns the engine version.
	Version(ctx context.Context) (string, error)

	// Build builds an image from a Dockerfile.
	Build(ctx context.Context, opts BuildOptions) error
	// Run runs a container to completion.
	Run(ctx context.Context, opts RunOptions) (*RunResult, error)
	// Exec runs a command in a running container.
	Exec(ctx context.Context, containerID string, command []string, opts RunOptions) (*RunResult, error)
	// Remove removes a container.
	Remove(ctx context.Context, containerID string, force bool) error
	// ImageExists checks if an image exists locally.
	ImageExists(ctx context.Context, image string) (bool, error)
	// RemoveImage removes an image.
	RemoveImage(ctx context.Context, image string, force bool) error
}

// BuildOptions contains options for building an image.
type BuildOptions struct {
	// ContextDir is the build context directory.
	ContextDir string
	// Dockerfile is the Dockerfile path, relative to ContextDir.
	Dockerfile string
	// Tag is the image tag.
	Tag string
	// BuildArgs are build-time variables.
	BuildArgs map[string]string
	// NoCache disables the layer cache.
	NoCache bool
	// Stdout receives build output.
	Stdout io.Writer
	// Stderr receives build errors.
	Stderr io.Writer
}

// Validate checks that required build fields are set.
func (o BuildOptions) Validate() error {
	if o.ContextDir == "" {
		return fmt.Errorf("build options: context directory must not be empty")
	}
	if o.Tag == "" {
		return fmt.Errorf("build options: image tag must not be empty")
	}
	return nil
}

// RunOptions contains options for running a container.
type RunOptions struct {
	// Image is the image to run.
	Image string
	// Command overrides the image CMD when non-empty.
	Command []string
	// WorkDir is the working directory inside the container.
	WorkDir string
	// Env contains environment variables.
	Env map[string]string
	// Volumes are volume mounts.
	Volumes []VolumeMount
	// Ports are port mappings.
	Ports []PortMapping
	// Remove removes the container after exit.
	Remove bool
	// Name is the container name.
	Name string
	// Interactive keeps stdin open.
	Interactive bool
	// TTY allocates a pseudo-TTY.
	TTY bool
	// Stdin, Stdout, Stderr wire the container's standard streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Validate checks the typed fields of the RunOptions.
func (o RunOptions) Validate() error {
	if o.Image == "" {
		return fmt.Errorf("run options: image must not be empty")
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	for _, p := range o.Ports {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RunResult contains the result of running a container.
type RunResult struct {
	// ContainerID is the container ID when known.
	ContainerID string
	// ExitCode is the process exit code.
	ExitCode int
	// Error contains infrastructure errors (engine missing, etc.);
	// a non-zero exit of the containerized process is not an Error.
	Error error
}

// EngineType identifies a container engine.
type EngineType string

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

// ErrEngineNotAvailable is returned when no usable container engine is found.
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a container engine, preferring the given type and falling
// back to the other one.
func NewEngine(preferred EngineType) (Engine, error) {
	switch preferred {
	case EngineTypeDocker:
		docker := NewDockerEngine()
		if docker.Available() {
			return docker, nil
		}
		podman := NewPodmanEngine()
		if podman.Available() {
			return podman, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypePodman:
		podman := NewPodmanEngine()
		if podman.Available() {
			return podman, nil
		}
		docker := NewDockerEngine()
		if docker.Available() {
			return docker, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferred)
	}
}

// AutoDetectEngine finds any available container engine, Docker first.
func AutoDetectEngine() (Engine, error) {
	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (docker or podman) is available on this system",
	}
}
