// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// DockerEngine implements Engine using the docker CLI.
type DockerEngine struct {
	*BaseCLIEngine
}

// NewDockerEngine creates a Docker engine.
func NewDockerEngine(opts ...BaseCLIEngineOption) *DockerEngine {
	binaryPath, err := exec.LookPath("docker")
	if err != nil {
		binaryPath = "docker"
	}

	allOpts := append([]BaseCLIEngineOption{WithName("docker")}, opts...)

	return &DockerEngine{
		BaseCLIEngine: NewBaseCLIEngine(binaryPath, allOpts...),
	}
}

// Name returns the engine name.
func (e *DockerEngine) Name() string {
	return "docker"
}

// Available checks if docker is installed and the daemon is reachable.
// `docker info` fails when the daemon is down even if the binary exists,
// which is the case worth detecting.
func (e *DockerEngine) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.RunCommandStatus(ctx, "info") == nil
}

// Version returns the docker version.
func (e *DockerEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
