// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// PodmanEngine implements Engine using the podman CLI.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a Podman engine.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	binaryPath, err := exec.LookPath("podman")
	if err != nil {
		binaryPath = "podman"
	}

	allOpts := append([]BaseCLIEngineOption{
		WithName("podman"),
		WithVolumeFormatter(podmanVolumeFormat),
	}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(binaryPath, allOpts...),
	}
}

// podmanVolumeFormat renders a volume mount for podman, defaulting to a
// shared SELinux label on Linux. Rootless podman on SELinux-enforcing hosts
// gets permission denied on unlabeled bind mounts.
func podmanVolumeFormat(v VolumeMount) string {
	if runtime.GOOS == "linux" && v.SELinux == SELinuxLabelNone {
		v.SELinux = SELinuxLabelShared
	}
	return v.String()
}

// Name returns the engine name.
func (e *PodmanEngine) Name() string {
	return "podman"
}

// Available checks if podman is installed and usable.
func (e *PodmanEngine) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return e.RunCommandStatus(ctx, "info") == nil
}

// Version returns the podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Client.Version}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
