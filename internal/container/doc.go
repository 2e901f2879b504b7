// SPDX-License-Identifier: MPL-2.0

// Package container abstracts the container engines gantry builds and runs
// images with (Docker and Podman).
//
// Both engines are driven through their CLI binaries rather than a daemon
// SDK: the CLI surface is identical enough that a shared BaseCLIEngine can
// build the argument lists, and shelling out works the same for rootful
// Docker, rootless Podman, and snap-confined installs. Engine-specific
// behavior (Podman's SELinux volume labels) is injected through options.
package container
