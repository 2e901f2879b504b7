// SPDX-License-Identifier: MPL-2.0

package build

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"gantry/pkg/appfile"
)

// GenerateDockerfile renders the Dockerfile for an application image.
//
// The layer order keeps the dependency install cacheable: the manifest is
// copied and installed before the rest of the source tree, so source-only
// edits do not re-run the installer.
func GenerateDockerfile(app *appfile.Appfile) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", app.BaseImage)

	fmt.Fprintf(&sb, "WORKDIR %s\n\n", app.Workdir)

	fmt.Fprintf(&sb, "COPY %s .\n", app.Manifest)
	sb.WriteString(installCommand(app))
	sb.WriteString("\n\n")

	sb.WriteString("COPY . .\n\n")

	for _, k := range sortedEnvKeys(app.Env) {
		fmt.Fprintf(&sb, "ENV %s=%q\n", k, app.Env[k])
	}
	if len(app.Env) > 0 {
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "EXPOSE %d\n\n", app.Port)

	fmt.Fprintf(&sb, "CMD %s\n", strings.Join(app.LaunchCommand(), " "))

	return sb.String()
}

// installCommand renders the dependency install instruction. The index flag
// is only emitted when a mirror is configured, so the installer's own default
// index applies otherwise.
func installCommand(app *appfile.Appfile) string {
	var sb strings.Builder
	sb.WriteString("RUN pip install --no-cache-dir")
	if app.IndexURL != "" {
		fmt.Fprintf(&sb, " -i %s", app.IndexURL)
	}
	fmt.Fprintf(&sb, " -r %s", app.Manifest)
	return sb.String()
}

func sortedEnvKeys(env map[string]string) []string {
	keys := maps.Keys(env)
	slices.Sort(keys)
	return keys
}
