// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gantry/internal/build"
	"gantry/internal/container"
	"gantry/internal/issue"
	"gantry/internal/launch"
	"gantry/pkg/appfile"
)

var (
	runAppfilePath string
	runEngineName  string
	runExtraPorts  []string
	runVolumes     []string
	runKeep        bool

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the built application image",
		Long: `Run the most recently built application image with the application
port published on the host. The container's exit code becomes gantry's
exit code. Transient engine failures are retried before giving up.`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().StringVarP(&runAppfilePath, "file", "f", "", "path to the app manifest (default gantry.cue)")
	runCmd.Flags().StringVar(&runEngineName, "engine", "", "container engine to use (docker or podman)")
	runCmd.Flags().StringArrayVarP(&runExtraPorts, "publish", "p", nil, "additional host:container[/protocol] port mappings")
	runCmd.Flags().StringArrayVar(&runVolumes, "volume", nil, "host:container[:opts] bind mounts")
	runCmd.Flags().BoolVar(&runKeep, "keep", false, "keep the container after exit")
}

func runRun(cmd *cobra.Command, _ []string) error {
	app, projectDir, err := loadManifest(runAppfilePath)
	if err != nil {
		return err
	}

	st, err := build.LoadState(projectDir)
	if err != nil {
		if errors.Is(err, build.ErrNoState) {
			return issue.NewErrorContext().
				WithOperation("looking up the built image").
				WithResource(projectDir).
				WithSuggestion("run 'gantry build' first, or 'gantry up' to build and run").
				Wrap(err).
				BuildError()
		}
		return err
	}

	engine, err := selectEngine(runEngineName)
	if err != nil {
		return err
	}

	return launchImage(cmd, engine, app, launch.Options{
		ImageTag:      st.ImageTag,
		KeepContainer: runKeep,
		ExtraPorts:    runExtraPorts,
		Volumes:       runVolumes,
	})
}

// launchImage runs an image and maps the container's exit code onto
// gantry's own. Shared by run and up.
func launchImage(cmd *cobra.Command, engine container.Engine, app *appfile.Appfile, opts launch.Options) error {
	runner := launch.NewRunner(engine)

	code, err := runner.Run(cmd.Context(), app, opts)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if !code.IsSuccess() {
		return &ExitError{Code: code, Err: fmt.Errorf("application exited with status %s", code)}
	}
	return nil
}
