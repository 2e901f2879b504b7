// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"gantry/internal/build"
	"gantry/internal/issue"
	"gantry/internal/launch"
)

var (
	shellAppfilePath string
	shellEngineName  string

	shellCmd = &cobra.Command{
		Use:   "shell [command...]",
		Short: "Open an interactive shell inside the application image",
		Long: `Start a throwaway container from the built application image and
attach an interactive shell to it through a pseudo-terminal. Any extra
arguments run instead of the default shell.`,
		RunE: runShell,
	}
)

func init() {
	shellCmd.Flags().StringVarP(&shellAppfilePath, "file", "f", "", "path to the app manifest (default gantry.cue)")
	shellCmd.Flags().StringVar(&shellEngineName, "engine", "", "container engine to use (docker or podman)")
}

func runShell(cmd *cobra.Command, args []string) error {
	app, projectDir, err := loadManifest(shellAppfilePath)
	if err != nil {
		return err
	}

	st, err := build.LoadState(projectDir)
	if err != nil {
		if errors.Is(err, build.ErrNoState) {
			return issue.NewErrorContext().
				WithOperation("looking up the built image").
				WithResource(projectDir).
				WithSuggestion("run 'gantry build' first").
				Wrap(err).
				BuildError()
		}
		return err
	}

	engine, err := selectEngine(shellEngineName)
	if err != nil {
		return err
	}

	runner := launch.NewRunner(engine)
	if err := runner.Shell(cmd.Context(), app.Name, st.ImageTag, args); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	return nil
}
