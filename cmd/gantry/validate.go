// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gantry/internal/build"
)

var (
	validateAppfilePath string

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate the app manifest",
		Long: `Parse the app manifest, check it against the embedded schema and
report the effective settings, including every default that applies.
Hook scripts are syntax-checked without being run.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
)

func init() {
	validateCmd.Flags().StringVarP(&validateAppfilePath, "file", "f", "", "path to the app manifest (default gantry.cue)")
}

func runValidate(_ *cobra.Command, _ []string) error {
	app, _, err := loadManifest(validateAppfilePath)
	if err != nil {
		return err
	}

	if err := build.CheckHooks("pre_build", app.Hooks.PreBuild); err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	if err := build.CheckHooks("post_build", app.Hooks.PostBuild); err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	fmt.Printf("%s Manifest is valid: %s\n\n", SuccessStyle.Render("✓"), PathStyle.Render(app.FilePath))
	fmt.Println(TitleStyle.Render("Effective settings"))
	fmt.Printf("  name:        %s\n", app.Name)
	fmt.Printf("  base image:  %s\n", app.BaseImage)
	fmt.Printf("  manifest:    %s\n", app.Manifest)
	fmt.Printf("  workdir:     %s\n", app.Workdir)
	fmt.Printf("  port:        %d\n", app.Port)
	fmt.Printf("  workers:     %d\n", app.Workers)
	fmt.Printf("  timeout:     %ds\n", app.Timeout)
	fmt.Printf("  entry point: %s\n", app.Entry)
	fmt.Printf("  chdir:       %s\n", app.Chdir)
	if app.IndexURL != "" {
		fmt.Printf("  index url:   %s\n", app.IndexURL)
	}
	fmt.Printf("\n  launch: %s\n", PathStyle.Render(strings.Join(app.LaunchCommand(), " ")))

	return nil
}
