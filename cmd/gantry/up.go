// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gantry/internal/build"
	"gantry/internal/launch"
)

var (
	upAppfilePath string
	upEngineName  string
	upForce       bool

	upCmd = &cobra.Command{
		Use:   "up",
		Short: "Build the image and run it",
		Long: `Build the application image (reusing the cached one when the source
tree is unchanged) and run it immediately.`,
		Args: cobra.NoArgs,
		RunE: runUp,
	}
)

func init() {
	upCmd.Flags().StringVarP(&upAppfilePath, "file", "f", "", "path to the app manifest (default gantry.cue)")
	upCmd.Flags().StringVar(&upEngineName, "engine", "", "container engine to use (docker or podman)")
	upCmd.Flags().BoolVar(&upForce, "force", false, "rebuild even when the content hash matches an existing image")
}

func runUp(cmd *cobra.Command, _ []string) error {
	app, projectDir, err := loadManifest(upAppfilePath)
	if err != nil {
		return err
	}

	engine, err := selectEngine(upEngineName)
	if err != nil {
		return err
	}

	builder := build.NewBuilder(engine, buildConfig(upForce, false))
	result, err := builder.Build(cmd.Context(), app, projectDir)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}
	fmt.Printf("%s Image ready: %s\n", SuccessStyle.Render("✓"), PathStyle.Render(result.ImageTag))

	return launchImage(cmd, engine, app, launch.Options{ImageTag: result.ImageTag})
}
