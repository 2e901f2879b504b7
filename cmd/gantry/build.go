// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gantry/internal/build"
)

var (
	buildAppfilePath string
	buildEngineName  string
	buildForce       bool
	buildNoCache     bool

	buildCmd = &cobra.Command{
		Use:   "build",
		Short: "Build the application container image",
		Long: `Build a runnable container image for the application described by
gantry.cue: stage the source tree, generate a Dockerfile (base image,
dependency install, supervisor launch command) and build it with the
selected container engine.

The image tag includes a content hash of the source tree, so an
unchanged tree reuses the existing image. Use --force to rebuild
anyway.`,
		Args: cobra.NoArgs,
		RunE: runBuild,
	}
)

func init() {
	buildCmd.Flags().StringVarP(&buildAppfilePath, "file", "f", "", "path to the app manifest (default gantry.cue)")
	buildCmd.Flags().StringVar(&buildEngineName, "engine", "", "container engine to use (docker or podman)")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "rebuild even when the content hash matches an existing image")
	buildCmd.Flags().BoolVar(&buildNoCache, "no-cache", false, "disable the engine's layer cache")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	app, projectDir, err := loadManifest(buildAppfilePath)
	if err != nil {
		return err
	}

	engine, err := selectEngine(buildEngineName)
	if err != nil {
		return err
	}

	builder := build.NewBuilder(engine, buildConfig(buildForce, buildNoCache))
	result, err := builder.Build(cmd.Context(), app, projectDir)
	if err != nil {
		return &ExitError{Code: 1, Err: err}
	}

	if result.Cached {
		fmt.Printf("%s Image up to date: %s\n", SuccessStyle.Render("✓"), PathStyle.Render(result.ImageTag))
	} else {
		fmt.Printf("%s Built image: %s\n", SuccessStyle.Render("✓"), PathStyle.Render(result.ImageTag))
	}
	return nil
}
