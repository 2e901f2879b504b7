// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"gantry/internal/build"
	"gantry/internal/container"
	"gantry/internal/issue"
	"gantry/pkg/appfile"
)

// loadManifest parses the app manifest, returning the application and its
// project directory. The global index URL default applies when the manifest
// names none.
func loadManifest(path string) (*appfile.Appfile, string, error) {
	if path == "" {
		path = appfile.DefaultFileName
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	app, err := appfile.Parse(abs)
	if err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("loading the app manifest").
			WithResource(abs).
			WithSuggestion("run 'gantry init' to scaffold a manifest").
			WithSuggestion("run 'gantry validate' for a detailed schema report").
			Wrap(err).
			BuildError()
	}

	if app.IndexURL == "" {
		app.IndexURL = loadedConfig.IndexURL
	}

	return app, filepath.Dir(abs), nil
}

// selectEngine picks the container engine: the flag wins, then the global
// config, then auto-detection.
func selectEngine(flagValue string) (container.Engine, error) {
	preference := flagValue
	if preference == "" {
		preference = loadedConfig.ContainerEngine
	}

	var (
		engine container.Engine
		err    error
	)
	if preference != "" {
		engine, err = container.NewEngine(container.EngineType(preference))
	} else {
		engine, err = container.AutoDetectEngine()
	}
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("selecting a container engine").
			WithSuggestion("install docker or podman and make sure its daemon is running").
			WithSuggestion("set container_engine in the global config to pick one explicitly").
			Wrap(err).
			BuildError()
	}
	return engine, nil
}

// buildConfig assembles the build configuration from flags and the global
// config.
func buildConfig(force, noCache bool) *build.Config {
	cfg := build.DefaultConfig()
	cfg.ForceRebuild = force
	cfg.NoCache = noCache
	if loadedConfig.BuildContextDir != "" {
		cfg.ContextParent = loadedConfig.BuildContextDir
	}
	return cfg
}
