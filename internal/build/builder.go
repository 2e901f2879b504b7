// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"gantry/internal/container"
	"gantry/pkg/appfile"
)

const (
	// hashTagLen is how much of the content hash goes into the image tag.
	hashTagLen = 12
	// dockerfileName is the generated Dockerfile inside the staged context.
	dockerfileName = "Dockerfile"
)

type (
	// Config controls a build.
	Config struct {
		// ForceRebuild skips the content-hash cache check.
		ForceRebuild bool
		// NoCache disables the engine's layer cache.
		NoCache bool
		// ContextParent overrides where build contexts are staged.
		ContextParent string
		// Stdout and Stderr receive engine build output and hook output.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Result describes a finished (or cache-satisfied) build.
	Result struct {
		// ImageTag is the tag of the usable image.
		ImageTag string
		// ContentHash covers the source tree and the generated Dockerfile.
		ContentHash string
		// Cached reports whether an existing image satisfied the build.
		Cached bool
	}

	// Builder builds application images through a container engine.
	Builder struct {
		engine container.Engine
		config *Config
		logger *log.Logger
	}
)

// DefaultConfig returns the default build configuration.
func DefaultConfig() *Config {
	return &Config{
		ContextParent: ContextParentDir(),
		Stdout:        os.Stderr, // Build progress goes to stderr, like the engines themselves
		Stderr:        os.Stderr,
	}
}

// NewBuilder creates a Builder for the given engine.
func NewBuilder(engine container.Engine, cfg *Config) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ContextParent == "" {
		cfg.ContextParent = ContextParentDir()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stderr
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Builder{
		engine: engine,
		config: cfg,
		logger: log.NewWithOptions(os.Stderr, log.Options{Prefix: "build"}),
	}
}

// ImageTag returns the tag an image built from the given tree would carry,
// without building it.
func (b *Builder) ImageTag(app *appfile.Appfile, projectDir string) (string, string, error) {
	srcDir := sourceDir(app, projectDir)
	hash, err := buildHash(app, srcDir)
	if err != nil {
		return "", "", err
	}
	return imageTag(app.Name, hash), hash, nil
}

// Build produces a usable image for the application and records it in the
// project's state file. When the content hash (source tree plus generated
// Dockerfile) matches an existing image, the build is skipped unless
// ForceRebuild is set.
//
// Any engine failure aborts the build; no image tag is recorded.
func (b *Builder) Build(ctx context.Context, app *appfile.Appfile, projectDir string) (*Result, error) {
	srcDir := sourceDir(app, projectDir)
	if _, err := os.Stat(filepath.Join(srcDir, app.Manifest)); err != nil {
		return nil, fmt.Errorf("dependency manifest %s not found in %s: %w", app.Manifest, srcDir, err)
	}

	hash, err := buildHash(app, srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to hash source tree: %w", err)
	}
	tag := imageTag(app.Name, hash)

	if !b.config.ForceRebuild {
		exists, _ := b.engine.ImageExists(ctx, tag) //nolint:errcheck // Error treated as "not found"
		if exists {
			b.logger.Debug("image cache hit", "tag", tag)
			if err := SaveState(projectDir, &State{ImageTag: tag, ContentHash: hash, BuiltAt: time.Now()}); err != nil {
				return nil, err
			}
			return &Result{ImageTag: tag, ContentHash: hash, Cached: true}, nil
		}
	}

	hookEnv := map[string]string{
		"GANTRY_APP":   app.Name,
		"GANTRY_IMAGE": tag,
	}
	if err := RunHooks(ctx, "pre_build", app.Hooks.PreBuild, projectDir, hookEnv, b.config.Stdout, b.config.Stderr); err != nil {
		return nil, err
	}

	contextDir, cleanup, err := StageContext(srcDir, b.config.ContextParent)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	dockerfile := GenerateDockerfile(app)
	if err := os.WriteFile(filepath.Join(contextDir, dockerfileName), []byte(dockerfile), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	b.logger.Info("building image", "tag", tag, "engine", b.engine.Name())

	buildOpts := container.BuildOptions{
		ContextDir: contextDir,
		Dockerfile: dockerfileName,
		Tag:        tag,
		NoCache:    b.config.NoCache,
		Stdout:     b.config.Stdout,
		Stderr:     b.config.Stderr,
	}
	if err := b.engine.Build(ctx, buildOpts); err != nil {
		return nil, fmt.Errorf("image build failed: %w", err)
	}

	if err := RunHooks(ctx, "post_build", app.Hooks.PostBuild, projectDir, hookEnv, b.config.Stdout, b.config.Stderr); err != nil {
		return nil, err
	}

	if err := SaveState(projectDir, &State{ImageTag: tag, ContentHash: hash, BuiltAt: time.Now()}); err != nil {
		return nil, err
	}

	return &Result{ImageTag: tag, ContentHash: hash}, nil
}

// sourceDir resolves the application source tree, defaulting to the project
// directory itself.
func sourceDir(app *appfile.Appfile, projectDir string) string {
	if app.Source == "" {
		return projectDir
	}
	if filepath.IsAbs(app.Source) {
		return app.Source
	}
	return filepath.Join(projectDir, app.Source)
}

// buildHash covers everything that determines the image: the source tree and
// the generated Dockerfile. Hashing the Dockerfile text picks up the launch
// settings baked into the image (port, workers, timeout, entry point, chdir,
// index URL, env), which matter even when the manifest file itself sits
// outside the source tree.
func buildHash(app *appfile.Appfile, srcDir string) (string, error) {
	treeHash, err := HashTree(srcDir)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(treeHash))
	h.Write([]byte{0})
	h.Write([]byte(GenerateDockerfile(app)))
	return hex.EncodeToString(h.Sum(nil)), nil
}

func imageTag(name, hash string) string {
	return fmt.Sprintf("gantry/%s:%s", name, hash[:hashTagLen])
}
