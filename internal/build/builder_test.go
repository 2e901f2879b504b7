// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gantry/internal/container"
	"gantry/pkg/appfile"
)

// fakeEngine records build invocations in place of a real container engine.
type fakeEngine struct {
	existing   map[string]bool
	buildErr   error
	buildCalls []container.BuildOptions

	// dockerfiles captures the generated Dockerfile of each build, read
	// before the staged context is cleaned up.
	dockerfiles []string
}

func (e *fakeEngine) Name() string                                { return "fake" }
func (e *fakeEngine) Available() bool                             { return true }
func (e *fakeEngine) Version(context.Context) (string, error)     { return "0.0.0", nil }
func (e *fakeEngine) Remove(context.Context, string, bool) error  { return nil }
func (e *fakeEngine) RemoveImage(context.Context, string, bool) error {
	return nil
}

func (e *fakeEngine) Build(_ context.Context, opts container.BuildOptions) error {
	e.buildCalls = append(e.buildCalls, opts)
	data, err := os.ReadFile(filepath.Join(opts.ContextDir, opts.Dockerfile))
	if err == nil {
		e.dockerfiles = append(e.dockerfiles, string(data))
	}
	return e.buildErr
}

func (e *fakeEngine) Run(context.Context, container.RunOptions) (*container.RunResult, error) {
	return &container.RunResult{}, nil
}

func (e *fakeEngine) Exec(context.Context, string, []string, container.RunOptions) (*container.RunResult, error) {
	return &container.RunResult{}, nil
}

func (e *fakeEngine) ImageExists(_ context.Context, image string) (bool, error) {
	return e.existing[image], nil
}

func testProject(t *testing.T) (*appfile.Appfile, string) {
	t.Helper()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"requirements.txt":  "flask==2.0\ngunicorn==20.1\n",
		"web_app/server.py": "app = object()\n",
	})

	app := &appfile.Appfile{Name: "web"}
	app.ApplyDefaults()
	return app, dir
}

func testConfig(parent string) *Config {
	return &Config{ContextParent: parent, Stdout: io.Discard, Stderr: io.Discard}
}

func TestBuilderBuild(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	result, err := b.Build(context.Background(), app, dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if result.Cached {
		t.Error("first build reported as cached")
	}
	if !strings.HasPrefix(result.ImageTag, "gantry/web:") {
		t.Errorf("ImageTag = %q, want gantry/web:<hash> form", result.ImageTag)
	}
	if len(engine.buildCalls) != 1 {
		t.Fatalf("engine.Build called %d times, want 1", len(engine.buildCalls))
	}
	if engine.buildCalls[0].Tag != result.ImageTag {
		t.Errorf("engine built tag %q, want %q", engine.buildCalls[0].Tag, result.ImageTag)
	}
	if len(engine.dockerfiles) != 1 || !strings.Contains(engine.dockerfiles[0], "FROM python:3.9-slim") {
		t.Error("staged context did not contain the generated Dockerfile")
	}

	st, err := LoadState(dir)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if st.ImageTag != result.ImageTag {
		t.Errorf("state ImageTag = %q, want %q", st.ImageTag, result.ImageTag)
	}
	if st.ContentHash != result.ContentHash {
		t.Errorf("state ContentHash = %q, want %q", st.ContentHash, result.ContentHash)
	}
}

func TestBuilderCacheHit(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	tag, _, err := b.ImageTag(app, dir)
	if err != nil {
		t.Fatal(err)
	}
	engine.existing = map[string]bool{tag: true}

	result, err := b.Build(context.Background(), app, dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !result.Cached {
		t.Error("expected cache hit")
	}
	if len(engine.buildCalls) != 0 {
		t.Errorf("engine.Build called %d times on cache hit, want 0", len(engine.buildCalls))
	}
}

func TestBuilderLaunchSettingsChangeMissesCache(t *testing.T) {
	t.Parallel()

	// The manifest lives outside the source tree, so only the generated
	// Dockerfile reflects the launch settings.
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"src/requirements.txt":  "gunicorn==20.1\n",
		"src/web_app/server.py": "app = object()\n",
	})

	app := &appfile.Appfile{Name: "web", Source: "src"}
	app.ApplyDefaults()

	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	first, err := b.Build(context.Background(), app, dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	engine.existing = map[string]bool{first.ImageTag: true}

	app.Workers = 8
	second, err := b.Build(context.Background(), app, dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if second.ImageTag == first.ImageTag {
		t.Fatalf("worker count change reused tag %q", first.ImageTag)
	}
	if second.Cached {
		t.Error("worker count change satisfied by the old image")
	}
	if len(engine.dockerfiles) != 2 || !strings.Contains(engine.dockerfiles[1], "--workers 8") {
		t.Error("rebuilt image does not carry the new worker count in its CMD")
	}
}

func TestBuilderIndexURLChangeMissesCache(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	tag, _, err := b.ImageTag(app, dir)
	if err != nil {
		t.Fatal(err)
	}

	app.IndexURL = "https://mirror.example.com/simple"
	changed, _, err := b.ImageTag(app, dir)
	if err != nil {
		t.Fatal(err)
	}
	if changed == tag {
		t.Error("index URL change did not change the image tag")
	}
}

func TestBuilderForceRebuild(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	engine := &fakeEngine{}
	cfg := testConfig(t.TempDir())
	cfg.ForceRebuild = true
	b := NewBuilder(engine, cfg)

	tag, _, err := b.ImageTag(app, dir)
	if err != nil {
		t.Fatal(err)
	}
	engine.existing = map[string]bool{tag: true}

	result, err := b.Build(context.Background(), app, dir)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if result.Cached {
		t.Error("forced rebuild reported as cached")
	}
	if len(engine.buildCalls) != 1 {
		t.Errorf("engine.Build called %d times, want 1", len(engine.buildCalls))
	}
}

func TestBuilderEngineFailureLeavesNoState(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	engine := &fakeEngine{buildErr: errors.New("pip install exited 1")}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	_, err := b.Build(context.Background(), app, dir)
	if err == nil {
		t.Fatal("Build() = nil error, want failure")
	}

	if _, stateErr := LoadState(dir); !errors.Is(stateErr, ErrNoState) {
		t.Error("failed build recorded state")
	}
}

func TestBuilderMissingManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"web_app/server.py": "app = object()\n"})

	app := &appfile.Appfile{Name: "web"}
	app.ApplyDefaults()

	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	if _, err := b.Build(context.Background(), app, dir); err == nil {
		t.Fatal("Build() = nil error for missing dependency manifest")
	}
	if len(engine.buildCalls) != 0 {
		t.Error("engine.Build was called despite missing manifest")
	}
}

func TestBuilderRunsHooks(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	app.Hooks = appfile.Hooks{
		PreBuild:  []string{"touch pre_ran.txt"},
		PostBuild: []string{"touch post_ran.txt"},
	}

	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	if _, err := b.Build(context.Background(), app, dir); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, marker := range []string{"pre_ran.txt", "post_ran.txt"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err != nil {
			t.Errorf("hook marker %s missing: %v", marker, err)
		}
	}
}

func TestBuilderFailedPreBuildHookAborts(t *testing.T) {
	t.Parallel()

	app, dir := testProject(t)
	app.Hooks = appfile.Hooks{PreBuild: []string{"exit 1"}}

	engine := &fakeEngine{}
	b := NewBuilder(engine, testConfig(t.TempDir()))

	_, err := b.Build(context.Background(), app, dir)
	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("Build() error = %v, want HookError", err)
	}
	if len(engine.buildCalls) != 0 {
		t.Error("engine.Build was called after pre-build hook failure")
	}
}
