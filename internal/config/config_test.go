// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Note: tests in this file mutate package-level overrides and therefore do
// not run in parallel with each other.

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func withConfigDir(t *testing.T, dir string) {
	t.Helper()
	SetConfigDirOverride(dir)
	SetConfigFileOverride("")
	t.Cleanup(func() {
		SetConfigDirOverride("")
		SetConfigFileOverride("")
	})
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	withConfigDir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContainerEngine != "" {
		t.Errorf("ContainerEngine = %q, want empty (auto-detect)", cfg.ContainerEngine)
	}
	if cfg.UI.Verbose {
		t.Error("UI.Verbose = true, want default false")
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
container_engine: "podman"
index_url:        "https://mirror.example.com/simple"
`)
	withConfigDir(t, dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ContainerEngine != "podman" {
		t.Errorf("ContainerEngine = %q, want podman", cfg.ContainerEngine)
	}
	if cfg.IndexURL != "https://mirror.example.com/simple" {
		t.Errorf("IndexURL = %q", cfg.IndexURL)
	}
}

func TestLoadRejectsInvalidEngine(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `container_engine: "lxc"`)
	withConfigDir(t, dir)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() = nil error, want schema violation")
	}
	if !strings.Contains(err.Error(), "container_engine") {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `contianer_engine: "docker"`)
	withConfigDir(t, dir)

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want unknown-field error")
	}
}

func TestLoadExplicitOverrideMissing(t *testing.T) {
	withConfigDir(t, t.TempDir())
	SetConfigFileOverride(filepath.Join(t.TempDir(), "nope.cue"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() with missing --config file = nil error, want error")
	}
}

func TestCreateDefaultConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	withConfigDir(t, dir)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("config written to %q, want inside %q", path, dir)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() of generated config error = %v", err)
	}
	if cfg.ContainerEngine != DefaultConfig().ContainerEngine {
		t.Errorf("round-tripped ContainerEngine = %q", cfg.ContainerEngine)
	}
}
