// SPDX-License-Identifier: MPL-2.0

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gantry/internal/issue"
	"gantry/pkg/cueutil"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "gantry"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
)

//go:embed config_schema.cue
var configSchema string

var (
	// configFileOverride is set by the --config flag.
	configFileOverride string
	// configDirOverride is set by tests.
	configDirOverride string
)

// SetConfigFileOverride points Load at a specific config file instead of the
// platform default location. Used by the --config flag.
func SetConfigFileOverride(path string) {
	configFileOverride = path
}

// SetConfigDirOverride redirects the config directory. Used by tests.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the gantry configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (default ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, "Library", "Application Support")
	default:
		dir = os.Getenv("XDG_CONFIG_HOME")
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			dir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(dir, AppName), nil
}

// Load reads the global configuration: built-in defaults, overridden by the
// config file when one exists. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("container_engine", defaults.ContainerEngine)
	v.SetDefault("index_url", defaults.IndexURL)
	v.SetDefault("build_context_dir", defaults.BuildContextDir)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	path, explicit, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("See 'gantry config show' for the expected fields").
				Wrap(err).
				BuildError()
		}
	} else if explicit {
		return nil, issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(configFileOverride).
			WithSuggestion("Verify the file path is correct").
			Wrap(fmt.Errorf("config file not found: %s", configFileOverride)).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// resolveConfigPath decides which config file to read. Returns the path (or
// "" when none exists) and whether the path was an explicit override.
func resolveConfigPath() (path string, explicit bool, err error) {
	if configFileOverride != "" {
		if !fileExists(configFileOverride) {
			return "", true, nil
		}
		return configFileOverride, true, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", false, err
	}

	p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(p) {
		return p, false, nil
	}
	return "", false, nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into viper.
//
// The decode target is map[string]any rather than Config because viper's
// MergeConfigMap preserves defaults for unset keys; decoding straight to the
// struct would zero them.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// CreateDefaultConfig writes a default config file unless one already exists.
func CreateDefaultConfig() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// GenerateCUE renders a Config as a CUE document.
func GenerateCUE(cfg *Config) string {
	out := "// Gantry configuration file.\n\n"
	if cfg.ContainerEngine != "" {
		out += fmt.Sprintf("container_engine: %q\n", cfg.ContainerEngine)
	} else {
		out += "// container_engine: \"docker\"\n"
	}
	if cfg.IndexURL != "" {
		out += fmt.Sprintf("index_url: %q\n", cfg.IndexURL)
	}
	if cfg.BuildContextDir != "" {
		out += fmt.Sprintf("build_context_dir: %q\n", cfg.BuildContextDir)
	}
	out += "\nui: {\n"
	out += fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose)
	out += "}\n"
	return out
}
