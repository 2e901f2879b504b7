// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config is the global gantry configuration.
	Config struct {
		// ContainerEngine is the preferred engine ("docker" or "podman").
		// Empty means auto-detect, Docker first.
		ContainerEngine string `mapstructure:"container_engine"`

		// IndexURL is the default package index mirror, applied when the app
		// manifest does not set one.
		IndexURL string `mapstructure:"index_url"`

		// BuildContextDir is the parent directory for staged build contexts.
		BuildContextDir string `mapstructure:"build_context_dir"`

		// UI holds display preferences.
		UI UIConfig `mapstructure:"ui"`
	}

	// UIConfig holds display preferences.
	UIConfig struct {
		// Verbose enables verbose output by default.
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}
