// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gantry/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gantry configuration",
	Long: `Manage gantry configuration.

Configuration is stored in:
  - Linux: ~/.config/gantry/config.cue
  - macOS: ~/Library/Application Support/gantry/config.cue
  - Windows: %APPDATA%\gantry\config.cue`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
			fmt.Printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(filepath.Join(dir, "config.cue"))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	keyStyle := PathStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if dir, dirErr := config.ConfigDir(); dirErr == nil {
		cfgPath := filepath.Join(dir, "config.cue")
		if _, statErr := os.Stat(cfgPath); statErr == nil {
			fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), cfgPath)
		} else {
			fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	}
	fmt.Println()

	if cfg.ContainerEngine != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(cfg.ContainerEngine))
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("container_engine"), SubtitleStyle.Render("(auto-detect)"))
	}
	if cfg.IndexURL != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("index_url"), valueStyle.Render(cfg.IndexURL))
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("index_url"), SubtitleStyle.Render("(installer default)"))
	}
	if cfg.BuildContextDir != "" {
		fmt.Printf("%s: %s\n", keyStyle.Render("build_context_dir"), valueStyle.Render(cfg.BuildContextDir))
	}

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))

	return nil
}
