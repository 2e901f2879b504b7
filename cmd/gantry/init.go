// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gantry/pkg/appfile"
)

var (
	initForce    bool
	initTemplate string

	// initCmd creates a new gantry.cue manifest
	initCmd = &cobra.Command{
		Use:   "init [name]",
		Short: "Create a gantry.cue manifest in the current directory",
		Long: `Create a starter gantry.cue manifest. The name defaults to the current
directory's name. The minimal template emits only the name and relies
on defaults; the full template spells out every setting.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing manifest")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "template to use (minimal, default, full)")
}

func runInit(_ *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	} else if cwd, err := os.Getwd(); err == nil {
		name = sanitizeAppName(filepath.Base(cwd))
	}
	if name == "" {
		name = "app"
	}

	filename := appfile.DefaultFileName
	if _, err := os.Stat(filename); err == nil && !initForce {
		return fmt.Errorf("file '%s' already exists. Use --force to overwrite", filename)
	}

	content := generateManifest(name, initTemplate)
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	absPath, _ := filepath.Abs(filename)
	fmt.Printf("%s Created %s\n", SuccessStyle.Render("✓"), absPath)
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Check the entry point and port in gantry.cue")
	fmt.Println("  2. Run 'gantry validate' to see the effective settings")
	fmt.Println("  3. Run 'gantry up' to build and launch the application")

	return nil
}

// sanitizeAppName lowercases a directory name and strips characters the
// manifest schema rejects.
func sanitizeAppName(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	out := strings.TrimLeft(b.String(), "0123456789-_")
	return out
}

func generateManifest(name, template string) string {
	switch template {
	case "minimal":
		return fmt.Sprintf("name: %q\n", name)

	case "full":
		return fmt.Sprintf(`// gantry app manifest
name: %q

// Image
base_image: %q
manifest:   %q
workdir:    %q
// index_url: "https://pypi.example.com/simple/"

// Launch
port:       %d
workers:    %d
timeout:    %d
entrypoint: %q
chdir:      %q

// env: {
// 	FLASK_ENV: "production"
// }

// hooks: {
// 	pre_build: ["echo building..."]
// 	post_build: ["echo done"]
// }
`,
			name,
			appfile.DefaultBaseImage, appfile.DefaultManifest, appfile.DefaultWorkdir,
			appfile.DefaultPort, appfile.DefaultWorkers, appfile.DefaultTimeout,
			string(appfile.DefaultEntrypoint), appfile.DefaultChdir)

	default:
		return fmt.Sprintf(`// gantry app manifest
name: %q

// Defaults shown for the most commonly changed settings.
port:       %d
workers:    %d
timeout:    %d
entrypoint: %q
chdir:      %q
`,
			name,
			appfile.DefaultPort, appfile.DefaultWorkers, appfile.DefaultTimeout,
			string(appfile.DefaultEntrypoint), appfile.DefaultChdir)
	}
}
