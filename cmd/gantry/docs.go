// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed usage.md
var usageGuide string

// docsWrapWidth is the word wrap width for rendered markdown.
const docsWrapWidth = 100

var docsPlain bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the usage guide",
	Long:  "Show the gantry usage guide, rendered for the terminal.",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runDocs()
	},
}

func init() {
	docsCmd.Flags().BoolVar(&docsPlain, "plain", false, "print raw markdown without styling")
}

func runDocs() error {
	if docsPlain {
		fmt.Print(usageGuide)
		return nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(docsWrapWidth),
	)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}

	out, err := renderer.Render(usageGuide)
	if err != nil {
		return fmt.Errorf("failed to render usage guide: %w", err)
	}
	fmt.Print(out)

	return nil
}
