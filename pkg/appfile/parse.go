// SPDX-License-Identifier: MPL-2.0

package appfile

import (
	_ "embed"
	"fmt"
	"os"

	"gantry/pkg/cueutil"
)

//go:embed appfile_schema.cue
var appfileSchema string

// Parse reads and parses an app manifest from the given path.
func Parse(path string) (*Appfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read app manifest at %s: %w", path, err)
	}
	return ParseBytes(data, path)
}

// ParseBytes parses manifest content from bytes. The data is validated
// against the #Appfile schema, defaults are applied, and the resulting
// manifest is validated at the Go level (constraints CUE cannot express,
// such as entry point structure).
func ParseBytes(data []byte, path string) (*Appfile, error) {
	result, err := cueutil.ParseAndDecodeString[Appfile](
		appfileSchema,
		data,
		"#Appfile",
		cueutil.WithFilename(path),
	)
	if err != nil {
		return nil, err
	}

	app := result.Value
	app.FilePath = path
	app.ApplyDefaults()

	if err := app.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return app, nil
}
