// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"
	"testing"

	"gantry/pkg/appfile"
)

func TestSanitizeAppName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already valid", in: "my-app", want: "my-app"},
		{name: "uppercase lowered", in: "MyApp", want: "myapp"},
		{name: "spaces and dots stripped", in: "my app.v2", want: "myappv2"},
		{name: "leading digits stripped", in: "3d-viewer", want: "d-viewer"},
		{name: "underscores kept", in: "web_app", want: "web_app"},
		{name: "all invalid", in: "日本語", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := sanitizeAppName(tt.in); got != tt.want {
				t.Errorf("sanitizeAppName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGenerateManifestParses(t *testing.T) {
	t.Parallel()

	for _, template := range []string{"minimal", "default", "full"} {
		t.Run(template, func(t *testing.T) {
			t.Parallel()

			data := generateManifest("my-app", template)
			app, err := appfile.ParseBytes([]byte(data), "gantry.cue")
			if err != nil {
				t.Fatalf("generated %s manifest does not parse: %v", template, err)
			}
			if app.Name != "my-app" {
				t.Errorf("Name = %q, want my-app", app.Name)
			}
			if app.Port != appfile.DefaultPort {
				t.Errorf("Port = %d, want default %d", app.Port, appfile.DefaultPort)
			}
			if app.Entry != appfile.DefaultEntrypoint {
				t.Errorf("Entry = %q, want default %q", app.Entry, appfile.DefaultEntrypoint)
			}
		})
	}
}

func TestGenerateManifestFullMentionsHooks(t *testing.T) {
	t.Parallel()

	data := generateManifest("my-app", "full")
	for _, want := range []string{"base_image:", "pre_build", "index_url"} {
		if !strings.Contains(data, want) {
			t.Errorf("full template missing %q", want)
		}
	}
}
