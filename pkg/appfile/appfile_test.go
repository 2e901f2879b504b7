// SPDX-License-Identifier: MPL-2.0

package appfile

import (
	"errors"
	"strings"
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	app := &Appfile{Name: "bp-monitor"}
	app.ApplyDefaults()

	if app.BaseImage != "python:3.9-slim" {
		t.Errorf("BaseImage = %q, want python:3.9-slim", app.BaseImage)
	}
	if app.Manifest != "requirements.txt" {
		t.Errorf("Manifest = %q, want requirements.txt", app.Manifest)
	}
	if app.Port != 5000 {
		t.Errorf("Port = %d, want 5000", app.Port)
	}
	if app.Workers != 4 {
		t.Errorf("Workers = %d, want 4", app.Workers)
	}
	if app.Timeout != 120 {
		t.Errorf("Timeout = %d, want 120", app.Timeout)
	}
	if app.Entry != "server:app" {
		t.Errorf("Entry = %q, want server:app", app.Entry)
	}
	if app.Chdir != "web_app" {
		t.Errorf("Chdir = %q, want web_app", app.Chdir)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	t.Parallel()

	app := &Appfile{
		Name:      "api",
		BaseImage: "python:3.12-slim",
		Port:      8080,
		Workers:   2,
		Timeout:   30,
		Entry:     "api.main:application",
		Chdir:     "src",
	}
	app.ApplyDefaults()

	if app.BaseImage != "python:3.12-slim" || app.Port != 8080 || app.Workers != 2 ||
		app.Timeout != 30 || app.Entry != "api.main:application" || app.Chdir != "src" {
		t.Errorf("ApplyDefaults() overwrote explicit values: %+v", app)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Appfile {
		a := &Appfile{Name: "app"}
		a.ApplyDefaults()
		return a
	}

	tests := []struct {
		name     string
		mutate   func(*Appfile)
		sentinel error
	}{
		{name: "defaults are valid", mutate: func(*Appfile) {}},
		{
			name:     "port too large",
			mutate:   func(a *Appfile) { a.Port = 70000 },
			sentinel: ErrInvalidPort,
		},
		{
			name:     "negative port",
			mutate:   func(a *Appfile) { a.Port = -1 },
			sentinel: ErrInvalidPort,
		},
		{
			name:     "zero workers",
			mutate:   func(a *Appfile) { a.Workers = 0 },
			sentinel: ErrInvalidWorkerCount,
		},
		{
			name:     "negative timeout",
			mutate:   func(a *Appfile) { a.Timeout = -5 },
			sentinel: ErrInvalidTimeout,
		},
		{
			name:     "bad entrypoint",
			mutate:   func(a *Appfile) { a.Entry = "no-colon" },
			sentinel: ErrInvalidEntrypoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app := valid()
			tt.mutate(app)

			err := app.Validate()
			if tt.sentinel == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Validate() error %v does not wrap %v", err, tt.sentinel)
			}
		})
	}
}

func TestValidateJoinsAllErrors(t *testing.T) {
	t.Parallel()

	app := &Appfile{Name: "app", Port: 0, Workers: 0, Timeout: -1, Entry: "bad"}
	err := app.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, sentinel := range []error{ErrInvalidPort, ErrInvalidWorkerCount, ErrInvalidTimeout, ErrInvalidEntrypoint} {
		if !errors.Is(err, sentinel) {
			t.Errorf("joined error is missing %v", sentinel)
		}
	}
}

func TestLaunchCommand(t *testing.T) {
	t.Parallel()

	app := &Appfile{Name: "app"}
	app.ApplyDefaults()

	got := strings.Join(app.LaunchCommand(), " ")
	want := "gunicorn --bind 0.0.0.0:5000 --workers 4 --timeout 120 --chdir web_app server:app"
	if got != want {
		t.Errorf("LaunchCommand() = %q, want %q", got, want)
	}
}

func TestLaunchCommandSubstitutesManifestValues(t *testing.T) {
	t.Parallel()

	app := &Appfile{Name: "api", Port: 9000, Workers: 8, Timeout: 60, Entry: "api:wsgi", Chdir: "src"}
	app.ApplyDefaults()

	got := strings.Join(app.LaunchCommand(), " ")
	want := "gunicorn --bind 0.0.0.0:9000 --workers 8 --timeout 60 --chdir src api:wsgi"
	if got != want {
		t.Errorf("LaunchCommand() = %q, want %q", got, want)
	}
}
