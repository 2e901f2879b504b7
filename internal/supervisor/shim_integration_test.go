// SPDX-License-Identifier: MPL-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"gantry/pkg/appfile"
)

const wsgiApp = `
def app(environ, start_response):
    start_response("200 OK", [("Content-Type", "text/plain")])
    return [b"hello from the workers"]
`

func requirePython(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Python worker test in short mode")
	}
	python, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	return python
}

func TestShimServesWSGIApp(t *testing.T) {
	t.Parallel()

	python := requirePython(t)

	appDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(appDir, "server.py"), []byte(wsgiApp), 0o644); err != nil {
		t.Fatal(err)
	}

	addrCh := make(chan net.Addr, 1)
	cfg := Config{
		Bind:         "127.0.0.1:0",
		Workers:      2,
		Timeout:      10 * time.Second,
		Chdir:        appDir,
		Entry:        "server:app",
		Python:       python,
		Logger:       quietLogger(),
		HeartbeatDir: t.TempDir(),
		OnReady:      func(addr net.Addr) { addrCh <- addr },
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	addr := <-addrCh
	url := fmt.Sprintf("http://%s/", addr)

	// Workers need a moment to import the application.
	var body string
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			data, readErr := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if readErr == nil && resp.StatusCode == http.StatusOK {
				body = string(data)
				break
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	if body != "hello from the workers" {
		t.Errorf("response body = %q, want %q", body, "hello from the workers")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v after cancellation", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("supervisor did not shut down")
	}
}

func TestShimUnimportableEntryPointIsFatal(t *testing.T) {
	t.Parallel()

	python := requirePython(t)

	appDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(appDir, "server.py"), []byte(wsgiApp), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		entry string
	}{
		{"missing module", "no_such_module:app"},
		{"missing attribute", "server:no_such_app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Config{
				Bind:         "127.0.0.1:0",
				Workers:      1,
				Timeout:      10 * time.Second,
				Chdir:        appDir,
				Entry:        appfile.Entrypoint(tt.entry),
				Python:       python,
				Logger:       quietLogger(),
				HeartbeatDir: t.TempDir(),
			}

			s, err := New(cfg)
			if err != nil {
				t.Fatal(err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.Run(ctx); !errors.Is(err, ErrBootFailure) {
				t.Errorf("Run() error = %v, want ErrBootFailure", err)
			}
		})
	}
}
