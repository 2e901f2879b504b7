// SPDX-License-Identifier: MPL-2.0

package build

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCopyTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{
		"requirements.txt":     "flask==2.0\n",
		"web_app/server.py":    "app = object()\n",
		"web_app/static/x.css": "body {}\n",
		".git/config":          "ignored\n",
		".gantry/state.toml":   "ignored\n",
	})

	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	for _, want := range []string{"requirements.txt", "web_app/server.py", "web_app/static/x.css"} {
		if _, err := os.Stat(filepath.Join(dst, want)); err != nil {
			t.Errorf("expected %s to be copied: %v", want, err)
		}
	}
	for _, skip := range []string{".git", ".gantry"} {
		if _, err := os.Stat(filepath.Join(dst, skip)); !os.IsNotExist(err) {
			t.Errorf("expected %s to be skipped", skip)
		}
	}
}

func TestCopyTreePreservesContent(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	dst := t.TempDir()
	writeTree(t, src, map[string]string{"web_app/server.py": "import flask\napp = flask.Flask(__name__)\n"})

	if err := CopyTree(src, dst); err != nil {
		t.Fatalf("CopyTree() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dst, "web_app/server.py"))
	if err != nil {
		t.Fatal(err)
	}
	want := "import flask\napp = flask.Flask(__name__)\n"
	if string(got) != want {
		t.Errorf("copied content = %q, want %q", got, want)
	}
}

func TestHashTree(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"requirements.txt":  "flask==2.0\n",
		"web_app/server.py": "app = object()\n",
	}

	a := t.TempDir()
	b := t.TempDir()
	writeTree(t, a, files)
	writeTree(t, b, files)

	hashA, err := HashTree(a)
	if err != nil {
		t.Fatalf("HashTree() error = %v", err)
	}
	hashB, err := HashTree(b)
	if err != nil {
		t.Fatalf("HashTree() error = %v", err)
	}
	if hashA != hashB {
		t.Error("identical trees produced different hashes")
	}
}

func TestHashTreeChangesWithContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"requirements.txt": "flask==2.0\n"})

	before, err := HashTree(dir)
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, dir, map[string]string{"requirements.txt": "flask==2.1\n"})

	after, err := HashTree(dir)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Error("hash did not change when file content changed")
	}
}

func TestHashTreeIgnoresStateDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"requirements.txt": "flask==2.0\n"})

	before, err := HashTree(dir)
	if err != nil {
		t.Fatal(err)
	}

	writeTree(t, dir, map[string]string{".gantry/state.toml": "image_tag = 'x'\n"})

	after, err := HashTree(dir)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Error("hash changed when only state dir content changed")
	}
}

func TestStageContext(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	parent := t.TempDir()
	writeTree(t, src, map[string]string{"requirements.txt": "flask==2.0\n"})

	contextDir, cleanup, err := StageContext(src, parent)
	if err != nil {
		t.Fatalf("StageContext() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(contextDir, "requirements.txt")); err != nil {
		t.Errorf("staged context missing file: %v", err)
	}

	cleanup()

	if _, err := os.Stat(contextDir); !os.IsNotExist(err) {
		t.Error("cleanup did not remove the staged context")
	}
}
