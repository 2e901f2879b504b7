// SPDX-License-Identifier: MPL-2.0

package build

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipNames are directory entries never copied into a build context and
// never hashed. .git would churn the content hash on every commit and
// .gantry holds gantry's own state.
var skipNames = map[string]bool{
	".git":    true,
	".gantry": true,
}

// StageContext copies the source tree into a fresh temporary directory under
// parentDir and returns the staged path plus a cleanup function. The copy is
// content-preserving: file modes survive, the full tree is walked.
func StageContext(srcDir, parentDir string) (contextDir string, cleanup func(), err error) {
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create build context parent directory: %w", err)
	}

	tmpDir, err := os.MkdirTemp(parentDir, "ctx-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create build context directory: %w", err)
	}

	cleanup = func() { _ = os.RemoveAll(tmpDir) }

	if err := CopyTree(srcDir, tmpDir); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to stage build context: %w", err)
	}

	return tmpDir, cleanup, nil
}

// ContextParentDir picks where staged build contexts live.
//
// Docker installed via Snap cannot read /tmp or hidden home directories, so
// a visible directory under the user's home is preferred, falling back to
// the working directory and finally the system temp dir.
func ContextParentDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		if _, statErr := os.Stat(home); statErr == nil {
			return filepath.Join(home, "gantry-build")
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, ".gantry-build")
	}
	return filepath.Join(os.TempDir(), "gantry-build")
}

// CopyTree recursively copies src into dst, skipping entries in skipNames.
func CopyTree(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source directory: %w", err)
	}

	if err := os.MkdirAll(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}

	for _, entry := range entries {
		if skipNames[entry.Name()] {
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := CopyTree(srcPath, dstPath); err != nil {
				return err
			}
		} else {
			if err := CopyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}

// CopyFile copies a single file preserving its mode.
func CopyFile(src, dst string) (err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = srcFile.Close() }() // Read-only file; close error non-critical

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dstFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	return nil
}

// HashTree computes a content hash over the source tree: relative path plus
// file contents, skipping the same entries the copy skips. Identical trees
// hash identically regardless of timestamps, which is what makes the hash a
// usable image tag.
func HashTree(dir string) (string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if skipNames[info.Name()] && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if skipNames[info.Name()] {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk source tree: %w", err)
	}

	sort.Strings(files)

	h := sha256.New()
	for _, path := range files {
		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			return "", err
		}
		// Forward slashes keep the hash stable across platforms.
		h.Write([]byte(strings.ReplaceAll(relPath, string(filepath.Separator), "/")))
		h.Write([]byte{0})

		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s for hashing: %w", relPath, err)
		}
		_, copyErr := io.Copy(h, f)
		_ = f.Close() // Read-only file; close error non-critical
		if copyErr != nil {
			return "", fmt.Errorf("failed to hash %s: %w", relPath, copyErr)
		}
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
