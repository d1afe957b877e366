// Package local implements a filesystem store for fetched page bodies.
package local

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// BodyStore writes fetched response bodies to the local filesystem, one
// file per URL, mirroring the URL path as a directory layout.
type BodyStore struct {
	baseDir string
}

// New creates a BodyStore rooted at baseDir, creating the directory and
// verifying it is writable.
func New(baseDir string) (*BodyStore, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(baseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(baseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up test file: %w", err)
	}

	return &BodyStore{baseDir: baseDir}, nil
}

// Put writes body to the file derived from rawURL, creating parent
// directories as needed. Error response bodies are stored the same way as
// successful ones.
func (s *BodyStore) Put(rawURL string, body []byte) error {
	rel, err := PathFor(rawURL)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(rel))

	// The URL path is attacker-influenced; refuse anything that escapes
	// the base directory.
	cleanBase := filepath.Clean(s.baseDir)
	cleanFull := filepath.Clean(fullPath)
	if !strings.HasPrefix(cleanFull, cleanBase+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected for %q", rawURL)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return fmt.Errorf("write body file: %w", err)
	}
	return nil
}

// PathFor maps a URL to its relative storage path: the URL path with the
// leading slash stripped, "index" for the root, and ".html" appended when
// the last segment carries no extension. "/a/b/c" becomes "a/b/c.html".
func PathFor(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	p := strings.Trim(u.Path, "/")
	if p == "" {
		p = "index"
	}
	if path.Ext(p) == "" {
		p += ".html"
	}
	return p, nil
}
