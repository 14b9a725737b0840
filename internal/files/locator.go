// Package files resolves report-file identifiers to byte content. Search
// order is the working directory first, then the configured data directory.
package files

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedExtension indicates the identifier is not a recognized
// report format.
var ErrUnsupportedExtension = errors.New("files: unsupported file extension")

// ErrNotFound indicates the identifier resolved to no readable file in any
// search root.
var ErrNotFound = errors.New("files: file not found")

// Locator resolves identifiers against its search roots. Extensions are
// checked first so typos fail fast with a distinct error.
type Locator struct {
	dataDir     string
	allowedExts map[string]struct{}
}

// NewLocator builds a Locator with an optional data directory (empty means
// working directory only). Extensions default to the published report
// formats (.csv, .xlsx).
func NewLocator(dataDir string, allowedExtensions ...string) (*Locator, error) {
	if len(allowedExtensions) == 0 {
		allowedExtensions = []string{".csv", ".xlsx"}
	}
	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, e := range allowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.HasPrefix(e, ".") {
			return nil, fmt.Errorf("files: invalid extension: %q", e)
		}
		exts[e] = struct{}{}
	}

	if dataDir != "" {
		abs, err := filepath.Abs(dataDir)
		if err != nil {
			return nil, fmt.Errorf("files: resolve data dir %q: %w", dataDir, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("files: stat data dir %q: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("files: data dir is not a directory: %q", abs)
		}
		dataDir = filepath.Clean(abs)
	}

	return &Locator{dataDir: dataDir, allowedExts: exts}, nil
}

// DataDir returns the canonical data directory, or "" when unset.
func (l *Locator) DataDir() string { return l.dataDir }

// Resolve reads the identified file, trying the identifier as given (working
// directory or absolute), then under the data directory.
func (l *Locator) Resolve(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := l.allowedExts[ext]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}

	candidates := []string{name}
	if l.dataDir != "" && !filepath.IsAbs(name) {
		candidates = append(candidates, filepath.Join(l.dataDir, name))
	}
	for _, path := range candidates {
		content, err := os.ReadFile(path)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("files: read %q: %w", path, err)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}
