// Package source is the filesystem boundary of the resolver: existence checks,
// whole-file reads and path canonicalization.
package source

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// FS reads document sources
type FS interface {
	Exists(path string) bool
	ReadAll(path string) ([]byte, error)
}

// AferoFS implements FS on top of an afero filesystem
type AferoFS struct {
	fs afero.Fs
}

// New wraps an afero filesystem
func New(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewOS returns an FS backed by the real filesystem
func NewOS() *AferoFS {
	return New(afero.NewOsFs())
}

// Exists reports whether path names a regular file
func (s *AferoFS) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReadAll loads the whole file
func (s *AferoFS) ReadAll(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Canonical returns the absolute, cleaned form of path. Two spellings of the
// same file (./a.tex, a.tex, dir/../a.tex) map to the same key.
func Canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Join resolves path against base unless it is already absolute
func Join(base, path string) string {
	if filepath.IsAbs(path) || base == "" {
		return Canonical(path)
	}
	return Canonical(filepath.Join(base, path))
}
