// Package report renders the include graph discovered by a run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gubarz/semtex/internal/executor"
)

// Report is the serializable form of a run result
type Report struct {
	Roots   []string `yaml:"roots" json:"roots"`
	Files   []File   `yaml:"files" json:"files"`
	Errors  []string `yaml:"errors,omitempty" json:"errors,omitempty"`
	Aborted bool     `yaml:"aborted,omitempty" json:"aborted,omitempty"`
}

// File describes one scanned source
type File struct {
	Path     string   `yaml:"path" json:"path"`
	Lines    int      `yaml:"lines" json:"lines"`
	Includes []string `yaml:"includes,omitempty" json:"includes,omitempty"`
	Newlines Newlines `yaml:"newlines" json:"newlines"`
}

// Newlines counts the newline styles found in a file
type Newlines struct {
	Unix    int `yaml:"unix" json:"unix"`
	Windows int `yaml:"windows" json:"windows"`
	Mac     int `yaml:"mac" json:"mac"`
}

// Build converts a run result. Paths are made relative to base when base is
// not empty and the path lies beneath it.
func Build(res *executor.Result, base string) *Report {
	r := &Report{Aborted: res.Aborted}
	for _, root := range res.Roots {
		r.Roots = append(r.Roots, relTo(base, root))
	}
	for _, a := range res.Artifacts {
		f := File{
			Path:  relTo(base, a.Path),
			Lines: a.Lines,
			Newlines: Newlines{
				Unix:    a.Newlines.Unix,
				Windows: a.Newlines.Windows,
				Mac:     a.Newlines.Mac,
			},
		}
		for _, inc := range a.Includes {
			f.Includes = append(f.Includes, relTo(base, inc))
		}
		r.Files = append(r.Files, f)
	}
	for _, err := range res.Errors {
		r.Errors = append(r.Errors, err.Error())
	}
	return r
}

// Write encodes the report as yaml or json
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding yaml report: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding json report: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported report format: %s (supported: yaml, json)", format)
	}
}

func relTo(base, path string) string {
	if base == "" {
		return path
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
