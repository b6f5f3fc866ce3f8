package executor

import (
	"sync"
	"sync/atomic"

	"github.com/gubarz/semtex/internal/parser"
	"github.com/gubarz/semtex/internal/queue"
)

// Artifact records what one completed file produced
type Artifact struct {
	Path     string
	Includes []string // Resolved include targets in source order
	Lines    int
	Newlines parser.NewlineCounts
}

// Run is the state shared by every worker of one run. It is built once per
// run and handed to workers explicitly.
type Run struct {
	opts    Options
	aborted atomic.Bool
	queue   *queue.Queue

	artifactsMu sync.Mutex
	artifacts   []Artifact
	scanned     []string

	errsMu sync.Mutex
	errs   []error
}

func newRun(opts Options) *Run {
	return &Run{
		opts:  opts,
		queue: queue.New(),
	}
}

// Abort raises the abort flag and wakes every worker blocked on the queue.
// Files in flight stop at their next directive; no new file starts.
func (r *Run) Abort() {
	if r.aborted.CompareAndSwap(false, true) {
		r.queue.Close()
	}
}

// Aborted reports whether the abort flag is raised
func (r *Run) Aborted() bool {
	return r.aborted.Load()
}

// AddArtifact appends a completed file's artifact
func (r *Run) AddArtifact(a Artifact) {
	r.artifactsMu.Lock()
	r.artifacts = append(r.artifacts, a)
	r.artifactsMu.Unlock()
}

// MarkScanned records that a worker opened path, whether or not it completes
func (r *Run) MarkScanned(path string) {
	r.artifactsMu.Lock()
	r.scanned = append(r.scanned, path)
	r.artifactsMu.Unlock()
}

// Scanned returns a copy of the paths opened so far
func (r *Run) Scanned() []string {
	r.artifactsMu.Lock()
	defer r.artifactsMu.Unlock()
	return append([]string(nil), r.scanned...)
}

// Artifacts returns a copy of the artifacts collected so far
func (r *Run) Artifacts() []Artifact {
	r.artifactsMu.Lock()
	defer r.artifactsMu.Unlock()
	return append([]Artifact(nil), r.artifacts...)
}

// Report records an error. Any reported error fails the run.
func (r *Run) Report(err error) {
	r.errsMu.Lock()
	r.errs = append(r.errs, err)
	r.errsMu.Unlock()
}

// Errors returns a copy of the reported errors
func (r *Run) Errors() []error {
	r.errsMu.Lock()
	defer r.errsMu.Unlock()
	return append([]error(nil), r.errs...)
}
