package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gubarz/semtex/internal/ctxlog"
	"github.com/gubarz/semtex/internal/parser"
	"github.com/gubarz/semtex/internal/source"
)

// ============================================================================
// Observer Interface
// ============================================================================

// Observer receives progress events from the workers. Implementations must be
// safe for concurrent use.
type Observer interface {
	Discovered(path string)
	FileStarted(path string)
	FileDone(a Artifact)
	Failed(err error)
}

// nopObserver discards every event
type nopObserver struct{}

func (nopObserver) Discovered(string)  {}
func (nopObserver) FileStarted(string) {}
func (nopObserver) FileDone(Artifact)  {}
func (nopObserver) Failed(error)       {}

// ============================================================================
// Options & Result
// ============================================================================

// Options is the run configuration consumed by the executor
type Options struct {
	Verbose   bool
	Strict    bool   // A missing include aborts the whole run
	Workers   int    // Size of the worker pool, at least 1
	Extension string // Appended to include stems, defaults to .tex
	BaseDir   string // Include stems resolve against this; defaults to the first root's directory
}

// Result is the outcome of one run
type Result struct {
	Roots     []string
	Scanned   []string   // Every file a worker opened, including failed ones; sorted
	Artifacts []Artifact // Sorted by path
	Errors    []error
	Aborted   bool
	Elapsed   time.Duration
}

// Err joins every reported error, or returns nil if the run was clean
func (r *Result) Err() error {
	return errors.Join(r.Errors...)
}

// Sources returns every path whose change could alter the next run: roots,
// scanned files and the targets of missing includes or failed reads. The
// result is sorted and free of duplicates.
func (r *Result) Sources() []string {
	set := make(map[string]struct{})
	for _, p := range r.Roots {
		set[p] = struct{}{}
	}
	for _, p := range r.Scanned {
		set[p] = struct{}{}
	}
	for _, err := range r.Errors {
		var pe *parser.Error
		if !errors.As(err, &pe) || pe.Path == "" {
			continue
		}
		if pe.Kind == parser.MissingIncludeTarget || pe.Kind == parser.IOFailure {
			set[pe.Path] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// ============================================================================
// Executor
// ============================================================================

// Executor schedules document sources over a pool of workers
type Executor struct {
	fs       source.FS
	opts     Options
	observer Observer
}

// NewExecutor creates an executor reading sources from fs
func NewExecutor(fs source.FS, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Extension == "" {
		opts.Extension = parser.DefaultExtension
	}
	return &Executor{
		fs:       fs,
		opts:     opts,
		observer: nopObserver{},
	}
}

// WithObserver sets the progress observer
func (e *Executor) WithObserver(o Observer) *Executor {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
	return e
}

// Run scans roots and every file they transitively include. It returns once
// the queue is quiescent or the run was aborted. The returned error is
// non-nil if any error was reported along the way.
func (e *Executor) Run(ctx context.Context, roots []string) (*Result, error) {
	start := time.Now()
	logger := ctxlog.FromContext(ctx).With("run", uuid.NewString())

	opts := e.opts
	if opts.BaseDir == "" && len(roots) > 0 {
		opts.BaseDir = filepath.Dir(source.Canonical(roots[0]))
	}
	run := newRun(opts)

	// Ctrl-C and friends raise the abort flag
	if ctx.Err() != nil {
		run.Abort()
	}
	stop := context.AfterFunc(ctx, run.Abort)
	defer stop()

	result := &Result{}
	for _, root := range roots {
		path := source.Canonical(root)
		result.Roots = append(result.Roots, path)
		if run.queue.Push(path) {
			e.observer.Discovered(path)
		}
	}

	logger.Debug("Starting worker pool.", "workers", opts.Workers, "roots", len(roots), "baseDir", opts.BaseDir)
	var g errgroup.Group
	for i := 0; i < opts.Workers; i++ {
		workerID := i
		g.Go(func() error {
			e.worker(ctx, logger.With("workerID", workerID), run)
			return nil
		})
	}
	_ = g.Wait()

	result.Artifacts = run.Artifacts()
	sort.Slice(result.Artifacts, func(i, j int) bool {
		return result.Artifacts[i].Path < result.Artifacts[j].Path
	})
	result.Scanned = run.Scanned()
	sort.Strings(result.Scanned)
	result.Errors = run.Errors()
	result.Aborted = run.Aborted()
	result.Elapsed = time.Since(start)

	logger.Debug("Run finished.",
		"files", len(result.Artifacts),
		"discovered", run.queue.Seen(),
		"errors", len(result.Errors),
		"aborted", result.Aborted,
		"elapsed", result.Elapsed)

	if err := result.Err(); err != nil {
		return result, fmt.Errorf("resolving includes: %w", err)
	}
	if result.Aborted {
		cause := context.Cause(ctx)
		if cause == nil {
			cause = parser.ErrAborted
		}
		return result, fmt.Errorf("resolving includes: %w", cause)
	}
	return result, nil
}

// worker pulls files until the queue is quiescent or the run is aborted
func (e *Executor) worker(ctx context.Context, logger *slog.Logger, run *Run) {
	logger.Debug("Worker started.")
	for !run.Aborted() {
		path, ok := run.queue.Pop()
		if !ok {
			break
		}
		e.processFile(ctx, logger.With("file", path), run, path)
		run.queue.Done()
	}
	logger.Debug("Worker finished.")
}

// processFile scans one file. Grammar and shape errors abandon the file
// without touching other workers; a missing include either continues (lenient)
// or aborts the run (strict).
func (e *Executor) processFile(ctx context.Context, logger *slog.Logger, run *Run, path string) {
	level := slog.LevelDebug
	if run.opts.Verbose {
		level = slog.LevelInfo
	}
	logger.Log(ctx, level, "Processing file.")
	run.MarkScanned(path)
	e.observer.FileStarted(path)

	data, err := e.fs.ReadAll(path)
	if err != nil {
		e.fail(logger, run, &parser.Error{
			Kind: parser.IOFailure,
			File: path,
			Msg:  "could not open file",
			Path: path,
			Err:  err,
		})
		return
	}

	resolver := parser.NewResolver(e.fs, run.opts.BaseDir, run.opts.Extension, func(target string) bool {
		if !run.queue.Push(target) {
			logger.Debug("Include already scheduled.", "target", target)
			return false
		}
		logger.Log(ctx, level, "Adding file to the queue.", "target", target)
		e.observer.Discovered(target)
		return true
	})

	scanner := parser.NewScanner(parser.NewTable(resolver.Triggers()...))
	scanner.Aborted = run.Aborted
	scanner.Recover = func(err error) bool {
		if run.opts.Strict || parser.KindOf(err) != parser.MissingIncludeTarget {
			return false
		}
		e.fail(logger, run, err)
		return true
	}

	cur := parser.NewCursor(path, data)
	if err := scanner.Scan(cur); err != nil {
		if errors.Is(err, parser.ErrAborted) {
			logger.Debug("Scan abandoned after abort.")
			return
		}
		e.fail(logger, run, err)
		if parser.KindOf(err) == parser.MissingIncludeTarget {
			run.Abort()
		}
		return
	}

	artifact := Artifact{
		Path:     path,
		Includes: resolver.Includes(),
		Lines:    countLines(cur, data),
		Newlines: cur.Newlines(),
	}
	run.AddArtifact(artifact)
	e.observer.FileDone(artifact)
	logger.Log(ctx, level, "Done processing file.", "includes", len(artifact.Includes))
}

func (e *Executor) fail(logger *slog.Logger, run *Run, err error) {
	logger.Debug("Error reported.", "error", err)
	run.Report(err)
	e.observer.Failed(err)
}

// countLines counts text lines, not counting an empty tail after the final newline
func countLines(cur *parser.Cursor, data []byte) int {
	n := cur.Newlines().Total()
	if len(data) > 0 {
		if last := data[len(data)-1]; last != '\n' && last != '\r' {
			n++
		}
	}
	return n
}
