package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/gubarz/semtex/internal/executor"
)

// ============================================================================
// Observer Selection
// ============================================================================

// Session is an executor.Observer that must be closed once the run ends
type Session interface {
	executor.Observer
	Close(res *executor.Result) error
}

// NewSession picks the live progress view or the line reporter. mode is
// auto, always or never; auto shows progress only on a terminal.
func NewSession(w io.Writer, mode string, verbose bool) Session {
	showProgress := mode == "always" || (mode == "auto" && isTerminal(w))
	if showProgress && !verbose {
		return StartProgress(w)
	}
	return NewReporter(w, verbose)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ============================================================================
// Line Reporter
// ============================================================================

// Reporter writes one line per event. Errors are always written; progress
// lines only when verbose.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
	styles  *StyleManager
}

// NewReporter creates a line reporter writing to w
func NewReporter(w io.Writer, verbose bool) *Reporter {
	return &Reporter{
		w:       w,
		verbose: verbose,
		styles:  DefaultStyles(w),
	}
}

// Discovered implements executor.Observer
func (r *Reporter) Discovered(path string) {
	if r.verbose {
		r.printf("Adding %s to the list of files to be processed\n", r.styles.Path.Render(displayPath(path)))
	}
}

// FileStarted implements executor.Observer
func (r *Reporter) FileStarted(path string) {
	if r.verbose {
		r.printf("Processing %s...\n", r.styles.Path.Render(displayPath(path)))
	}
}

// FileDone implements executor.Observer
func (r *Reporter) FileDone(a executor.Artifact) {
	if r.verbose {
		r.printf("Done processing %s %s\n",
			r.styles.Path.Render(displayPath(a.Path)),
			r.styles.Dim.Render(fmt.Sprintf("(%d lines, %d includes)", a.Lines, len(a.Includes))))
	}
}

// Failed implements executor.Observer
func (r *Reporter) Failed(err error) {
	r.printf("%s %v\n", r.styles.Error.Render("error:"), err)
}

// Close prints the run summary
func (r *Reporter) Close(res *executor.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	printSummary(r.w, r.styles, res)
	return nil
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// printSummary writes the closing line of a run
func printSummary(w io.Writer, styles *StyleManager, res *executor.Result) {
	if res == nil {
		return
	}
	line := fmt.Sprintf("%d files scanned in %v", len(res.Artifacts), res.Elapsed.Round(time.Millisecond))
	switch {
	case res.Aborted:
		fmt.Fprintf(w, "%s %s, %d errors\n", styles.Error.Render("aborted:"), line, len(res.Errors))
	case len(res.Errors) > 0:
		fmt.Fprintf(w, "%s %s, %d errors\n", styles.Warn.Render("done:"), line, len(res.Errors))
	default:
		fmt.Fprintf(w, "%s %s\n", styles.Success.Render("done:"), line)
	}
}

// displayPath shortens path relative to the working directory when possible
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || len(rel) >= len(path) {
		return path
	}
	return rel
}
