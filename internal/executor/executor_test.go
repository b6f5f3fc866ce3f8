package executor

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/semtex/internal/ctxlog"
	"github.com/gubarz/semtex/internal/parser"
	"github.com/gubarz/semtex/internal/source"
)

func newMemFS(t *testing.T, files map[string]string) *source.AferoFS {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return source.New(fs)
}

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

// countingObserver records events for assertions
type countingObserver struct {
	mu         sync.Mutex
	started    map[string]int
	discovered []string
	done       []Artifact
	failed     []error
}

func newCountingObserver() *countingObserver {
	return &countingObserver{started: make(map[string]int)}
}

func (o *countingObserver) Discovered(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discovered = append(o.discovered, path)
}

func (o *countingObserver) FileStarted(path string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started[path]++
}

func (o *countingObserver) FileDone(a Artifact) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done = append(o.done, a)
}

func (o *countingObserver) Failed(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed = append(o.failed, err)
}

func paths(artifacts []Artifact) []string {
	var out []string
	for _, a := range artifacts {
		out = append(out, a.Path)
	}
	return out
}

func TestRunResolvesTransitiveIncludes(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/book/main.tex":        "\\include{chapterone}\n\\input{parts/intro}\n",
		"/book/chapterone.tex":  "\\input{parts/figures}\n",
		"/book/parts/intro.tex": "Intro text\n",
		"/book/parts/figures.tex": "\\includegraphics{fig1}\n" +
			"% \\input{commented}\n",
	})

	for _, workers := range []int{1, 4} {
		obs := newCountingObserver()
		exec := NewExecutor(fs, Options{Workers: workers}).WithObserver(obs)

		res, err := exec.Run(testContext(), []string{"/book/main.tex"})
		require.NoError(t, err)
		assert.False(t, res.Aborted)
		assert.Empty(t, res.Errors)
		assert.Equal(t, []string{
			"/book/chapterone.tex",
			"/book/main.tex",
			"/book/parts/figures.tex",
			"/book/parts/intro.tex",
		}, paths(res.Artifacts))

		main := res.Artifacts[1]
		assert.Equal(t, []string{"/book/chapterone.tex", "/book/parts/intro.tex"}, main.Includes)
		assert.Equal(t, 2, main.Lines)
		assert.Equal(t, parser.NewlineCounts{Unix: 2}, main.Newlines)

		assert.Len(t, obs.discovered, 4)
		assert.Len(t, obs.done, 4)
		for path, n := range obs.started {
			assert.Equal(t, 1, n, path)
		}
	}
}

func TestRunCyclicIncludesScanEachFileOnce(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/doc/a.tex": "\\input{b}",
		"/doc/b.tex": "\\input{a}\r\n\\input{./a.tex}",
	})
	obs := newCountingObserver()

	res, err := NewExecutor(fs, Options{Workers: 3}).WithObserver(obs).Run(testContext(), []string{"/doc/a.tex"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/doc/a.tex", "/doc/b.tex"}, paths(res.Artifacts))
	assert.Equal(t, map[string]int{"/doc/a.tex": 1, "/doc/b.tex": 1}, obs.started)

	// b still records both directives even though a was already scheduled
	assert.Equal(t, []string{"/doc/a.tex", "/doc/a.tex"}, res.Artifacts[1].Includes)
}

func TestRunLenientMissingInclude(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/doc/main.tex":    "\\include{missing}\n\\include{present}\n",
		"/doc/present.tex": "",
	})

	res, err := NewExecutor(fs, Options{Workers: 2}).Run(testContext(), []string{"/doc/main.tex"})
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrMissingInclude)
	assert.False(t, res.Aborted)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "/doc/main.tex:1:")
	assert.Equal(t, []string{"/doc/main.tex", "/doc/present.tex"}, paths(res.Artifacts))
	assert.Equal(t, []string{"/doc/present.tex"}, res.Artifacts[0].Includes)
}

func TestRunStrictMissingIncludeAborts(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/doc/main.tex":    "\\include{missing}\n\\include{present}\n",
		"/doc/present.tex": "",
	})

	res, err := NewExecutor(fs, Options{Workers: 2, Strict: true}).Run(testContext(), []string{"/doc/main.tex"})
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrMissingInclude)
	assert.True(t, res.Aborted)
	assert.Len(t, res.Errors, 1)
	assert.Empty(t, res.Artifacts)
}

func TestRunGrammarErrorAbandonsOnlyThatFile(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/doc/main.tex": "\\input{good}\n\\input{bad}\n",
		"/doc/good.tex": "fine\n",
		"/doc/bad.tex":  "\\input{a, b}\n\\input{good}\n",
	})

	res, err := NewExecutor(fs, Options{Workers: 2}).Run(testContext(), []string{"/doc/main.tex"})
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrArgumentShape)
	assert.False(t, res.Aborted)
	assert.Equal(t, []string{"/doc/good.tex", "/doc/main.tex"}, paths(res.Artifacts))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "/doc/bad.tex:1: directive takes a single, unnamed argument for \\input", res.Errors[0].Error())
}

func TestRunUnreadableRoot(t *testing.T) {
	fs := newMemFS(t, map[string]string{"/doc/ok.tex": ""})

	res, err := NewExecutor(fs, Options{}).Run(testContext(), []string{"/doc/nope.tex", "/doc/ok.tex"})
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrIO)
	assert.Equal(t, parser.IOFailure, parser.KindOf(res.Errors[0]))
	assert.Equal(t, []string{"/doc/ok.tex"}, paths(res.Artifacts))
}

func TestRunCanceledContext(t *testing.T) {
	fs := newMemFS(t, map[string]string{"/doc/a.tex": ""})
	ctx, cancel := context.WithCancelCause(testContext())
	stop := errors.New("stopped by test")
	cancel(stop)

	res, err := NewExecutor(fs, Options{Workers: 2}).Run(ctx, []string{"/doc/a.tex"})
	require.Error(t, err)
	assert.True(t, res.Aborted)
	assert.ErrorIs(t, err, stop)
}

func TestRunDuplicateRoots(t *testing.T) {
	fs := newMemFS(t, map[string]string{"/doc/a.tex": ""})

	res, err := NewExecutor(fs, Options{}).Run(testContext(), []string{"/doc/a.tex", "/doc/./a.tex"})
	require.NoError(t, err)
	assert.Len(t, res.Artifacts, 1)
	assert.Len(t, res.Roots, 2)
}

func TestRunAbortClosesQueue(t *testing.T) {
	run := newRun(Options{Workers: 1})
	run.Abort()
	assert.True(t, run.Aborted())
	_, ok := run.queue.Pop()
	assert.False(t, ok)
	// Abort is idempotent
	run.Abort()
}

func TestRunSourcesCoverFailedFilesAndMissingTargets(t *testing.T) {
	fs := newMemFS(t, map[string]string{
		"/doc/a.tex":  "\\input{b}\n\\input{ok}\n\\input{missing}\n",
		"/doc/b.tex":  "\\input{x, y}\n",
		"/doc/ok.tex": "",
	})

	res, err := NewExecutor(fs, Options{Workers: 2}).Run(testContext(), []string{"/doc/a.tex", "/doc/gone.tex"})
	require.Error(t, err)

	// b.tex failed, so it produced no artifact but was still opened
	assert.Equal(t, []string{"/doc/a.tex", "/doc/ok.tex"}, paths(res.Artifacts))
	assert.Equal(t, []string{"/doc/a.tex", "/doc/b.tex", "/doc/gone.tex", "/doc/ok.tex"}, res.Scanned)

	assert.Equal(t, []string{
		"/doc/a.tex",
		"/doc/b.tex",
		"/doc/gone.tex",
		"/doc/missing.tex",
		"/doc/ok.tex",
	}, res.Sources())
}

func TestResultSourcesIgnoresPathlessErrors(t *testing.T) {
	res := &Result{
		Roots:   []string{"/doc/a.tex"},
		Scanned: []string{"/doc/a.tex"},
		Errors: []error{
			errors.New("plain"),
			&parser.Error{Kind: parser.InvalidArgumentShape, File: "/doc/a.tex", Line: 1},
		},
	}
	assert.Equal(t, []string{"/doc/a.tex"}, res.Sources())
}

func TestRunLeavesErrorsToObserverAtWarnLevel(t *testing.T) {
	fs := newMemFS(t, map[string]string{"/doc/main.tex": "\\include{missing}\n"})
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New(&logs, "warn", "text"))
	obs := newCountingObserver()

	_, err := NewExecutor(fs, Options{}).WithObserver(obs).Run(ctx, []string{"/doc/main.tex"})
	require.Error(t, err)
	assert.Len(t, obs.failed, 1)
	assert.Empty(t, logs.String())
}
