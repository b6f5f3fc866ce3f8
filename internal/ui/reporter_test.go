package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gubarz/semtex/internal/executor"
)

func TestNewSessionFallsBackToReporter(t *testing.T) {
	var buf bytes.Buffer
	for _, mode := range []string{"auto", "never"} {
		_, ok := NewSession(&buf, mode, false).(*Reporter)
		assert.True(t, ok, mode)
	}
	// verbose output wins over the progress view
	_, ok := NewSession(&buf, "always", true).(*Reporter)
	assert.True(t, ok)
}

func TestReporterVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, true)

	r.Discovered("/doc/a.tex")
	r.FileStarted("/doc/a.tex")
	r.FileDone(executor.Artifact{Path: "/doc/a.tex", Lines: 4, Includes: []string{"/doc/b.tex"}})
	r.Failed(errors.New("/doc/a.tex:2: cannot find \"b.tex\""))
	require.NoError(t, r.Close(&executor.Result{
		Artifacts: make([]executor.Artifact, 1),
		Errors:    []error{errors.New("x")},
		Elapsed:   1500 * time.Microsecond,
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Adding /doc/a.tex to the list of files to be processed", lines[0])
	assert.Equal(t, "Processing /doc/a.tex...", lines[1])
	assert.Equal(t, "Done processing /doc/a.tex (4 lines, 1 includes)", lines[2])
	assert.Equal(t, "error: /doc/a.tex:2: cannot find \"b.tex\"", lines[3])
	assert.Equal(t, "done: 1 files scanned in 2ms, 1 errors", lines[4])
}

func TestReporterQuiet(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Discovered("/doc/a.tex")
	r.FileStarted("/doc/a.tex")
	r.FileDone(executor.Artifact{Path: "/doc/a.tex"})
	assert.Empty(t, buf.String())

	r.Failed(errors.New("boom"))
	require.NoError(t, r.Close(&executor.Result{Aborted: true, Errors: []error{errors.New("boom")}}))
	assert.Equal(t, "error: boom\naborted: 0 files scanned in 0s, 1 errors\n", buf.String())
}

func TestProgressModelCounts(t *testing.T) {
	var m tea.Model = newProgressModel(DefaultStyles(&bytes.Buffer{}))

	m, _ = m.Update(discoveredMsg{path: "/doc/a.tex"})
	m, _ = m.Update(discoveredMsg{path: "/doc/b.tex"})
	m, _ = m.Update(startedMsg{path: "/doc/a.tex"})
	m, _ = m.Update(doneMsg{artifact: executor.Artifact{Path: "/doc/a.tex"}})

	view := m.View()
	assert.Contains(t, view, "1/2 files")
	assert.Contains(t, view, "a.tex")
	assert.NotContains(t, view, "errors")
	assert.InDelta(t, 0.5, m.(progressModel).percent(), 1e-9)

	m, cmd := m.Update(failedMsg{err: errors.New("boom")})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "1 errors")

	res := &executor.Result{}
	m, cmd = m.Update(finishedMsg{result: res})
	assert.NotNil(t, cmd)
	pm := m.(progressModel)
	assert.True(t, pm.quitting)
	assert.Same(t, res, pm.result)
	assert.Empty(t, pm.View())
}

func TestDisplayPathKeepsAbsoluteWhenShorter(t *testing.T) {
	assert.Equal(t, "/x", displayPath("/x"))
}
