package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gubarz/semtex/internal/executor"
)

// ============================================================================
// Messages
// ============================================================================

type discoveredMsg struct{ path string }
type startedMsg struct{ path string }
type doneMsg struct{ artifact executor.Artifact }
type failedMsg struct{ err error }
type finishedMsg struct{ result *executor.Result }

// ============================================================================
// Progress Model
// ============================================================================

// progressModel is the Bubble Tea model for the live progress line
type progressModel struct {
	spinner    spinner.Model
	bar        progress.Model
	styles     *StyleManager
	discovered int
	done       int
	failed     int
	current    string
	result     *executor.Result
	quitting   bool
}

func newProgressModel(styles *StyleManager) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return progressModel{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		styles:  styles,
	}
}

// Init implements tea.Model
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case discoveredMsg:
		m.discovered++
	case startedMsg:
		m.current = filepath.Base(msg.path)
	case doneMsg:
		m.done++
	case failedMsg:
		m.failed++
		return m, tea.Println(m.styles.Error.Render("error:") + " " + msg.err.Error())
	case finishedMsg:
		m.result = msg.result
		m.quitting = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m progressModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.bar.ViewAs(m.percent()))
	b.WriteString(fmt.Sprintf(" %d/%d files", m.done, m.discovered))
	if m.failed > 0 {
		b.WriteString(" ")
		b.WriteString(m.styles.Warn.Render(fmt.Sprintf("%d errors", m.failed)))
	}
	if m.current != "" {
		b.WriteString(" ")
		b.WriteString(m.styles.Dim.Render(m.current))
	}
	return b.String()
}

func (m progressModel) percent() float64 {
	if m.discovered == 0 {
		return 0
	}
	return float64(m.done) / float64(m.discovered)
}

// ============================================================================
// Progress Session
// ============================================================================

// Progress drives the live progress view from executor events
type Progress struct {
	program *tea.Program
	w       io.Writer
	styles  *StyleManager
	exited  chan struct{}
	err     error
}

// StartProgress launches the progress view on w
func StartProgress(w io.Writer) *Progress {
	styles := DefaultStyles(w)
	p := &Progress{
		program: tea.NewProgram(newProgressModel(styles), tea.WithOutput(w), tea.WithInput(nil)),
		w:       w,
		styles:  styles,
		exited:  make(chan struct{}),
	}
	go func() {
		defer close(p.exited)
		_, p.err = p.program.Run()
	}()
	return p
}

// Discovered implements executor.Observer
func (p *Progress) Discovered(path string) { p.program.Send(discoveredMsg{path: path}) }

// FileStarted implements executor.Observer
func (p *Progress) FileStarted(path string) { p.program.Send(startedMsg{path: path}) }

// FileDone implements executor.Observer
func (p *Progress) FileDone(a executor.Artifact) { p.program.Send(doneMsg{artifact: a}) }

// Failed implements executor.Observer
func (p *Progress) Failed(err error) { p.program.Send(failedMsg{err: err}) }

// Close stops the view and prints the run summary
func (p *Progress) Close(res *executor.Result) error {
	p.program.Send(finishedMsg{result: res})
	<-p.exited
	if p.err != nil {
		return fmt.Errorf("progress view: %w", p.err)
	}
	printSummary(p.w, p.styles, res)
	return nil
}
