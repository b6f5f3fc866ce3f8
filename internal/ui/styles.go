package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// StyleManager encapsulates the styles used for diagnostics
type StyleManager struct {
	Error   lipgloss.Style
	Warn    lipgloss.Style
	Path    lipgloss.Style
	Success lipgloss.Style
	Dim     lipgloss.Style
	Spinner lipgloss.Style
}

// DefaultStyles returns styles rendered for the given writer. Writers that are
// not color terminals get plain text.
func DefaultStyles(w io.Writer) *StyleManager {
	r := lipgloss.NewRenderer(w)
	return &StyleManager{
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		Path:    r.NewStyle().Foreground(lipgloss.Color("36")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("241")),
		Spinner: r.NewStyle().Foreground(lipgloss.Color("212")),
	}
}
