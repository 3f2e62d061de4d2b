package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/altin/treeherder-cli/internal/model"
)

var (
	ColorSuccess = lipgloss.Color("#10B981")
	ColorFailure = lipgloss.Color("#EF4444")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorInfo    = lipgloss.Color("#3B82F6")
	ColorMuted   = lipgloss.Color("#6B7280")
)

// Styles are bound to one renderer so colour follows the destination
// writer, not the process's stdout.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Muted   lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Underline(true),
		Success: r.NewStyle().Foreground(ColorSuccess),
		Failure: r.NewStyle().Foreground(ColorFailure),
		Warning: r.NewStyle().Foreground(ColorWarning),
		Info:    r.NewStyle().Foreground(ColorInfo),
		Muted:   r.NewStyle().Foreground(ColorMuted),
	}
}

func (s Styles) Result(r model.JobResult) lipgloss.Style {
	switch r {
	case model.ResultSuccess:
		return s.Success
	case model.ResultTestFailed, model.ResultBusted:
		return s.Failure
	default:
		return s.Warning
	}
}

// PassRate colours a percentage: green from 90, yellow from 70, red below.
func (s Styles) PassRate(rate float64) lipgloss.Style {
	switch {
	case rate >= 90:
		return s.Success
	case rate >= 70:
		return s.Warning
	default:
		return s.Failure
	}
}

// NewRenderer returns a renderer for w. With color false every style
// renders as plain text regardless of the terminal.
func NewRenderer(w io.Writer, color bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}
