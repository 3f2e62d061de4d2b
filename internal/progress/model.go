// Package progress shows what a long fetch is doing on the diagnostic
// stream: a spinner with a caption, or a bar while a batch runs.
package progress

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/altin/treeherder-cli/internal/ui"
)

const barWidth = 40

type Model struct {
	styles  ui.Styles
	spinner spinner.Model
	bar     progress.Model
	onQuit  func()

	status  string
	label   string
	total   int
	done    int
	failed  int
	inBatch bool
	width   int
	exiting bool
}

func NewModel(styles ui.Styles, onQuit func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Success
	return Model{
		styles:  styles,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		onQuit:  onQuit,
		width:   80,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, ui.Keys.Quit) {
			if m.onQuit != nil {
				m.onQuit()
			}
			m.exiting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ui.StatusMsg:
		m.status = msg.Text
		m.inBatch = false

	case ui.BatchStartMsg:
		m.label = msg.Label
		m.total = msg.Total
		m.done, m.failed = 0, 0
		m.inBatch = true

	case ui.BatchStepMsg:
		m.done++
		if msg.Failed {
			m.failed++
		}

	case ui.BatchDoneMsg:
		m.inBatch = false
		if msg.Text != "" {
			return m, tea.Println(m.styles.Success.Render("✓") + " " + msg.Text)
		}

	case ui.LogMsg:
		return m, tea.Println(msg.Line)

	case ui.DoneMsg:
		m.exiting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) percent() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m Model) View() string {
	if m.exiting {
		return ""
	}
	left := m.spinner.View() + " " + m.status
	if m.inBatch {
		count := fmt.Sprintf("%d/%d", m.done, m.total)
		if m.failed > 0 {
			count += m.styles.Failure.Render(fmt.Sprintf(" (%d failed)", m.failed))
		}
		left = fmt.Sprintf("%s %s %s %s", m.spinner.View(), m.bar.ViewAs(m.percent()), count, m.label)
	}
	return renderLine(m.styles, left, ui.Keys.Quit.Help().Key+" "+ui.Keys.Quit.Help().Desc, m.width)
}

// renderLine pads left so hints sit at the right edge.
func renderLine(styles ui.Styles, left, hints string, width int) string {
	help := styles.Muted.Render(hints)
	gap := width - lipgloss.Width(left) - lipgloss.Width(help)
	if gap < 1 {
		return left
	}
	return left + fmt.Sprintf("%*s", gap, "") + help
}
