package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/altin/treeherder-cli/internal/ui"
)

// Reporter receives progress from the pipeline. Implementations must be
// safe for concurrent use.
type Reporter interface {
	Status(text string)
	Start(label string, total int)
	Step(failed bool)
	Finish(text string)
	Close()
}

// TeaReporter drives a bubbletea program writing to a terminal.
type TeaReporter struct {
	program *tea.Program
	out     io.Writer
	done    chan struct{}
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

// NewTeaReporter starts the program at once. in may be nil to ignore
// keyboard input; otherwise the quit key calls onQuit.
func NewTeaReporter(out io.Writer, in io.Reader, onQuit func()) *TeaReporter {
	styles := ui.NewStyles(lipgloss.NewRenderer(out))
	p := tea.NewProgram(
		NewModel(styles, onQuit),
		tea.WithOutput(out),
		tea.WithInput(in),
		tea.WithoutSignalHandler(),
	)
	r := &TeaReporter{program: p, out: out, done: make(chan struct{})}
	go func() {
		defer close(r.done)
		_, _ = p.Run()
	}()
	return r
}

func (r *TeaReporter) Status(text string) { r.program.Send(ui.StatusMsg{Text: text}) }
func (r *TeaReporter) Start(label string, total int) { r.program.Send(ui.BatchStartMsg{Label: label, Total: total}) }
func (r *TeaReporter) Step(failed bool) { r.program.Send(ui.BatchStepMsg{Failed: failed}) }
func (r *TeaReporter) Finish(text string) { r.program.Send(ui.BatchDoneMsg{Text: text}) }

// Write prints log output above the live view so it does not tear the
// spinner line. After Close it writes straight through.
func (r *TeaReporter) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.out.Write(p)
	}
	r.program.Send(ui.LogMsg{Line: strings.TrimRight(string(p), "\n")})
	return len(p), nil
}

// Close stops the program and waits until the terminal is restored.
func (r *TeaReporter) Close() {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.program.Send(ui.DoneMsg{})
		<-r.done
		r.closed = true
	})
}

// LogReporter writes progress as log entries, for non-terminal stderr.
type LogReporter struct {
	log logrus.FieldLogger

	mu    sync.Mutex
	label string
	total int
	done  int
}

func NewLogReporter(log logrus.FieldLogger) *LogReporter {
	return &LogReporter{log: log}
}

func (r *LogReporter) Status(text string) {
	r.log.Debug(text)
}

func (r *LogReporter) Start(label string, total int) {
	r.mu.Lock()
	r.label, r.total, r.done = label, total, 0
	r.mu.Unlock()
	r.log.WithField("total", total).Debug(label)
}

func (r *LogReporter) Step(failed bool) {
	r.mu.Lock()
	r.done++
	done, total, label := r.done, r.total, r.label
	r.mu.Unlock()
	r.log.WithField("failed", failed).Debug(fmt.Sprintf("%s: %d/%d", label, done, total))
}

func (r *LogReporter) Finish(text string) {
	if text != "" {
		r.log.Info(text)
	}
}

func (r *LogReporter) Close() {}

// Noop discards progress.
type Noop struct{}

func (Noop) Status(string) {}
func (Noop) Start(string, int) {}
func (Noop) Step(bool) {}
func (Noop) Finish(string) {}
func (Noop) Close() {}
