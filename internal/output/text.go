package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cli/go-gh/v2/pkg/tableprinter"
	"github.com/cli/go-gh/v2/pkg/text"

	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/ui"
)

const (
	defaultWidth      = 120
	messageWidth      = 60
	groupMessageWidth = 50
	matchWidth        = 100
	maxMatchesShown   = 10
	stackTraceMarker  = "Stack trace:"
	bullet            = "▶"
)

// TextRenderer writes human-readable reports.
type TextRenderer struct {
	opts Options
}

func NewTextRenderer(opts Options) *TextRenderer {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	return &TextRenderer{opts: opts}
}

// report is one text document being assembled before it is written out.
type report struct {
	b     strings.Builder
	s     ui.Styles
	tty   bool
	width int
}

func (t *TextRenderer) newReport(w io.Writer) *report {
	return &report{
		s:     ui.NewStyles(ui.NewRenderer(w, t.opts.Color)),
		tty:   t.opts.TTY,
		width: t.opts.Width,
	}
}

func (r *report) printf(format string, args ...any) {
	fmt.Fprintf(&r.b, format, args...)
}

func (r *report) field(label, value string) {
	r.printf("%s %s\n", r.s.Info.Bold(true).Render(label), r.s.Warning.Render(value))
}

func (r *report) title(s string) {
	r.printf("%s\n\n", r.s.Title.Render(s))
}

func (r *report) table(header []string, rows func(tp tableprinter.TablePrinter)) {
	tp := tableprinter.New(&r.b, r.tty, r.width)
	tp.AddHeader(header, tableprinter.WithColor(colorWith(r.s.Title.UnsetUnderline().Render)))
	rows(tp)
	_ = tp.Render()
}

func (r *report) flush(w io.Writer) error {
	_, err := io.WriteString(w, r.b.String())
	return err
}

func colorWith(s func(...string) string) func(string) string {
	return func(v string) string { return s(v) }
}

func (t *TextRenderer) Jobs(w io.Writer, rep model.JobsReport) error {
	r := t.newReport(w)

	if rep.Storage != nil && rep.Storage.MetadataPath != "" {
		r.printf("Metadata saved to: %s\n\n", rep.Storage.MetadataPath)
	}

	r.title("Treeherder Test Results Summary")
	r.field("Revision:", rep.Revision)
	r.field("Push ID:", strconv.FormatInt(rep.PushID, 10))
	r.printf("\n")

	if len(rep.Jobs) == 0 {
		r.printf("%s\n", r.s.Success.Bold(true).Render("✓ No jobs found matching criteria!"))
		t.storageNotes(r, rep.Storage)
		return r.flush(w)
	}

	r.printf("%s\n\n", jobsHeading(r.s, rep.Jobs))

	r.table([]string{"Job ID", "Job Type", "Platform", "Result", "Errors"}, func(tp tableprinter.TablePrinter) {
		for _, j := range rep.Jobs {
			tp.AddField(strconv.FormatInt(j.Job.ID, 10))
			tp.AddField(j.Job.JobTypeName)
			tp.AddField(j.Job.Platform)
			tp.AddField(string(j.Job.Result), tableprinter.WithColor(colorWith(r.s.Result(j.Job.Result).Render)))
			tp.AddField(strconv.Itoa(len(j.Errors)))
			tp.EndRow()
		}
	})
	r.printf("\n")

	for _, j := range rep.Jobs {
		t.jobBlock(r, j, rep.LogsFetched)
	}

	t.storageNotes(r, rep.Storage)
	return r.flush(w)
}

func jobsHeading(s ui.Styles, jobs []model.JobWithLogs) string {
	failed, unknown := 0, 0
	for _, j := range jobs {
		if j.Job.Completed() && j.Job.Failed() {
			failed++
		}
		if j.Job.Result == model.ResultUnknown {
			unknown++
		}
	}
	switch {
	case failed > 0:
		return fmt.Sprintf("%s (%s)", s.Failure.Bold(true).Render("Failed Jobs"), text.Pluralize(failed, "failure"))
	case unknown > 0:
		return fmt.Sprintf("%s (%d total, %d pending/running)", s.Info.Bold(true).Render("Jobs"), len(jobs), unknown)
	default:
		return fmt.Sprintf("%s (%d)", s.Info.Bold(true).Render("Jobs"), len(jobs))
	}
}

func (t *TextRenderer) jobBlock(r *report, j model.JobWithLogs, logsFetched bool) {
	s := r.s
	r.printf("%s %s - %s\n", s.Info.Render(bullet), s.Title.UnsetUnderline().Render(j.Job.JobTypeName), s.Muted.Render(j.Job.Platform))
	r.printf("  %s %s | %s %s | %s %s\n",
		s.Muted.Render("ID:"), s.Info.Render(strconv.FormatInt(j.Job.ID, 10)),
		s.Muted.Render("Symbol:"), s.Info.Render(j.Job.JobTypeSymbol),
		s.Muted.Render("Result:"), s.Result(j.Job.Result).Render(string(j.Job.Result)))
	if j.LogDir != "" {
		r.printf("  %s %s\n", s.Muted.Render("Logs:"), s.Info.Render(j.LogDir))
	}

	switch {
	case len(j.Errors) > 0:
		r.printf("\n  %s:\n", s.Failure.Bold(true).Render("Errors"))
		r.table([]string{"Test", "Subtest", "Status", "Message"}, func(tp tableprinter.TablePrinter) {
			for _, e := range j.Errors {
				tp.AddField(orDash(e.Test))
				tp.AddField(orDash(e.Subtest))
				tp.AddField(orDash(e.Status), tableprinter.WithColor(colorWith(s.Failure.Render)))
				tp.AddField(orDash(text.Truncate(messageWidth, MessageSummary(e.Message))))
				tp.EndRow()
			}
		})
		if t.opts.ShowStackTraces {
			for _, e := range j.Errors {
				stack, ok := StackTrace(e)
				if !ok {
					continue
				}
				test := e.Test
				if test == "" {
					test = "unknown"
				}
				r.printf("\n  %s for %s:\n", s.Warning.Bold(true).Render("Stack trace"), test)
				for _, line := range strings.Split(stack, "\n") {
					if line = strings.TrimSpace(line); line != "" {
						r.printf("    %s\n", s.Muted.Render(line))
					}
				}
				r.printf("\n")
			}
		}
	case !logsFetched:
		r.printf("  %s\n", s.Muted.Render("No error summary available"))
	}

	if logsFetched && len(j.LogMatches) > 0 {
		r.printf("\n  %s (%d matches):\n", s.Warning.Bold(true).Render("Pattern Matches"), len(j.LogMatches))
		for i, m := range j.LogMatches {
			if i == maxMatchesShown {
				break
			}
			r.printf("    %s:%s %s\n", s.Info.Render(m.LogName), s.Warning.Render(strconv.Itoa(m.LineNumber)),
				s.Muted.Render(text.Truncate(matchWidth, m.LineContent)))
		}
		if extra := len(j.LogMatches) - maxMatchesShown; extra > 0 {
			r.printf("    %s more matches (see log files)\n", s.Muted.Render(fmt.Sprintf("... and %d", extra)))
		}
	}
	r.printf("\n")
}

func (t *TextRenderer) storageNotes(r *report, st *model.LogStorage) {
	if st == nil || st.Dir == "" {
		return
	}
	if st.Temporary {
		r.printf("\nLogs are stored in temporary directory: %s\n", st.Dir)
		r.printf("The directory will be automatically cleaned up when the program exits.\n")
		return
	}
	r.printf("\nLogs are stored persistently in: %s\n", st.Dir)
	r.printf("Use --use-cache --cache-dir %s to query these logs later.\n", st.Dir)
}

// MessageSummary returns the part of a failure message before its stack
// trace, trimmed.
func MessageSummary(msg string) string {
	if i := strings.Index(msg, stackTraceMarker); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

// StackTrace returns the explicit stack of a record, or the text after
// "Stack trace:" in its message.
func StackTrace(e model.ErrorLine) (string, bool) {
	if e.Stack != "" {
		return e.Stack, true
	}
	if i := strings.Index(e.Message, stackTraceMarker); i >= 0 {
		return e.Message[i+len(stackTraceMarker):], true
	}
	return "", false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (t *TextRenderer) NoJobs(w io.Writer, _ string, _ int64) error {
	_, err := io.WriteString(w, "No jobs found matching the specified criteria\n")
	return err
}

func (t *TextRenderer) Grouped(w io.Writer, rep model.GroupedReport) error {
	r := t.newReport(w)
	s := r.s

	if rep.Storage != nil && rep.Storage.MetadataPath != "" {
		r.printf("Metadata saved to: %s\n\n", rep.Storage.MetadataPath)
	}

	r.title("Treeherder Test Results - Grouped by Test")
	r.field("Revision:", rep.Revision)
	r.field("Push ID:", strconv.FormatInt(rep.PushID, 10))
	r.printf("\n")

	if len(rep.GroupedFailures) == 0 {
		r.printf("%s\n", s.Success.Bold(true).Render("✓ No test failures found!"))
		t.storageNotes(r, rep.Storage)
		return r.flush(w)
	}

	r.printf("%s (%s)\n\n", s.Failure.Bold(true).Render("Test Failures"), text.Pluralize(len(rep.GroupedFailures), "unique test"))
	for _, g := range rep.GroupedFailures {
		r.printf("%s %s\n", s.Info.Render(bullet), s.Title.UnsetUnderline().Render(g.TestName))
		r.printf("  %s %s platforms: %s\n\n", s.Muted.Render("Affected on"),
			s.Warning.Render(strconv.Itoa(len(g.Platforms))), s.Info.Render(strings.Join(g.Platforms, ", ")))
		r.table([]string{"Platform", "Job", "Subtest", "Message"}, func(tp tableprinter.TablePrinter) {
			for _, j := range g.Jobs {
				tp.AddField(j.Platform)
				tp.AddField(j.JobTypeName)
				tp.AddField(orDash(j.Subtest))
				tp.AddField(orDash(text.Truncate(groupMessageWidth, j.Message)))
				tp.EndRow()
			}
		})
		r.printf("\n")
	}
	t.storageNotes(r, rep.Storage)
	return r.flush(w)
}

func (t *TextRenderer) Comparison(w io.Writer, c model.ComparisonResult) error {
	r := t.newReport(w)
	s := r.s

	r.title("Treeherder Comparison Results")
	r.field("Base revision:", c.BaseRevision)
	r.field("Comparing to:", c.CompareRevision)
	r.printf("\n")

	newCount := s.Success
	if len(c.NewFailures) > 0 {
		newCount = s.Failure
	}
	r.table([]string{"Category", "Count"}, func(tp tableprinter.TablePrinter) {
		tp.AddField("New Failures", tableprinter.WithColor(colorWith(s.Failure.Render)))
		tp.AddField(strconv.Itoa(len(c.NewFailures)), tableprinter.WithColor(colorWith(newCount.Render)))
		tp.EndRow()
		tp.AddField("Fixed", tableprinter.WithColor(colorWith(s.Success.Render)))
		tp.AddField(strconv.Itoa(len(c.FixedFailures)), tableprinter.WithColor(colorWith(s.Success.Render)))
		tp.EndRow()
		tp.AddField("Still Failing", tableprinter.WithColor(colorWith(s.Warning.Render)))
		tp.AddField(strconv.Itoa(len(c.StillFailing)), tableprinter.WithColor(colorWith(s.Warning.Render)))
		tp.EndRow()
	})
	r.printf("\n")

	if len(c.NewFailures) == 0 {
		r.printf("%s %s\n\n", s.Failure.Bold(true).Render("New Failures:"), s.Success.Render("✓ None!"))
	} else {
		comparisonSection(r, "New Failures", "These tests are now failing but passed in the comparison revision:", s.Failure, c.NewFailures)
	}

	if len(c.FixedFailures) == 0 {
		r.printf("%s %s\n\n", s.Success.Bold(true).Render("Fixed Failures:"), s.Muted.Render("None"))
	} else {
		comparisonSection(r, "Fixed Failures", "These tests were failing but now pass:", s.Success, c.FixedFailures)
	}

	if len(c.StillFailing) > 0 {
		comparisonSection(r, "Still Failing", "These tests fail in both revisions:", s.Warning, c.StillFailing)
	}
	return r.flush(w)
}

func comparisonSection(r *report, heading, caption string, style lipgloss.Style, failures []model.ComparisonFailure) {
	r.printf("%s (%s)\n", r.s.Title.UnsetUnderline().Render(heading), text.Pluralize(len(failures), "test"))
	r.printf("%s\n\n", r.s.Muted.Render(caption))
	r.table([]string{"Test", "Platforms"}, func(tp tableprinter.TablePrinter) {
		for _, f := range failures {
			tp.AddField(f.TestName, tableprinter.WithColor(colorWith(style.Render)))
			tp.AddField(strings.Join(f.Platforms, ", "))
			tp.EndRow()
		}
	})
	r.printf("\n")
}

func (t *TextRenderer) Perf(w io.Writer, rep model.PerfReport) error {
	r := t.newReport(w)
	s := r.s

	r.title("Performance Data")
	r.field("Revision:", rep.Revision)
	r.field("Push ID:", strconv.FormatInt(rep.PushID, 10))
	r.printf("\n")

	shown := 0
	for _, j := range rep.Jobs {
		if j.PerfData == nil {
			continue
		}
		shown++
		r.printf("%s %s\n", s.Info.Render(bullet), s.Title.UnsetUnderline().Render(j.JobTypeName))
		r.printf("  %s %s | %s %s\n", s.Muted.Render("Platform:"), s.Info.Render(j.Platform),
			s.Muted.Render("Job ID:"), s.Info.Render(strconv.FormatInt(j.JobID, 10)))
		r.printf("  %s %s\n\n", s.Muted.Render("Framework:"), s.Warning.Render(j.PerfData.Framework.Name))

		if len(j.PerfData.Suites) > 0 {
			r.table([]string{"Suite", "Metric", "Value"}, func(tp tableprinter.TablePrinter) {
				for _, suite := range j.PerfData.Suites {
					for _, sub := range suite.Subtests {
						tp.AddField(suite.Name)
						tp.AddField(sub.Name)
						tp.AddField(fmt.Sprintf("%.2f", sub.Value), tableprinter.WithColor(colorWith(s.Info.Render)))
						tp.EndRow()
					}
				}
			})
		}
		r.printf("\n")
	}

	if shown == 0 {
		r.printf("%s\n", s.Muted.Render("No performance data available for selected jobs"))
	}
	return r.flush(w)
}

func (t *TextRenderer) Artifacts(w io.Writer, rep model.ArtifactReport) error {
	r := t.newReport(w)
	r.printf("\n## Artifacts Downloaded\n\n")
	r.printf("**Revision:** `%s`\n", rep.Revision)
	r.printf("**Output directory:** `%s`\n", rep.ArtifactDir)
	r.printf("**Total files:** %d\n", rep.TotalFiles)
	return r.flush(w)
}

func (t *TextRenderer) SimilarHistory(w io.Writer, h model.SimilarJobHistory) error {
	r := t.newReport(w)
	s := r.s

	r.title("Similar Job History")
	r.field("Job ID:", strconv.FormatInt(h.JobID, 10))
	r.field("Job Type:", h.JobTypeName)
	r.field("Repository:", h.Repo)
	r.field("Total Jobs:", strconv.Itoa(h.TotalJobs))
	r.printf("%s %s (%s pass, %s fail)\n\n",
		s.Info.Bold(true).Render("Pass Rate:"),
		s.PassRate(h.PassRate).Render(fmt.Sprintf("%.1f%%", h.PassRate)),
		s.Success.Render(strconv.Itoa(h.PassCount)),
		s.Failure.Render(strconv.Itoa(h.FailCount)))

	r.printf("%s\n\n", s.Title.UnsetUnderline().Render("Recent Results"))
	r.table([]string{"Push ID", "Result", "Platform"}, func(tp tableprinter.TablePrinter) {
		for _, j := range h.Jobs {
			tp.AddField(strconv.FormatInt(j.PushID, 10))
			tp.AddField(string(j.Result), tableprinter.WithColor(colorWith(s.Result(j.Result).Render)))
			tp.AddField(j.Platform)
			tp.EndRow()
		}
	})
	return r.flush(w)
}
