package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/altin/treeherder-cli/internal/model"
)

func plainText(stack bool) *TextRenderer {
	return NewTextRenderer(Options{TTY: true, Width: 200, ShowStackTraces: stack})
}

func sampleJobs() model.JobsReport {
	failed := model.NewJobWithLogs(model.Job{
		ID: 101, JobTypeName: "test-linux1804-64/opt-mochitest-1", JobTypeSymbol: "M(1)",
		Platform: "linux1804-64", Result: model.ResultTestFailed, State: model.StateCompleted,
	})
	failed.Errors = []model.ErrorLine{
		{
			Action: model.ActionTestResult, Test: "dom/tests/test_a.html", Subtest: "checks",
			Status: model.StatusFail, Message: "assertion failed Stack trace:\nframe1\n  frame2\n",
		},
		{Action: model.ActionTestResult, Test: "dom/tests/test_b.html", Status: model.StatusFail, Stack: "explicit@x.js:1"},
	}
	passed := model.NewJobWithLogs(model.Job{
		ID: 102, JobTypeName: "test-linux1804-64/opt-xpcshell", JobTypeSymbol: "X",
		Platform: "linux1804-64", Result: model.ResultSuccess, State: model.StateCompleted,
	})
	return model.JobsReport{Revision: "abc123", PushID: 77, Jobs: []model.JobWithLogs{failed, passed}}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "json": FormatJSON, " yaml ": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestTextJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainText(true).Jobs(&buf, sampleJobs()))
	out := buf.String()

	for _, want := range []string{
		"Treeherder Test Results Summary",
		"Revision: abc123",
		"Push ID: 77",
		"Failed Jobs (1 failure)",
		"Job ID", "Errors",
		"▶ test-linux1804-64/opt-mochitest-1 - linux1804-64",
		"ID: 101 | Symbol: M(1) | Result: testfailed",
		"assertion failed",
		"Stack trace for dom/tests/test_a.html:",
		"    frame1\n    frame2\n",
		"Stack trace for dom/tests/test_b.html:",
		"    explicit@x.js:1",
		"No error summary available",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "plain renderer should not emit escapes")
	assert.NotContains(t, out, "Pattern Matches")
}

func TestTextJobsWithoutStackTraces(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainText(false).Jobs(&buf, sampleJobs()))
	assert.NotContains(t, buf.String(), "Stack trace for")
	assert.NotContains(t, buf.String(), "frame1", "message column stops before the stack trace")
}

func TestTextJobsHeadings(t *testing.T) {
	running := model.NewJobWithLogs(model.Job{ID: 1, Result: model.ResultUnknown, State: model.StateRunning})
	done := model.NewJobWithLogs(model.Job{ID: 2, Result: model.ResultSuccess, State: model.StateCompleted})

	var buf bytes.Buffer
	require.NoError(t, plainText(true).Jobs(&buf, model.JobsReport{Jobs: []model.JobWithLogs{running, done}}))
	assert.Contains(t, buf.String(), "Jobs (2 total, 1 pending/running)")

	buf.Reset()
	require.NoError(t, plainText(true).Jobs(&buf, model.JobsReport{Jobs: []model.JobWithLogs{done}}))
	assert.Contains(t, buf.String(), "Jobs (1)")

	buf.Reset()
	require.NoError(t, plainText(true).Jobs(&buf, model.JobsReport{}))
	assert.Contains(t, buf.String(), "✓ No jobs found matching criteria!")
}

func TestTextJobsLogMatchesAndStorage(t *testing.T) {
	jwl := model.NewJobWithLogs(model.Job{ID: 5, JobTypeName: "build", Result: model.ResultBusted, State: model.StateCompleted})
	jwl.LogDir = "/tmp/cache/job_5"
	for i := 1; i <= 12; i++ {
		jwl.LogMatches = append(jwl.LogMatches, model.LogMatch{
			LogName: "live_backing_log", LineNumber: i, LineContent: fmt.Sprintf("error %d %s", i, strings.Repeat("x", 200)),
		})
	}
	rep := model.JobsReport{
		Revision: "r", PushID: 1, Jobs: []model.JobWithLogs{jwl}, LogsFetched: true,
		Storage: &model.LogStorage{Dir: "/tmp/cache", MetadataPath: "/tmp/cache/metadata.json"},
	}

	var buf bytes.Buffer
	require.NoError(t, plainText(true).Jobs(&buf, rep))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Metadata saved to: /tmp/cache/metadata.json"))
	assert.Contains(t, out, "Logs: /tmp/cache/job_5")
	assert.Contains(t, out, "Pattern Matches (12 matches):")
	assert.Contains(t, out, "live_backing_log:10 error 10")
	assert.NotContains(t, out, "live_backing_log:11 ")
	assert.Contains(t, out, "... and 2 more matches (see log files)")
	assert.NotContains(t, out, strings.Repeat("x", 100), "matches are truncated")
	assert.NotContains(t, out, "No error summary available")
	assert.Contains(t, out, "Logs are stored persistently in: /tmp/cache")
	assert.Contains(t, out, "Use --use-cache --cache-dir /tmp/cache to query these logs later.")

	buf.Reset()
	rep.Storage = &model.LogStorage{Dir: "/tmp/th-123", Temporary: true}
	require.NoError(t, plainText(true).Jobs(&buf, rep))
	assert.Contains(t, buf.String(), "Logs are stored in temporary directory: /tmp/th-123")
	assert.Contains(t, buf.String(), "The directory will be automatically cleaned up when the program exits.")
}

func TestTextNoJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainText(true).NoJobs(&buf, "r", 1))
	assert.Equal(t, "No jobs found matching the specified criteria\n", buf.String())
}

func TestTextGrouped(t *testing.T) {
	rep := model.GroupedReport{
		Revision: "r", PushID: 9,
		GroupedFailures: []model.GroupedTestFailure{
			{
				TestName:  "test_a.html",
				Platforms: []string{"linux64", "windows11"},
				Jobs: []model.GroupedJobInfo{
					{JobID: 1, Platform: "linux64", JobTypeName: "mochitest-1", Message: strings.Repeat("m", 80)},
					{JobID: 2, Platform: "windows11", JobTypeName: "mochitest-1", Subtest: "sub"},
				},
			},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, plainText(true).Grouped(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "Treeherder Test Results - Grouped by Test")
	assert.Contains(t, out, "Test Failures (1 unique test)")
	assert.Contains(t, out, "Affected on 2 platforms: linux64, windows11")
	assert.NotContains(t, out, strings.Repeat("m", 51))

	buf.Reset()
	require.NoError(t, plainText(true).Grouped(&buf, model.GroupedReport{}))
	assert.Contains(t, buf.String(), "✓ No test failures found!")
}

func TestTextComparison(t *testing.T) {
	c := model.ComparisonResult{
		BaseRevision: "base", CompareRevision: "other",
		NewFailures:  []model.ComparisonFailure{{TestName: "T1", Platforms: []string{"linux64", "mac"}}},
		StillFailing: []model.ComparisonFailure{{TestName: "T3", Platforms: []string{"win"}}},
	}
	var buf bytes.Buffer
	require.NoError(t, plainText(true).Comparison(&buf, c))
	out := buf.String()
	assert.Contains(t, out, "Base revision: base")
	assert.Contains(t, out, "Comparing to: other")
	assert.Contains(t, out, "New Failures (1 test)")
	assert.Contains(t, out, "These tests are now failing but passed in the comparison revision:")
	assert.Contains(t, out, "linux64, mac")
	assert.Contains(t, out, "Fixed Failures: None")
	assert.Contains(t, out, "Still Failing (1 test)")

	buf.Reset()
	require.NoError(t, plainText(true).Comparison(&buf, model.ComparisonResult{}))
	assert.Contains(t, buf.String(), "New Failures: ✓ None!")
	assert.NotContains(t, buf.String(), "These tests fail in both revisions:")
}

func TestTextPerf(t *testing.T) {
	rep := model.PerfReport{
		Revision: "r", PushID: 3,
		Jobs: []model.JobPerfData{
			{JobID: 1, JobTypeName: "talos", Platform: "linux64", PerfData: &model.PerfherderData{
				Framework: model.PerfherderFramework{Name: "job_resource_usage"},
				Suites: []model.PerfherderSuite{{Name: "cpu", Subtests: []model.PerfherderSubtest{
					{Name: "cpu_percent", Value: 42.25},
				}}},
			}},
			{JobID: 2, JobTypeName: "no-data"},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, plainText(true).Perf(&buf, rep))
	out := buf.String()
	assert.Contains(t, out, "Framework: job_resource_usage")
	assert.Contains(t, out, "42.25")
	assert.NotContains(t, out, "no-data")

	buf.Reset()
	require.NoError(t, plainText(true).Perf(&buf, model.PerfReport{Jobs: []model.JobPerfData{{JobID: 2}}}))
	assert.Contains(t, buf.String(), "No performance data available for selected jobs")
}

func TestTextArtifacts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, plainText(true).Artifacts(&buf, model.ArtifactReport{Revision: "r1", ArtifactDir: "artifacts-r1", TotalFiles: 4}))
	assert.Equal(t, "\n## Artifacts Downloaded\n\n**Revision:** `r1`\n**Output directory:** `artifacts-r1`\n**Total files:** 4\n", buf.String())
}

func TestTextSimilarHistory(t *testing.T) {
	h := model.SimilarJobHistory{
		JobID: 42, JobTypeName: "xpcshell", Repo: "autoland", TotalJobs: 10, PassCount: 7, FailCount: 3, PassRate: 70,
		Jobs: []model.SimilarJob{{ID: 1, PushID: 555, Result: model.ResultSuccess, Platform: "linux64"}},
	}
	var buf bytes.Buffer
	require.NoError(t, plainText(true).SimilarHistory(&buf, h))
	out := buf.String()
	assert.Contains(t, out, "Pass Rate: 70.0% (7 pass, 3 fail)")
	assert.Contains(t, out, "Repository: autoland")
	assert.Contains(t, out, "555")
}

func TestTextColorTableHeader(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(Options{TTY: true, Color: true, Width: 200})
	require.NoError(t, r.Jobs(&buf, sampleJobs()))
	sep := `(?:\x1b\[[0-9;]*m|\s)+`
	assert.Regexp(t, "Job ID"+sep+"Job Type"+sep+"Platform"+sep+"Result"+sep+"Errors", buf.String())
}

func TestTextNonTTYTables(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(Options{})
	require.NoError(t, r.Jobs(&buf, sampleJobs()))
	assert.Contains(t, buf.String(), "101\ttest-linux1804-64/opt-mochitest-1\tlinux1804-64\ttestfailed\t2\n")
}

func TestJSONJobsEnvelope(t *testing.T) {
	rep := sampleJobs()
	rep.Jobs[1].Errors = nil
	rep.LogsFetched = true

	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, Options{}).Jobs(&buf, rep))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "abc123", got["revision"])
	assert.Equal(t, float64(77), got["push_id"])
	assert.NotContains(t, got, "LogsFetched")

	jobs := got["jobs"].([]any)
	require.Len(t, jobs, 2)
	second := jobs[1].(map[string]any)
	assert.Equal(t, []any{}, second["errors"])
	assert.Equal(t, []any{}, second["log_matches"])
	assert.NotContains(t, second, "log_dir")
	assert.True(t, strings.HasPrefix(buf.String(), "{\n  \"revision\""))
}

func TestJSONNoJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, Options{}).NoJobs(&buf, "r", 5))
	assert.JSONEq(t, `{"revision":"r","push_id":5,"jobs":[]}`, buf.String())
}

func TestJSONOtherEnvelopes(t *testing.T) {
	r := New(FormatJSON, Options{})

	var buf bytes.Buffer
	require.NoError(t, r.Grouped(&buf, model.GroupedReport{Revision: "r", PushID: 1}))
	assert.JSONEq(t, `{"revision":"r","push_id":1,"grouped_failures":[]}`, buf.String())

	buf.Reset()
	require.NoError(t, r.Artifacts(&buf, model.ArtifactReport{Revision: "r", PushID: 1, ArtifactDir: "d", TotalFiles: 2}))
	assert.JSONEq(t, `{"revision":"r","push_id":1,"artifact_dir":"d","total_files":2}`, buf.String())

	buf.Reset()
	require.NoError(t, r.Perf(&buf, model.PerfReport{Revision: "r", PushID: 1, Jobs: []model.JobPerfData{{JobID: 3, JobTypeName: "t", Platform: "p"}}}))
	assert.JSONEq(t, `{"revision":"r","push_id":1,"jobs":[{"job_id":3,"job_type_name":"t","platform":"p","perf_data":null}]}`, buf.String())
}

func TestJSONColor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, Options{Color: true}).Artifacts(&buf, model.ArtifactReport{Revision: "r"}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestYAMLJobs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatYAML, Options{}).Jobs(&buf, sampleJobs()))

	var got struct {
		Revision string `yaml:"revision"`
		PushID   int64  `yaml:"push_id"`
		Jobs     []struct {
			Job struct {
				ID int64 `yaml:"id"`
			} `yaml:"job"`
			Errors []map[string]any `yaml:"errors"`
		} `yaml:"jobs"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "abc123", got.Revision)
	assert.Equal(t, int64(77), got.PushID)
	require.Len(t, got.Jobs, 2)
	assert.Equal(t, int64(101), got.Jobs[0].Job.ID)
	assert.Len(t, got.Jobs[0].Errors, 2)
	assert.NotContains(t, buf.String(), "logsfetched")
}

func TestStackTraceHelpers(t *testing.T) {
	assert.Equal(t, "boom", MessageSummary("  boom  Stack trace:\nf1"))
	assert.Equal(t, "plain", MessageSummary("plain"))

	stack, ok := StackTrace(model.ErrorLine{Message: "x Stack trace: a\nb"})
	assert.True(t, ok)
	assert.Equal(t, " a\nb", stack)

	stack, ok = StackTrace(model.ErrorLine{Message: "x Stack trace: a", Stack: "explicit"})
	assert.True(t, ok)
	assert.Equal(t, "explicit", stack)

	_, ok = StackTrace(model.ErrorLine{Message: "no trace"})
	assert.False(t, ok)
}
