package ops

import (
	"errors"
	"regexp"
	"testing"

	"github.com/altin/treeherder-cli/internal/model"
)

func dur(v int64) *int64 { return &v }

func TestFilterJobs(t *testing.T) {
	jobs := []model.Job{
		{ID: 1, JobTypeName: "test-linux64/opt-mochitest-1", Platform: "linux64", Result: model.ResultTestFailed, Duration: dur(600)},
		{ID: 2, JobTypeName: "test-windows11/opt-mochitest-1", Platform: "windows11-64", Result: model.ResultBusted, Duration: dur(100)},
		{ID: 3, JobTypeName: "build-linux64/opt", Platform: "linux64", Result: model.ResultSuccess, Duration: dur(1800)},
		{ID: 4, JobTypeName: "test-linux64/opt-xpcshell", Platform: "linux64", Result: model.ResultTestFailed, FailureClassificationID: dur(4)},
		{ID: 5, JobTypeName: "test-macosx/opt-reftest", Platform: "macosx1015-64", Result: model.ResultUnknown},
	}

	tests := []struct {
		name   string
		filter JobFilter
		want   []int64
	}{
		{name: "default failure", filter: JobFilter{Match: MatchFailure}, want: []int64{1, 2}},
		{name: "failure with intermittent", filter: JobFilter{Match: MatchFailure, IncludeIntermittent: true}, want: []int64{1, 2, 4}},
		{name: "success", filter: JobFilter{Match: MatchSuccess}, want: []int64{3}},
		{name: "all", filter: JobFilter{Match: MatchAll}, want: []int64{1, 2, 3, 5}},
		{name: "by name", filter: JobFilter{Match: MatchAll, Name: "mochitest"}, want: []int64{1, 2}},
		{name: "by platform", filter: JobFilter{Match: MatchAll, Platform: regexp.MustCompile(`^linux`)}, want: []int64{1, 3}},
		{name: "by duration", filter: JobFilter{Match: MatchAll, MinDuration: 600}, want: []int64{1, 3}},
		{name: "combined", filter: JobFilter{Match: MatchFailure, Name: "test", Platform: regexp.MustCompile("windows")}, want: []int64{2}},
		{name: "no match", filter: JobFilter{Match: MatchAll, Name: "nonexistent"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterJobs(jobs, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("FilterJobs() returned %d jobs, want %d", len(got), len(tt.want))
			}
			for i, j := range got {
				if j.ID != tt.want[i] {
					t.Errorf("FilterJobs()[%d].ID = %d, want %d", i, j.ID, tt.want[i])
				}
			}
		})
	}
}

func TestParseMatchFilter(t *testing.T) {
	for in, want := range map[string]MatchFilter{"": MatchFailure, "failure": MatchFailure, "ALL": MatchAll, "success": MatchSuccess} {
		got, err := ParseMatchFilter(in)
		if err != nil || got != want {
			t.Errorf("ParseMatchFilter(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseMatchFilter("flaky"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("ParseMatchFilter(flaky) = %v, want ErrInvalidInput", err)
	}
}

func TestCompileRegexp(t *testing.T) {
	re, err := CompileRegexp("--pattern", "")
	if re != nil || err != nil {
		t.Errorf("CompileRegexp(empty) = %v, %v, want nil, nil", re, err)
	}
	if _, err := CompileRegexp("--pattern", "(unclosed"); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("CompileRegexp(bad) = %v, want ErrInvalidInput", err)
	}
}
