package ops

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/altin/treeherder-cli/internal/model"
)

// MatchFilter selects jobs by result before any other filter applies.
type MatchFilter string

const (
	MatchFailure MatchFilter = "failure"
	MatchSuccess MatchFilter = "success"
	MatchAll     MatchFilter = "all"
)

func ParseMatchFilter(s string) (MatchFilter, error) {
	switch m := MatchFilter(strings.ToLower(s)); m {
	case MatchFailure, MatchSuccess, MatchAll:
		return m, nil
	case "":
		return MatchFailure, nil
	}
	return "", fmt.Errorf("%w: --match-filter must be one of failure, success, all (got %q)", model.ErrInvalidInput, s)
}

func (m MatchFilter) Matches(j model.Job) bool {
	switch m {
	case MatchSuccess:
		return j.Result == model.ResultSuccess
	case MatchAll:
		return true
	default:
		return j.Failed()
	}
}

// JobFilter is the chain applied to a push's job list.
type JobFilter struct {
	Match MatchFilter
	// Name is a plain substring of the job type name.
	Name string
	// Platform is matched against the platform string.
	Platform *regexp.Regexp
	// MinDuration excludes jobs shorter than this many seconds, and jobs
	// without a duration. Zero disables it.
	MinDuration         int64
	IncludeIntermittent bool
}

// FilterJobs narrows jobs through f, preserving order.
func FilterJobs(jobs []model.Job, f JobFilter) []model.Job {
	matched := make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		if !f.Match.Matches(j) {
			continue
		}
		if f.Name != "" && !strings.Contains(j.JobTypeName, f.Name) {
			continue
		}
		if f.Platform != nil && !f.Platform.MatchString(j.Platform) {
			continue
		}
		if f.MinDuration > 0 && (j.Duration == nil || *j.Duration < f.MinDuration) {
			continue
		}
		if !f.IncludeIntermittent && j.Intermittent() {
			continue
		}
		matched = append(matched, j)
	}
	return matched
}

// CompileRegexp compiles an optional user pattern; an empty pattern yields nil.
func CompileRegexp(flag, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidInput, flag, err)
	}
	return re, nil
}
