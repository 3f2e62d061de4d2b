package analysis

import (
	"sort"

	"github.com/altin/treeherder-cli/internal/model"
)

// failureKey identifies one failure: the same test on two platforms is two
// failures.
type failureKey struct {
	test     string
	platform string
}

type failureSet map[failureKey]struct{}

// failures collects the (test, platform) pairs of every error of every job
// that did not succeed.
func failures(jobs []model.JobWithLogs) failureSet {
	set := make(failureSet)
	for _, jwl := range jobs {
		if jwl.Job.Result == model.ResultSuccess {
			continue
		}
		for _, e := range jwl.Errors {
			if e.Test == "" {
				continue
			}
			set[failureKey{test: e.Test, platform: jwl.Job.Platform}] = struct{}{}
		}
	}
	return set
}

// Compare diffs the failures of base against compare. New failures appear
// only in base, fixed ones only in compare.
func Compare(base, compare []model.JobWithLogs, baseRevision, compareRevision string, basePushID, comparePushID int64) model.ComparisonResult {
	baseSet := failures(base)
	compareSet := failures(compare)

	newSet, stillSet, fixedSet := make(failureSet), make(failureSet), make(failureSet)
	for k := range baseSet {
		if _, ok := compareSet[k]; ok {
			stillSet[k] = struct{}{}
		} else {
			newSet[k] = struct{}{}
		}
	}
	for k := range compareSet {
		if _, ok := baseSet[k]; !ok {
			fixedSet[k] = struct{}{}
		}
	}

	return model.ComparisonResult{
		BaseRevision:    baseRevision,
		CompareRevision: compareRevision,
		BasePushID:      basePushID,
		ComparePushID:   comparePushID,
		NewFailures:     byTest(newSet),
		FixedFailures:   byTest(fixedSet),
		StillFailing:    byTest(stillSet),
	}
}

// byTest regroups a failure set by test name, sorted by name.
func byTest(set failureSet) []model.ComparisonFailure {
	platforms := make(map[string]map[string]struct{})
	for k := range set {
		if platforms[k.test] == nil {
			platforms[k.test] = make(map[string]struct{})
		}
		platforms[k.test][k.platform] = struct{}{}
	}

	out := make([]model.ComparisonFailure, 0, len(platforms))
	for test, ps := range platforms {
		out = append(out, model.ComparisonFailure{TestName: test, Platforms: sortedKeys(ps)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TestName < out[j].TestName })
	return out
}
