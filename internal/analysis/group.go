// Package analysis reduces fetched jobs into grouped, compared and
// historical views. Nothing here touches the network or the disk.
package analysis

import (
	"sort"

	"github.com/altin/treeherder-cli/internal/model"
)

// GroupByTest collects every error naming a test under that test. Groups
// seen on more platforms come first; ties are ordered by test name.
func GroupByTest(jobs []model.JobWithLogs) []model.GroupedTestFailure {
	byTest := make(map[string][]model.GroupedJobInfo)
	for _, jwl := range jobs {
		for _, e := range jwl.Errors {
			if e.Test == "" {
				continue
			}
			byTest[e.Test] = append(byTest[e.Test], model.GroupedJobInfo{
				JobID:       jwl.Job.ID,
				Platform:    jwl.Job.Platform,
				JobTypeName: jwl.Job.JobTypeName,
				Subtest:     e.Subtest,
				Message:     e.Message,
			})
		}
	}

	grouped := make([]model.GroupedTestFailure, 0, len(byTest))
	for test, infos := range byTest {
		set := make(map[string]struct{}, len(infos))
		for _, info := range infos {
			set[info.Platform] = struct{}{}
		}
		grouped = append(grouped, model.GroupedTestFailure{
			TestName:  test,
			Platforms: sortedKeys(set),
			Jobs:      infos,
		})
	}

	sort.Slice(grouped, func(i, j int) bool {
		if len(grouped[i].Platforms) != len(grouped[j].Platforms) {
			return len(grouped[i].Platforms) > len(grouped[j].Platforms)
		}
		return grouped[i].TestName < grouped[j].TestName
	})
	return grouped
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
