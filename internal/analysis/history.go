package analysis

import "github.com/altin/treeherder-cli/internal/model"

// PassRate tallies successes and failures. Results other than success,
// testfailed and busted count toward the total only. rate is a percentage
// and is 0 for an empty list.
func PassRate(jobs []model.SimilarJob) (pass, fail int, rate float64) {
	for _, j := range jobs {
		switch {
		case j.Result == model.ResultSuccess:
			pass++
		case j.Result.Failed():
			fail++
		}
	}
	if len(jobs) > 0 {
		rate = float64(pass) / float64(len(jobs)) * 100
	}
	return pass, fail, rate
}

// History summarizes a similar-jobs response for jobID.
func History(jobID int64, resp model.SimilarJobsResponse) model.SimilarJobHistory {
	jobs := resp.Results
	if jobs == nil {
		jobs = []model.SimilarJob{}
	}
	pass, fail, rate := PassRate(jobs)

	h := model.SimilarJobHistory{
		JobID:     jobID,
		Repo:      resp.Meta.Repository,
		TotalJobs: len(jobs),
		PassCount: pass,
		FailCount: fail,
		PassRate:  rate,
		Jobs:      jobs,
	}
	if len(jobs) > 0 {
		h.JobTypeName = jobs[0].JobTypeName
	}
	return h
}
