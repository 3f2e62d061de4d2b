package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/table"
)

// ListJobs fetches the job table of a push and normalizes it.
func (c *Client) ListJobs(ctx context.Context, pushID int64) ([]model.Job, error) {
	var resp model.JobsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("list jobs for push %d", pushID), c.treeherderURL("/jobs/?push_id=%d", pushID), &resp); err != nil {
		return nil, err
	}
	return NormalizeJobs(resp), nil
}

// NormalizeJobs resolves each row of the job table by column name. Rows
// lacking any required column, or carrying it with the wrong type, are
// skipped.
func NormalizeJobs(resp model.JobsResponse) []model.Job {
	schema := table.NewSchema(resp.PropertyNames)
	jobs := make([]model.Job, 0, len(resp.Results))
	for _, values := range resp.Results {
		if job, ok := normalizeRow(schema.Row(values)); ok {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

func normalizeRow(row table.Row) (model.Job, bool) {
	id, ok := row.Int("id")
	if !ok {
		return model.Job{}, false
	}
	var required [5]string
	for i, name := range []string{"job_type_name", "job_type_symbol", "platform", "result", "state"} {
		s, ok := row.String(name)
		if !ok {
			return model.Job{}, false
		}
		required[i] = s
	}
	return model.Job{
		ID:                      id,
		JobTypeName:             required[0],
		JobTypeSymbol:           required[1],
		Platform:                required[2],
		Result:                  model.JobResult(required[3]),
		State:                   model.JobState(required[4]),
		PlatformOption:          row.StringOr("platform_option", ""),
		Duration:                row.IntPtr("duration"),
		FailureClassificationID: row.IntPtr("failure_classification_id"),
	}, true
}

func (c *Client) GetJobDetail(ctx context.Context, repo string, jobID int64) (*model.JobDetail, error) {
	var detail model.JobDetail
	path := c.treeherderURL("/project/%s/jobs/%d/", url.PathEscape(repo), jobID)
	if err := c.getJSON(ctx, fmt.Sprintf("get job %d", jobID), path, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SimilarJobs returns the recent executions of the same job type.
func (c *Client) SimilarJobs(ctx context.Context, repo string, jobID int64, count int) (*model.SimilarJobsResponse, error) {
	var resp model.SimilarJobsResponse
	path := c.treeherderURL("/project/%s/jobs/%d/similar_jobs/?count=%d", url.PathEscape(repo), jobID, count)
	if err := c.getJSON(ctx, fmt.Sprintf("list similar jobs for job %d", jobID), path, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []model.SimilarJob{}
	}
	return &resp, nil
}
