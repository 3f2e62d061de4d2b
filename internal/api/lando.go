package api

import (
	"context"
	"fmt"

	"github.com/altin/treeherder-cli/internal/model"
)

func (c *Client) GetLandingJob(ctx context.Context, id int64) (*model.LandingJob, error) {
	var job model.LandingJob
	if err := c.getJSON(ctx, fmt.Sprintf("get landing job %d", id), c.landoURL("/landing_jobs/%d", id), &job); err != nil {
		return nil, err
	}
	if job.ID != id {
		return nil, fmt.Errorf("%w: Lando API returned unexpected job ID: expected %d, got %d",
			model.ErrUnexpectedResponse, id, job.ID)
	}
	return &job, nil
}

// CommitFromLandingJob resolves a landing job to the revision it landed.
func (c *Client) CommitFromLandingJob(ctx context.Context, id int64) (string, error) {
	job, err := c.GetLandingJob(ctx, id)
	if err != nil {
		return "", err
	}
	return LandedCommit(*job)
}

// LandedCommit returns the commit of a landing job that reached LANDED.
func LandedCommit(job model.LandingJob) (string, error) {
	if job.Status != model.LandingStatusLanded {
		return "", fmt.Errorf("%w: Lando job %d has not landed yet (status: %s). Only LANDED jobs have commit IDs",
			model.ErrNotLanded, job.ID, job.Status)
	}
	if job.CommitID == "" {
		return "", fmt.Errorf("%w: Lando job %d is marked as LANDED but has no commit_id",
			model.ErrMissingCommitID, job.ID)
	}
	return job.CommitID, nil
}
