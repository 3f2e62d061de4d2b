package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/altin/treeherder-cli/internal/model"
)

// ListArtifacts returns every artifact of a task run, following
// continuation tokens.
func (c *Client) ListArtifacts(ctx context.Context, taskID string, retryID int64) ([]model.Artifact, error) {
	base := c.taskclusterURL("/task/%s/runs/%d/artifacts", url.PathEscape(taskID), retryID)
	op := fmt.Sprintf("list artifacts for task %s run %d", taskID, retryID)

	var all []model.Artifact
	next := base
	for {
		var resp model.ArtifactsResponse
		if err := c.getJSON(ctx, op, next, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Artifacts...)
		if resp.ContinuationToken == "" {
			return all, nil
		}
		next = base + "?continuationToken=" + url.QueryEscape(resp.ContinuationToken)
	}
}

// DownloadArtifact streams one artifact into w. Artifact names keep their
// slashes in the URL path.
func (c *Client) DownloadArtifact(ctx context.Context, taskID string, retryID int64, name string, w io.Writer) (int64, error) {
	return c.download(ctx, fmt.Sprintf("download artifact %s", name), c.artifactURL(taskID, retryID, name), w)
}

func (c *Client) artifactURL(taskID string, retryID int64, name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return c.taskclusterURL("/task/%s/runs/%d/artifacts/%s", url.PathEscape(taskID), retryID, strings.Join(parts, "/"))
}
