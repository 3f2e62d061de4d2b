package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/altin/treeherder-cli/internal/model"
)

type PushFilter struct {
	Revision string
	Count    int
}

func (f PushFilter) QueryString() string {
	v := url.Values{}
	v.Set("full", "true")
	if f.Count > 0 {
		v.Set("count", fmt.Sprint(f.Count))
	} else {
		v.Set("count", "10")
	}
	if f.Revision != "" {
		v.Set("revision", f.Revision)
	}
	return "?" + v.Encode()
}

// PushID returns the id of the first push matching revision in repo.
func (c *Client) PushID(ctx context.Context, repo, revision string) (int64, error) {
	var resp model.PushResponse
	path := c.treeherderURL("/project/%s/push/%s", url.PathEscape(repo), PushFilter{Revision: revision}.QueryString())
	if err := c.getJSON(ctx, fmt.Sprintf("get push for revision %s", revision), path, &resp); err != nil {
		return 0, err
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("%w: no push found for revision %s in %s", model.ErrUnexpectedResponse, revision, repo)
	}
	return resp.Results[0].ID, nil
}
