package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/altin/treeherder-cli/internal/model"
)

// PerfArtifactName is the resource-usage artifact uploaded by test tasks.
const PerfArtifactName = "public/test_info/perfherder-data-resource-usage.json"

type PerfResourceKind int

const (
	PerfPayload PerfResourceKind = iota
	PerfRedirect
)

// PerfResource is what the artifact endpoint returns: either the payload
// itself or a pointer to where the payload lives.
type PerfResource struct {
	Kind        PerfResourceKind
	RedirectURL string
	Payload     model.PerfherderData
}

// DecodePerfResource tries the pointer shape first and falls back to the
// payload shape.
func DecodePerfResource(data []byte) (PerfResource, error) {
	var pointer struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &pointer); err != nil {
		return PerfResource{}, fmt.Errorf("decode perf resource: %w", err)
	}
	if pointer.URL != "" {
		return PerfResource{Kind: PerfRedirect, RedirectURL: pointer.URL}, nil
	}

	var payload model.PerfherderData
	if err := json.Unmarshal(data, &payload); err != nil {
		return PerfResource{}, fmt.Errorf("decode perf payload: %w", err)
	}
	if payload.Framework.Name == "" && len(payload.Suites) == 0 {
		return PerfResource{}, fmt.Errorf("decode perf payload: no framework or suites")
	}
	return PerfResource{Kind: PerfPayload, Payload: payload}, nil
}

// PerfData fetches the resource-usage data of a task run, resolving one
// level of redirect.
func (c *Client) PerfData(ctx context.Context, taskID string, retryID int64) (*model.PerfherderData, error) {
	data, err := c.getBytes(ctx, "fetch perf data", c.artifactURL(taskID, retryID, PerfArtifactName))
	if err != nil {
		return nil, err
	}
	res, err := DecodePerfResource(data)
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case PerfRedirect:
		var payload model.PerfherderData
		if err := c.getJSON(ctx, "fetch redirected perf data", res.RedirectURL, &payload); err != nil {
			return nil, err
		}
		return &payload, nil
	default:
		return &res.Payload, nil
	}
}
