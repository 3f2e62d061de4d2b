package watch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altin/treeherder-cli/internal/model"
)

func jobs(states ...model.JobState) []model.Job {
	out := make([]model.Job, len(states))
	for i, s := range states {
		out[i] = model.Job{ID: int64(i + 1), State: s, Result: model.ResultUnknown}
	}
	return out
}

func TestCount(t *testing.T) {
	c := Count(jobs(model.StateCompleted, model.StateRunning, model.StatePending, model.StatePending, "other"))
	assert.Equal(t, Counts{Completed: 1, Running: 1, Pending: 2}, c)
	assert.Equal(t, "Jobs: 1 completed, 1 running, 2 pending", c.String())
}

func TestAllComplete(t *testing.T) {
	assert.True(t, AllComplete(nil))
	assert.True(t, AllComplete(jobs(model.StateCompleted, model.StateCompleted)))
	assert.False(t, AllComplete(jobs(model.StateCompleted, model.StateRunning)))
}

func TestSummary(t *testing.T) {
	js := jobs(model.StateCompleted, model.StateCompleted, model.StateCompleted)
	for i := range js {
		js[i].Result = model.ResultSuccess
	}
	assert.Equal(t, "All 3 jobs passed!", Summary(js))

	js[1].Result = model.ResultTestFailed
	js[2].Result = model.ResultBusted
	assert.Equal(t, "2 of 3 jobs failed", Summary(js))
}

func TestPollerWaitsUntilComplete(t *testing.T) {
	snapshots := [][]model.Job{
		jobs(model.StateCompleted, model.StateRunning),
		jobs(model.StateCompleted, model.StateCompleted),
	}
	var polls []Counts
	var slept []time.Duration
	fetches := 0

	p := &Poller{
		Interval: 5 * time.Minute,
		Fetch: func(context.Context) ([]model.Job, error) {
			next := snapshots[fetches]
			fetches++
			return next, nil
		},
		OnPoll: func(c Counts) { polls = append(polls, c) },
		Sleep: func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	got, err := p.Wait(context.Background(), jobs(model.StatePending, model.StatePending))
	require.NoError(t, err)
	assert.True(t, AllComplete(got))
	assert.Equal(t, 2, fetches)
	assert.Equal(t, []Counts{{Pending: 2}, {Completed: 1, Running: 1}}, polls)
	assert.Equal(t, []time.Duration{5 * time.Minute, 5 * time.Minute}, slept)
}

func TestPollerAlreadyComplete(t *testing.T) {
	p := &Poller{Fetch: func(context.Context) ([]model.Job, error) {
		t.Fatal("Fetch should not be called")
		return nil, nil
	}}
	got, err := p.Wait(context.Background(), jobs(model.StateCompleted))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPollerFetchError(t *testing.T) {
	boom := errors.New("boom")
	p := &Poller{
		Fetch: func(context.Context) ([]model.Job, error) { return nil, boom },
		Sleep: func(context.Context, time.Duration) error { return nil },
	}
	_, err := p.Wait(context.Background(), jobs(model.StateRunning))
	assert.ErrorIs(t, err, boom)
}

func TestPollerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Poller{
		Interval: time.Hour,
		Fetch:    func(context.Context) ([]model.Job, error) { return nil, nil },
	}
	_, err := p.Wait(ctx, jobs(model.StateRunning))
	assert.ErrorIs(t, err, context.Canceled)
}
