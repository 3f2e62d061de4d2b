// Package watch polls a push until every job has finished.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/altin/treeherder-cli/internal/model"
)

const NotificationTitle = "Treeherder Jobs Complete"

type Counts struct {
	Completed int
	Running   int
	Pending   int
}

func (c Counts) String() string {
	return fmt.Sprintf("Jobs: %d completed, %d running, %d pending", c.Completed, c.Running, c.Pending)
}

func Count(jobs []model.Job) Counts {
	var c Counts
	for _, j := range jobs {
		switch j.State {
		case model.StateCompleted:
			c.Completed++
		case model.StateRunning:
			c.Running++
		case model.StatePending:
			c.Pending++
		}
	}
	return c
}

// AllComplete reports whether every job is completed. An empty push is
// complete.
func AllComplete(jobs []model.Job) bool {
	for _, j := range jobs {
		if !j.Completed() {
			return false
		}
	}
	return true
}

// Summary is the notification body for a finished push.
func Summary(jobs []model.Job) string {
	completed := Count(jobs).Completed
	failed := 0
	for _, j := range jobs {
		if j.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Sprintf("%d of %d jobs failed", failed, completed)
	}
	return fmt.Sprintf("All %d jobs passed!", completed)
}

// Poller re-fetches the job list on a fixed interval. Polls never overlap.
type Poller struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) ([]model.Job, error)
	// OnPoll is called with the counts of each incomplete snapshot before
	// sleeping.
	OnPoll func(Counts)
	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Wait returns the first snapshot in which every job is completed, starting
// from initial. A fetch error ends the wait.
func (p *Poller) Wait(ctx context.Context, initial []model.Job) ([]model.Job, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	jobs := initial
	for !AllComplete(jobs) {
		if p.OnPoll != nil {
			p.OnPoll(Count(jobs))
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return jobs, err
		}
		next, err := p.Fetch(ctx)
		if err != nil {
			return jobs, fmt.Errorf("poll jobs: %w", err)
		}
		jobs = next
	}
	return jobs, nil
}

func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
