package ops

import (
	"context"
	"sync"

	"github.com/altin/treeherder-cli/internal/model"
)

// Concurrency caps per batch kind.
const (
	DetailConcurrency   = 10
	LogConcurrency      = 5
	PerfConcurrency     = 5
	ArtifactConcurrency = 3
)

type EventKind int

const (
	// EventDone and EventFailed are emitted exactly once per item.
	EventDone EventKind = iota
	EventFailed
	// EventWarning reports a recovered problem inside an item.
	EventWarning
)

// Event is a diagnostic emitted from inside a batch. Tasks never print;
// the caller drains events and decides how to surface them.
type Event struct {
	Kind    EventKind
	Job     model.Job
	Err     error
	Message string
}

// Emit publishes a warning about the job currently being processed.
type Emit func(msg string, err error)

// Task processes one job.
type Task[R any] func(ctx context.Context, job model.Job, emit Emit) (R, error)

// Run executes task over jobs with at most limit in flight. Failing items
// are dropped from the result; the rest are returned in input order. Every
// item produces exactly one EventDone or EventFailed on events, which may be
// nil. Run does not close events.
func Run[R any](ctx context.Context, jobs []model.Job, limit int, task Task[R], events chan<- Event) []R {
	if limit < 1 {
		limit = 1
	}
	send := func(ev Event) {
		if events != nil {
			events <- ev
		}
	}

	type slot struct {
		val R
		ok  bool
	}
	slots := make([]slot, len(jobs))

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job model.Job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				send(Event{Kind: EventFailed, Job: job, Err: err})
				return
			}

			emit := func(msg string, err error) {
				send(Event{Kind: EventWarning, Job: job, Message: msg, Err: err})
			}
			val, err := task(ctx, job, emit)
			if err != nil {
				send(Event{Kind: EventFailed, Job: job, Err: err})
				return
			}
			// each goroutine owns its slot
			slots[i] = slot{val: val, ok: true}
			send(Event{Kind: EventDone, Job: job})
		}(i, job)
	}
	wg.Wait()

	results := make([]R, 0, len(jobs))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.val)
		}
	}
	return results
}
