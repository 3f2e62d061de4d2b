// Package pipeline runs one invocation end to end: resolve the push, list
// and filter its jobs, run the selected batch and render the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"github.com/cli/go-gh/v2/pkg/text"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/altin/treeherder-cli/internal/analysis"
	"github.com/altin/treeherder-cli/internal/api"
	"github.com/altin/treeherder-cli/internal/cache"
	"github.com/altin/treeherder-cli/internal/fetch"
	"github.com/altin/treeherder-cli/internal/logging"
	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/notify"
	"github.com/altin/treeherder-cli/internal/ops"
	"github.com/altin/treeherder-cli/internal/output"
	"github.com/altin/treeherder-cli/internal/progress"
	"github.com/altin/treeherder-cli/internal/search"
	"github.com/altin/treeherder-cli/internal/watch"
)

// Client is everything the pipeline asks of the upstream services.
type Client interface {
	fetch.API
	PushID(ctx context.Context, repo, revision string) (int64, error)
	ListJobs(ctx context.Context, pushID int64) ([]model.Job, error)
	SimilarJobs(ctx context.Context, repo string, jobID int64, count int) (*model.SimilarJobsResponse, error)
	CommitFromLandingJob(ctx context.Context, id int64) (string, error)
}

var _ Client = (*api.Client)(nil)

// Request is a validated invocation.
type Request struct {
	// Input is a Treeherder URL or a bare revision. Ignored when
	// LandoJobID is set.
	Input      string
	LandoJobID int64
	Repo       string

	Filter      ops.JobFilter
	Pattern     *regexp.Regexp
	GroupByTest bool

	FetchLogs         bool
	CacheDir          string
	DownloadArtifacts bool
	ArtifactPattern   *regexp.Regexp
	Perf              bool

	// Compare is a second URL or revision to diff failures against.
	Compare string

	Watch         bool
	WatchInterval time.Duration
	Notify        bool
}

type Runner struct {
	client   Client
	renderer output.Renderer
	out      io.Writer
	log      logrus.FieldLogger
	progress progress.Reporter
	notifier notify.Notifier
	sleep    func(ctx context.Context, d time.Duration) error
	tempRoot string
}

type Option func(*Runner)

func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Runner) { r.log = log }
}

func WithProgress(p progress.Reporter) Option {
	return func(r *Runner) { r.progress = p }
}

func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

// WithSleep replaces the watch-mode wait between polls.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithTempRoot sets where temporary log directories are created. Empty
// means the system default.
func WithTempRoot(dir string) Option {
	return func(r *Runner) { r.tempRoot = dir }
}

func New(client Client, renderer output.Renderer, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		renderer: renderer,
		out:      out,
		log:      logging.Discard(),
		progress: progress.Noop{},
		notifier: notify.NewDesktop(),
		sleep:    watch.Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// render stops the progress view before anything reaches stdout.
func (r *Runner) render(fn func(w io.Writer) error) error {
	r.progress.Close()
	return fn(r.out)
}

// Live fetches a push from the upstream services and reports on it.
func (r *Runner) Live(ctx context.Context, req Request) error {
	var compareRevision string
	if req.Compare != "" {
		rev, err := api.ExtractRevision(req.Compare)
		if err != nil {
			return err
		}
		compareRevision = rev
	}

	revision, err := r.resolveRevision(ctx, req)
	if err != nil {
		return err
	}

	r.progress.Status("Fetching push ID")
	pushID, err := r.client.PushID(ctx, req.Repo, revision)
	if err != nil {
		return err
	}
	r.log.WithFields(logrus.Fields{"revision": revision, "push_id": pushID}).Debug("Resolved push")

	if req.Compare != "" {
		return r.compare(ctx, req, revision, pushID, compareRevision)
	}

	r.progress.Status("Fetching jobs")
	jobs, err := r.client.ListJobs(ctx, pushID)
	if err != nil {
		return err
	}

	if req.Watch {
		jobs, err = r.watch(ctx, req, pushID, jobs)
		if err != nil {
			return err
		}
	}

	filtered := ops.FilterJobs(jobs, req.Filter)
	if len(filtered) == 0 {
		r.progress.Finish("No jobs found matching criteria")
		return r.render(func(w io.Writer) error { return r.renderer.NoJobs(w, revision, pushID) })
	}
	r.progress.Finish(fmt.Sprintf("Found %s matching criteria", text.Pluralize(len(filtered), "job")))

	switch {
	case req.FetchLogs:
		return r.fullLogs(ctx, req, revision, pushID, filtered)
	case req.DownloadArtifacts:
		return r.artifacts(ctx, req, revision, pushID, filtered)
	case req.Perf:
		return r.perf(ctx, req, revision, pushID, filtered)
	}

	f := fetch.New(r.client, req.Repo)
	results := batch(ctx, r, "Fetching job details", "Completed fetching job details", filtered, ops.DetailConcurrency, f.Errors)
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.renderJobs(model.JobsReport{Revision: revision, PushID: pushID, Jobs: results}, req.GroupByTest)
}

func (r *Runner) resolveRevision(ctx context.Context, req Request) (string, error) {
	if req.LandoJobID != 0 {
		r.progress.Status(fmt.Sprintf("Fetching commit for Lando job %d", req.LandoJobID))
		return r.client.CommitFromLandingJob(ctx, req.LandoJobID)
	}
	r.progress.Status("Extracting revision from input")
	return api.ExtractRevision(req.Input)
}

func (r *Runner) watch(ctx context.Context, req Request, pushID int64, jobs []model.Job) ([]model.Job, error) {
	r.progress.Finish("Watch mode: monitoring job progress")
	p := watch.Poller{
		Interval: req.WatchInterval,
		Fetch: func(ctx context.Context) ([]model.Job, error) {
			return r.client.ListJobs(ctx, pushID)
		},
		OnPoll: func(c watch.Counts) {
			r.progress.Status(c.String())
			r.log.WithFields(logrus.Fields{
				"completed": c.Completed,
				"running":   c.Running,
				"pending":   c.Pending,
			}).Debug("Waiting for jobs")
		},
		Sleep: r.sleep,
	}
	jobs, err := p.Wait(ctx, jobs)
	if err != nil {
		return nil, err
	}
	r.progress.Finish("All jobs completed!")

	if req.Notify {
		if err := r.notifier.Notify(ctx, watch.NotificationTitle, watch.Summary(jobs)); err != nil {
			r.log.WithError(err).Warn("Failed to send notification")
		}
	}
	return jobs, nil
}

// compare lists both pushes, fetches error summaries of their failed jobs
// and reports the set difference.
func (r *Runner) compare(ctx context.Context, req Request, revision string, pushID int64, compareRevision string) error {
	r.progress.Status("Comparison mode: fetching both revisions")

	var (
		baseJobs, compareJobs []model.Job
		comparePushID         int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, err := r.client.ListJobs(gctx, pushID)
		baseJobs = jobs
		return err
	})
	g.Go(func() error {
		id, err := r.client.PushID(gctx, req.Repo, compareRevision)
		if err != nil {
			return err
		}
		comparePushID = id
		jobs, err := r.client.ListJobs(gctx, id)
		compareJobs = jobs
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	failed := ops.JobFilter{Match: ops.MatchFailure, IncludeIntermittent: req.Filter.IncludeIntermittent}
	f := fetch.New(r.client, req.Repo)
	base := batch(ctx, r, "Fetching base job errors", "Completed fetching base job errors",
		ops.FilterJobs(baseJobs, failed), ops.DetailConcurrency, f.Errors)
	other := batch(ctx, r, "Fetching comparison job errors", "Completed fetching comparison job errors",
		ops.FilterJobs(compareJobs, failed), ops.DetailConcurrency, f.Errors)
	if err := ctx.Err(); err != nil {
		return err
	}

	result := analysis.Compare(base, other, revision, compareRevision, pushID, comparePushID)
	return r.render(func(w io.Writer) error { return r.renderer.Comparison(w, result) })
}

func (r *Runner) fullLogs(ctx context.Context, req Request, revision string, pushID int64, jobs []model.Job) error {
	store, storage, err := r.logStore(req.CacheDir)
	if err != nil {
		return err
	}
	if storage.Temporary {
		defer func() {
			if err := store.Remove(); err != nil {
				r.log.WithError(err).WithField("dir", store.Dir()).Warn("Failed to remove temporary log directory")
			}
		}()
	}

	f := fetch.New(r.client, req.Repo)
	results := batch(ctx, r, "Fetching and processing logs", "Completed fetching and processing logs",
		jobs, ops.LogConcurrency, f.FullLogs(store, search.New(req.Pattern)))
	if err := ctx.Err(); err != nil {
		return err
	}

	if !storage.Temporary {
		meta := model.CachedPushMetadata{Revision: revision, PushID: pushID, Repo: req.Repo, Jobs: jobs}
		if err := store.Save(meta); err != nil {
			return err
		}
		storage.MetadataPath = store.MetadataPath()
	}

	rep := model.JobsReport{Revision: revision, PushID: pushID, Jobs: results, LogsFetched: true, Storage: storage}
	return r.renderJobs(rep, req.GroupByTest)
}

// logStore opens the persistent cache directory when one is given, or a
// fresh temporary directory the caller must remove.
func (r *Runner) logStore(cacheDir string) (*cache.Store, *model.LogStorage, error) {
	if cacheDir != "" {
		store, err := cache.Create(cacheDir)
		if err != nil {
			return nil, nil, err
		}
		return store, &model.LogStorage{Dir: store.Dir()}, nil
	}

	dir, err := os.MkdirTemp(r.tempRoot, "treeherder-cli-")
	if err != nil {
		return nil, nil, fmt.Errorf("create temporary log directory: %w", err)
	}
	store, err := cache.Create(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, nil, err
	}
	return store, &model.LogStorage{Dir: dir, Temporary: true}, nil
}

func (r *Runner) artifacts(ctx context.Context, req Request, revision string, pushID int64, jobs []model.Job) error {
	root := req.CacheDir
	if root == "" {
		root = "artifacts-" + revision
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	f := fetch.New(r.client, req.Repo)
	results := batch(ctx, r, "Downloading artifacts", "Completed downloading artifacts",
		jobs, ops.ArtifactConcurrency, f.Artifacts(root, req.ArtifactPattern))
	if err := ctx.Err(); err != nil {
		return err
	}

	total := 0
	for _, res := range results {
		total += len(res.Files)
	}
	rep := model.ArtifactReport{Revision: revision, PushID: pushID, ArtifactDir: root, TotalFiles: total}
	return r.render(func(w io.Writer) error { return r.renderer.Artifacts(w, rep) })
}

func (r *Runner) perf(ctx context.Context, req Request, revision string, pushID int64, jobs []model.Job) error {
	f := fetch.New(r.client, req.Repo)
	results := batch(ctx, r, "Fetching performance data", "Completed fetching performance data",
		jobs, ops.PerfConcurrency, f.Perf)
	if err := ctx.Err(); err != nil {
		return err
	}
	rep := model.PerfReport{Revision: revision, PushID: pushID, Jobs: results}
	return r.render(func(w io.Writer) error { return r.renderer.Perf(w, rep) })
}

func (r *Runner) renderJobs(rep model.JobsReport, groupByTest bool) error {
	if groupByTest {
		grouped := model.GroupedReport{
			Revision:        rep.Revision,
			PushID:          rep.PushID,
			GroupedFailures: analysis.GroupByTest(rep.Jobs),
			Storage:         rep.Storage,
		}
		return r.render(func(w io.Writer) error { return r.renderer.Grouped(w, grouped) })
	}
	return r.render(func(w io.Writer) error { return r.renderer.Jobs(w, rep) })
}

// Cached reports on a push saved by an earlier --fetch-logs --cache-dir
// run, without touching the network.
func (r *Runner) Cached(ctx context.Context, req Request) error {
	if req.CacheDir == "" {
		return fmt.Errorf("%w: --use-cache requires --cache-dir to be specified", model.ErrInvalidInput)
	}
	store, err := cache.Open(req.CacheDir)
	if err != nil {
		return err
	}
	r.log.Infof("Loading cached data from: %s", store.Dir())

	meta, err := store.Load()
	if err != nil {
		return err
	}
	r.log.Infof("Push ID: %d, Revision: %s", meta.PushID, meta.Revision)
	r.log.Infof("Cached jobs: %d", len(meta.Jobs))
	if ids, err := store.JobIDs(); err == nil {
		size, _ := store.TotalSize()
		r.log.WithFields(logrus.Fields{"job_dirs": len(ids), "bytes": size}).Debug("Cache contents")
	}

	filtered := ops.FilterJobs(meta.Jobs, req.Filter)
	r.log.Infof("Jobs matching filter: %d", len(filtered))

	r.progress.Status("Searching cached logs")
	results, missing, err := store.SearchLogs(filtered, search.New(req.Pattern))
	if err != nil {
		return err
	}
	for _, id := range missing {
		r.log.WithField("job_id", id).Warn("No cached logs for job")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rep := model.JobsReport{Revision: meta.Revision, PushID: meta.PushID, Jobs: results, LogsFetched: true}
	return r.renderJobs(rep, req.GroupByTest)
}

// SimilarHistory reports the recent executions of the job type of jobID.
func (r *Runner) SimilarHistory(ctx context.Context, repo string, jobID int64, count int) error {
	r.progress.Status(fmt.Sprintf("Fetching similar jobs for job %d", jobID))
	resp, err := r.client.SimilarJobs(ctx, repo, jobID, count)
	if err != nil {
		return err
	}
	r.progress.Finish("Similar jobs fetched")

	h := analysis.History(jobID, *resp)
	return r.render(func(w io.Writer) error { return r.renderer.SimilarHistory(w, h) })
}

// batch runs task over jobs, turning pool events into progress steps and
// log records.
func batch[R any](ctx context.Context, r *Runner, label, done string, jobs []model.Job, limit int, task ops.Task[R]) []R {
	r.progress.Start(label, len(jobs))

	events := make(chan ops.Event, limit)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for ev := range events {
			r.handle(ev)
		}
	}()

	results := ops.Run(ctx, jobs, limit, task, events)
	close(events)
	<-drained

	r.progress.Finish(done)
	return results
}

func (r *Runner) handle(ev ops.Event) {
	log := logging.WithJob(r.log, ev.Job)
	switch ev.Kind {
	case ops.EventDone:
		r.progress.Step(false)
		log.Debug("Job processed")
	case ops.EventFailed:
		r.progress.Step(true)
		if errors.Is(ev.Err, context.Canceled) {
			log.Debug("Job skipped after cancellation")
			return
		}
		log.WithError(ev.Err).Warn("Failed to process job")
	case ops.EventWarning:
		if ev.Err != nil {
			log = log.WithError(ev.Err)
		}
		log.Warn(ev.Message)
	}
}
