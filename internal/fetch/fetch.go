// Package fetch holds the per-job work units run by the batch pool: error
// summaries, full logs, artifacts and perf data.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/altin/treeherder-cli/internal/api"
	"github.com/altin/treeherder-cli/internal/cache"
	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/ops"
	"github.com/altin/treeherder-cli/internal/search"
)

// API is the subset of the upstream client the tasks need.
type API interface {
	GetJobDetail(ctx context.Context, repo string, jobID int64) (*model.JobDetail, error)
	ErrorSummary(ctx context.Context, logURL string) ([]model.ErrorLine, error)
	DownloadLog(ctx context.Context, logURL string, w io.Writer) (int64, error)
	ListArtifacts(ctx context.Context, taskID string, retryID int64) ([]model.Artifact, error)
	DownloadArtifact(ctx context.Context, taskID string, retryID int64, name string, w io.Writer) (int64, error)
	PerfData(ctx context.Context, taskID string, retryID int64) (*model.PerfherderData, error)
}

var _ API = (*api.Client)(nil)

type Fetcher struct {
	api  API
	repo string
}

func New(client API, repo string) *Fetcher {
	return &Fetcher{api: client, repo: repo}
}

func (f *Fetcher) detail(ctx context.Context, job model.Job) (*model.JobDetail, error) {
	d, err := f.api.GetJobDetail(ctx, f.repo, job.ID)
	if err != nil {
		return nil, err
	}
	if d.ID != 0 && d.ID != job.ID {
		return nil, fmt.Errorf("%w: job detail for %d returned job %d", model.ErrUnexpectedResponse, job.ID, d.ID)
	}
	return d, nil
}

// collectErrors gathers failed records from every error-summary log of a
// job. A log that cannot be fetched is reported and skipped.
func (f *Fetcher) collectErrors(ctx context.Context, d *model.JobDetail, emit ops.Emit) []model.ErrorLine {
	errs := []model.ErrorLine{}
	for _, ref := range d.Logs {
		if !api.IsErrorSummaryLog(ref) {
			continue
		}
		lines, err := f.api.ErrorSummary(ctx, ref.URL)
		if err != nil {
			emit("Failed to fetch error summary", err)
			continue
		}
		errs = append(errs, lines...)
	}
	return errs
}

// Errors fetches a job's detail and its error summaries.
func (f *Fetcher) Errors(ctx context.Context, job model.Job, emit ops.Emit) (model.JobWithLogs, error) {
	d, err := f.detail(ctx, job)
	if err != nil {
		return model.JobWithLogs{}, err
	}
	jwl := model.NewJobWithLogs(job)
	jwl.Errors = f.collectErrors(ctx, d, emit)
	return jwl, nil
}

// FullLogs returns a task that saves every log of a job into the store and
// scans it with engine.
func (f *Fetcher) FullLogs(store *cache.Store, engine *search.Engine) ops.Task[model.JobWithLogs] {
	return func(ctx context.Context, job model.Job, emit ops.Emit) (model.JobWithLogs, error) {
		d, err := f.detail(ctx, job)
		if err != nil {
			return model.JobWithLogs{}, err
		}
		if err := os.MkdirAll(store.JobDir(job.ID), 0o755); err != nil {
			return model.JobWithLogs{}, fmt.Errorf("create job dir: %w", err)
		}

		jwl := model.NewJobWithLogs(job)
		jwl.LogDir = store.JobDir(job.ID)
		jwl.Errors = f.collectErrors(ctx, d, emit)

		for _, ref := range d.Logs {
			path, err := f.saveLog(ctx, store, job.ID, ref)
			if err != nil {
				emit(fmt.Sprintf("Failed to save log %s", ref.Name), err)
				continue
			}
			matches, err := engine.ScanFile(ref.Name, path)
			if err != nil {
				emit(fmt.Sprintf("Failed to search log %s", ref.Name), err)
				continue
			}
			jwl.LogMatches = append(jwl.LogMatches, matches...)
		}
		return jwl, nil
	}
}

func (f *Fetcher) saveLog(ctx context.Context, store *cache.Store, jobID int64, ref model.LogReference) (string, error) {
	pr, pw := io.Pipe()
	go func() {
		_, err := f.api.DownloadLog(ctx, ref.URL, pw)
		pw.CloseWithError(err)
	}()
	path, err := store.WriteLog(jobID, ref.Name, pr)
	pr.CloseWithError(err)
	return path, err
}

// ArtifactResult lists the files written for one job.
type ArtifactResult struct {
	JobID int64
	Files []string
}

// ArtifactJobDir is the per-job directory artifacts are written under.
func ArtifactJobDir(root string, jobID int64) string {
	return filepath.Join(root, "job-"+strconv.FormatInt(jobID, 10))
}

// Artifacts returns a task that downloads the artifacts of a job whose
// names match pattern (all of them when pattern is nil). Jobs that did not
// run on a task yield no files.
func (f *Fetcher) Artifacts(root string, pattern *regexp.Regexp) ops.Task[ArtifactResult] {
	return func(ctx context.Context, job model.Job, emit ops.Emit) (ArtifactResult, error) {
		res := ArtifactResult{JobID: job.ID, Files: []string{}}
		d, err := f.detail(ctx, job)
		if err != nil {
			return res, err
		}
		taskID, retryID, ok := d.Task()
		if !ok {
			return res, nil
		}

		artifacts, err := f.api.ListArtifacts(ctx, taskID, retryID)
		if err != nil {
			return res, err
		}

		jobDir := ArtifactJobDir(root, job.ID)
		if err := os.MkdirAll(jobDir, 0o755); err != nil {
			return res, fmt.Errorf("create artifact dir: %w", err)
		}
		for _, a := range artifacts {
			if pattern != nil && !pattern.MatchString(a.Name) {
				continue
			}
			path, err := f.saveArtifact(ctx, jobDir, taskID, retryID, a.Name)
			if err != nil {
				emit(fmt.Sprintf("Failed to download %s", a.Name), err)
				continue
			}
			res.Files = append(res.Files, path)
		}
		return res, nil
	}
}

func (f *Fetcher) saveArtifact(ctx context.Context, jobDir, taskID string, retryID int64, name string) (string, error) {
	path, err := artifactPath(jobDir, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := f.api.DownloadArtifact(ctx, taskID, retryID, name, out); err != nil {
		out.Close()
		os.Remove(path)
		return "", err
	}
	return path, out.Close()
}

// artifactPath joins an artifact name under dir, refusing names that would
// land outside it.
func artifactPath(dir, name string) (string, error) {
	path := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: artifact name %q escapes the output directory", model.ErrUnexpectedResponse, name)
	}
	return path, nil
}

// Perf fetches the resource-usage data of a job. Jobs without a task or
// without the artifact carry nil data.
func (f *Fetcher) Perf(ctx context.Context, job model.Job, emit ops.Emit) (model.JobPerfData, error) {
	res := model.JobPerfData{JobID: job.ID, JobTypeName: job.JobTypeName, Platform: job.Platform}
	d, err := f.detail(ctx, job)
	if err != nil {
		return res, err
	}
	taskID, retryID, ok := d.Task()
	if !ok {
		return res, nil
	}

	data, err := f.api.PerfData(ctx, taskID, retryID)
	switch {
	case err == nil:
		res.PerfData = data
	case api.IsNotFound(err):
	default:
		emit("No perf data", err)
	}
	return res, nil
}
