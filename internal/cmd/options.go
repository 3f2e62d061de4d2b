package cmd

import (
	"strings"

	"github.com/altin/treeherder-cli/internal/config"
	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/ops"
	"github.com/altin/treeherder-cli/internal/output"
	"github.com/altin/treeherder-cli/internal/pipeline"
)

// GroupByTest is the only supported --group-by value.
const GroupByTest = "test"

// Options holds the raw flag values of one invocation.
type Options struct {
	Input      string
	LandoJobID int64

	ShowStackTraces     bool
	Filter              string
	MatchFilter         string
	Platform            string
	DurationMin         int64
	IncludeIntermittent bool

	FetchLogs bool
	Pattern   string
	UseCache  bool

	DownloadArtifacts bool
	ArtifactPattern   string
	Perf              bool

	Watch  bool
	Notify bool

	GroupBy string
	Compare string

	SimilarHistory int64

	JSON   bool
	Format string

	ConfigFile string
}

// inputError carries a user-facing message verbatim while still matching
// model.ErrInvalidInput.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Is(target error) bool { return target == model.ErrInvalidInput }

func invalid(msg string) error {
	return &inputError{msg: msg}
}

// Validate rejects flag combinations that cannot run. It never touches the
// network. cacheDir is the resolved --cache-dir.
func (o *Options) Validate(cacheDir string) error {
	if !o.UseCache && o.Input == "" && o.SimilarHistory == 0 && o.LandoJobID == 0 {
		return invalid("INPUT is required when not using --use-cache or --similar-history")
	}
	if o.Input != "" && o.LandoJobID != 0 {
		return invalid("INPUT and --lando-job-id cannot be used together")
	}
	if o.Notify && !o.Watch {
		return invalid("--notify requires --watch to be enabled")
	}
	if o.Watch && o.UseCache {
		return invalid("--watch cannot be used with --use-cache")
	}
	if o.Compare != "" && o.UseCache {
		return invalid("--compare cannot be used with --use-cache")
	}
	if o.Compare != "" && o.Watch {
		return invalid("--compare cannot be used with --watch")
	}
	if o.SimilarHistory < 0 {
		return invalid("--similar-history must be a positive job ID")
	}
	if o.LandoJobID < 0 {
		return invalid("--lando-job-id must be a positive job ID")
	}
	if o.DurationMin < 0 {
		return invalid("--duration-min cannot be negative")
	}
	if o.SimilarHistory == 0 && o.UseCache && cacheDir == "" {
		return invalid("--use-cache requires --cache-dir to be specified")
	}
	if o.GroupBy != "" && strings.ToLower(o.GroupBy) != GroupByTest {
		return invalid("--group-by only supports \"test\"")
	}
	if _, err := ops.ParseMatchFilter(o.MatchFilter); err != nil {
		return err
	}
	if _, err := o.OutputFormat(config.Capabilities{}); err != nil {
		return err
	}
	for _, p := range []struct{ flag, pattern string }{
		{"--pattern", o.Pattern},
		{"--platform", o.Platform},
		{"--artifact-pattern", o.ArtifactPattern},
	} {
		if _, err := ops.CompileRegexp(p.flag, p.pattern); err != nil {
			return err
		}
	}
	return nil
}

// OutputFormat resolves --format and --json. Automated callers get JSON
// unless they asked for YAML.
func (o *Options) OutputFormat(caps config.Capabilities) (output.Format, error) {
	f, err := output.ParseFormat(o.Format)
	if err != nil {
		return "", err
	}
	if o.JSON && f == output.FormatText {
		f = output.FormatJSON
	}
	if caps.AutomatedCaller && f == output.FormatText {
		f = output.FormatJSON
	}
	return f, nil
}

// Request turns validated options into a pipeline request.
func (o *Options) Request(cfg config.Config) (pipeline.Request, error) {
	match, err := ops.ParseMatchFilter(o.MatchFilter)
	if err != nil {
		return pipeline.Request{}, err
	}
	platform, err := ops.CompileRegexp("--platform", o.Platform)
	if err != nil {
		return pipeline.Request{}, err
	}
	pattern, err := ops.CompileRegexp("--pattern", o.Pattern)
	if err != nil {
		return pipeline.Request{}, err
	}
	artifactPattern, err := ops.CompileRegexp("--artifact-pattern", o.ArtifactPattern)
	if err != nil {
		return pipeline.Request{}, err
	}

	return pipeline.Request{
		Input:      o.Input,
		LandoJobID: o.LandoJobID,
		Repo:       cfg.Repo,
		Filter: ops.JobFilter{
			Match:               match,
			Name:                o.Filter,
			Platform:            platform,
			MinDuration:         o.DurationMin,
			IncludeIntermittent: o.IncludeIntermittent,
		},
		Pattern:           pattern,
		GroupByTest:       o.GroupBy != "",
		FetchLogs:         o.FetchLogs,
		CacheDir:          cfg.CacheDir,
		DownloadArtifacts: o.DownloadArtifacts,
		ArtifactPattern:   artifactPattern,
		Perf:              o.Perf,
		Compare:           o.Compare,
		Watch:             o.Watch,
		WatchInterval:     cfg.WatchInterval,
		Notify:            o.Notify,
	}, nil
}
