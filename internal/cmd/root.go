// Package cmd wires the command line to the pipeline.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/altin/treeherder-cli/internal/config"
	"github.com/altin/treeherder-cli/internal/logging"
	"github.com/altin/treeherder-cli/internal/model"
	"github.com/altin/treeherder-cli/internal/notify"
	"github.com/altin/treeherder-cli/internal/output"
	"github.com/altin/treeherder-cli/internal/pipeline"
	"github.com/altin/treeherder-cli/internal/progress"
)

const (
	envPrefix = "TREEHERDER_CLI"
	appName   = "treeherder-cli"
)

// Terminal is the part of go-gh's term.Term the command reads.
type Terminal interface {
	IsTerminalOutput() bool
	IsColorEnabled() bool
	Size() (int, int, error)
}

// Deps are the process facts and factories a command runs with.
type Deps struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
	Term   Terminal
	// StdinTTY enables the abort key; StderrTTY enables the live progress
	// view.
	StdinTTY  bool
	StderrTTY bool
	Caps      config.Capabilities
	Version   string
	NewClient func(cfg config.Config, log logrus.FieldLogger) pipeline.Client
	Notifier  notify.Notifier
}

func NewRootCmd(deps Deps) *cobra.Command {
	opts := &Options{}
	v := viper.New()
	config.SetDefaults(v)

	cmd := &cobra.Command{
		Use:   appName + " [INPUT]",
		Short: "Fetch and summarize Treeherder test results for Firefox developers",
		Long: `Fetch and summarize Treeherder test results for Firefox developers.

INPUT is a Treeherder URL or revision hash (not needed with --use-cache).`,
		Version:       deps.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 1 {
				return invalid(fmt.Sprintf("accepts at most 1 INPUT, received %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Input = args[0]
			}
			return run(cmd.Context(), v, opts, deps)
		},
	}
	cmd.SetIn(deps.In)
	cmd.SetOut(deps.Out)
	cmd.SetErr(deps.ErrOut)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return invalid(err.Error())
	})

	f := cmd.Flags()
	f.String("repo", config.DefaultRepo, "Repository name")
	f.BoolVar(&opts.ShowStackTraces, "show-stack-traces", true, "Show stack traces in error summaries")
	f.StringVar(&opts.Filter, "filter", "", "Only show jobs matching this regex pattern (applied to job_type_name)")
	f.BoolVar(&opts.FetchLogs, "fetch-logs", false, "Fetch all logs for each job")
	f.StringVar(&opts.MatchFilter, "match-filter", "failure", "Filter which jobs to apply pattern matching on (failure, success, all)")
	f.StringVar(&opts.Pattern, "pattern", "", "Regex pattern to search for in logs (only used with --fetch-logs)")
	f.String("cache-dir", "", "Directory to store/read cached logs (persistent storage, not temp)")
	f.BoolVar(&opts.UseCache, "use-cache", false, "Use cached logs without downloading (requires --cache-dir)")
	f.BoolVar(&opts.IncludeIntermittent, "include-intermittent", false, "Include jobs classified as intermittent")
	f.BoolVar(&opts.JSON, "json", false, "Output results in JSON format")
	f.StringVar(&opts.Format, "format", "text", "Output format: text, json or yaml")
	f.BoolVar(&opts.Watch, "watch", false, "Poll until all jobs complete")
	f.Int64("watch-interval", config.DefaultWatchInterval, "Polling interval in seconds (requires --watch)")
	f.BoolVar(&opts.Notify, "notify", false, "Send desktop notification when jobs complete (requires --watch)")
	f.StringVar(&opts.Platform, "platform", "", "Only show jobs matching this platform regex pattern")
	f.Int64Var(&opts.DurationMin, "duration-min", 0, "Only show jobs that took longer than N seconds")
	f.StringVar(&opts.GroupBy, "group-by", "", "Group failures by test name across platforms (test)")
	f.StringVar(&opts.Compare, "compare", "", "Compare with another revision to show new failures")
	f.BoolVar(&opts.DownloadArtifacts, "download-artifacts", false, "Download job artifacts")
	f.StringVar(&opts.ArtifactPattern, "artifact-pattern", "", "Regex pattern to filter artifacts (e.g., 'screenshot|errorsummary')")
	f.BoolVar(&opts.Perf, "perf", false, "Show performance/resource usage data for jobs")
	f.Int64Var(&opts.SimilarHistory, "similar-history", 0, "Show history for a job ID using similar_jobs API")
	f.Int("similar-count", config.DefaultSimilarCount, "Number of similar jobs to fetch for --similar-history")
	f.Int64Var(&opts.LandoJobID, "lando-job-id", 0, "Use a Lando job ID to fetch the commit hash (alternative to INPUT)")
	f.String("log-level", config.DefaultLogLevel, "Diagnostic log level on stderr (debug, info, warn, error)")
	f.StringVar(&opts.ConfigFile, "config", "", "Config file (default $XDG_CONFIG_HOME/treeherder-cli/config.yaml)")

	bindFlags(v, f)
	return cmd
}

// bindFlags ties the flags that have a config key to v so a set flag wins
// over env and file values.
func bindFlags(v *viper.Viper, f *pflag.FlagSet) {
	for key, name := range map[string]string{
		config.KeyRepo:          "repo",
		config.KeyCacheDir:      "cache-dir",
		config.KeyWatchInterval: "watch-interval",
		config.KeySimilarCount:  "similar-count",
		config.KeyLogLevel:      "log-level",
	} {
		_ = v.BindPFlag(key, f.Lookup(name))
	}
}

func run(ctx context.Context, v *viper.Viper, opts *Options, deps Deps) error {
	if err := readConfig(v, opts.ConfigFile); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	if err := opts.Validate(cfg.CacheDir); err != nil {
		return err
	}
	format, err := opts.OutputFormat(deps.Caps)
	if err != nil {
		return err
	}
	req, err := opts.Request(cfg)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, deps.ErrOut)
	if err != nil {
		return err
	}
	if deps.Caps.AutomatedCaller {
		log.WithField("format", format).Debug("Automated caller detected")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reporter := newReporter(deps, log, cancel)
	defer reporter.Close()
	if w, ok := reporter.(io.Writer); ok {
		log.SetOutput(w)
	}

	runOpts := []pipeline.Option{pipeline.WithLogger(log), pipeline.WithProgress(reporter)}
	if deps.Notifier != nil {
		runOpts = append(runOpts, pipeline.WithNotifier(deps.Notifier))
	}
	renderer := output.New(format, renderOptions(deps.Term, opts.ShowStackTraces))
	runner := pipeline.New(deps.NewClient(cfg, log), renderer, deps.Out, runOpts...)

	switch {
	case opts.SimilarHistory > 0:
		return runner.SimilarHistory(ctx, cfg.Repo, opts.SimilarHistory, cfg.SimilarCount)
	case opts.UseCache:
		return runner.Cached(ctx, req)
	default:
		return runner.Live(ctx, req)
	}
}

// readConfig layers the optional config file and TREEHERDER_CLI_* env vars
// under the bound flags.
func readConfig(v *viper.Viper, file string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w: read config %s: %v", model.ErrInvalidInput, file, err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(dir, appName))
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: read config: %v", model.ErrInvalidInput, err)
	}
	return nil
}

func newReporter(deps Deps, log logrus.FieldLogger, cancel func()) progress.Reporter {
	if !deps.StderrTTY {
		return progress.NewLogReporter(log)
	}
	var in io.Reader
	if deps.StdinTTY {
		in = deps.In
	}
	return progress.NewTeaReporter(deps.ErrOut, in, cancel)
}

func renderOptions(t Terminal, showStackTraces bool) output.Options {
	o := output.Options{ShowStackTraces: showStackTraces}
	if t == nil {
		return o
	}
	o.TTY = t.IsTerminalOutput()
	o.Color = t.IsColorEnabled()
	if o.TTY {
		if w, _, err := t.Size(); err == nil && w > 0 {
			o.Width = w
		}
	}
	return o
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, model.ErrInvalidInput):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
