package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/altin/treeherder-cli/internal/model"
)

const (
	DefaultRepo           = "try"
	DefaultWatchInterval  = 300
	DefaultSimilarCount   = 50
	DefaultLogLevel       = "info"
	DefaultTreeherderURL  = "https://treeherder.mozilla.org/api"
	DefaultTaskclusterURL = "https://firefox-ci-tc.services.mozilla.com/api/queue/v1"
	DefaultLandoURL       = "https://api.lando.services.mozilla.com"
)

// Keys shared by flags, env vars and the config file.
const (
	KeyRepo           = "repo"
	KeyCacheDir       = "cache_dir"
	KeyWatchInterval  = "watch_interval"
	KeySimilarCount   = "similar_count"
	KeyLogLevel       = "log_level"
	KeyRateLimit      = "rate_limit"
	KeyUserAgent      = "user_agent"
	KeyTreeherderURL  = "treeherder_url"
	KeyTaskclusterURL = "taskcluster_url"
	KeyLandoURL       = "lando_url"
)

type Endpoints struct {
	Treeherder  string
	Taskcluster string
	Lando       string
}

type Config struct {
	Repo          string
	CacheDir      string
	WatchInterval time.Duration
	SimilarCount  int
	LogLevel      string
	// RateLimit is requests per second across all upstream calls; 0 disables pacing.
	RateLimit float64
	UserAgent string
	Endpoints Endpoints
}

func Default() Config {
	return Config{
		Repo:          DefaultRepo,
		WatchInterval: DefaultWatchInterval * time.Second,
		SimilarCount:  DefaultSimilarCount,
		LogLevel:      DefaultLogLevel,
		UserAgent:     "treeherder-cli",
		Endpoints: Endpoints{
			Treeherder:  DefaultTreeherderURL,
			Taskcluster: DefaultTaskclusterURL,
			Lando:       DefaultLandoURL,
		},
	}
}

// SetDefaults registers Default() values on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyRepo, d.Repo)
	v.SetDefault(KeyWatchInterval, DefaultWatchInterval)
	v.SetDefault(KeySimilarCount, d.SimilarCount)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyRateLimit, 0)
	v.SetDefault(KeyUserAgent, d.UserAgent)
	v.SetDefault(KeyTreeherderURL, d.Endpoints.Treeherder)
	v.SetDefault(KeyTaskclusterURL, d.Endpoints.Taskcluster)
	v.SetDefault(KeyLandoURL, d.Endpoints.Lando)
}

// Load resolves a Config from v. Flags must already be bound.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Repo:          v.GetString(KeyRepo),
		CacheDir:      v.GetString(KeyCacheDir),
		WatchInterval: time.Duration(v.GetInt64(KeyWatchInterval)) * time.Second,
		SimilarCount:  v.GetInt(KeySimilarCount),
		LogLevel:      v.GetString(KeyLogLevel),
		RateLimit:     v.GetFloat64(KeyRateLimit),
		UserAgent:     v.GetString(KeyUserAgent),
		Endpoints: Endpoints{
			Treeherder:  v.GetString(KeyTreeherderURL),
			Taskcluster: v.GetString(KeyTaskclusterURL),
			Lando:       v.GetString(KeyLandoURL),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Repo == "" {
		return fmt.Errorf("%w: repo is required (use --repo)", model.ErrInvalidInput)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("%w: watch interval must be positive", model.ErrInvalidInput)
	}
	if c.SimilarCount <= 0 {
		return fmt.Errorf("%w: similar count must be positive", model.ErrInvalidInput)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit cannot be negative", model.ErrInvalidInput)
	}
	for name, raw := range map[string]string{
		KeyTreeherderURL:  c.Endpoints.Treeherder,
		KeyTaskclusterURL: c.Endpoints.Taskcluster,
		KeyLandoURL:       c.Endpoints.Lando,
	} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute http(s) URL, got %q", model.ErrInvalidInput, name, raw)
		}
	}
	return nil
}
