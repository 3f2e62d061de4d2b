package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/altin/treeherder-cli/internal/config"
	"github.com/altin/treeherder-cli/internal/logging"
)

// Client talks to the three public services a push report needs:
// Treeherder (pushes, jobs, logs), Taskcluster (artifacts) and Lando
// (landing jobs). All endpoints are unauthenticated.
type Client struct {
	http        *http.Client
	treeherder  string
	taskcluster string
	lando       string
	userAgent   string
	limiter     *rate.Limiter
	log         logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithEndpoints(e config.Endpoints) Option {
	return func(c *Client) {
		if e.Treeherder != "" {
			c.treeherder = strings.TrimRight(e.Treeherder, "/")
		}
		if e.Taskcluster != "" {
			c.taskcluster = strings.TrimRight(e.Taskcluster, "/")
		}
		if e.Lando != "" {
			c.lando = strings.TrimRight(e.Lando, "/")
		}
	}
}

// WithRateLimit paces every request to at most rps per second. rps <= 0
// leaves requests unpaced.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		treeherder:  config.DefaultTreeherderURL,
		taskcluster: config.DefaultTaskclusterURL,
		lando:       config.DefaultLandoURL,
		userAgent:   "treeherder-cli",
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig builds a Client from resolved settings.
func NewClientFromConfig(cfg config.Config, log logrus.FieldLogger) *Client {
	return NewClient(
		WithEndpoints(cfg.Endpoints),
		WithRateLimit(cfg.RateLimit),
		WithUserAgent(cfg.UserAgent),
		WithLogger(logging.WithComponent(log, "api")),
	)
}

func (c *Client) treeherderURL(format string, args ...any) string {
	return c.treeherder + fmt.Sprintf(format, args...)
}

func (c *Client) taskclusterURL(format string, args ...any) string {
	return c.taskcluster + fmt.Sprintf(format, args...)
}

func (c *Client) landoURL(format string, args ...any) string {
	return c.lando + fmt.Sprintf(format, args...)
}

// get issues a GET and returns the response when the status is 2xx. The
// caller owns the body.
func (c *Client) get(ctx context.Context, op, rawURL string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.log.WithField("url", rawURL).Debug(op)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &APIError{Op: op, URL: rawURL, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, result any) error {
	resp, err := c.get(ctx, op, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(result); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, op, rawURL string) ([]byte, error) {
	resp, err := c.get(ctx, op, rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	return data, nil
}

// download streams a resource into w and returns the number of bytes copied.
func (c *Client) download(ctx context.Context, op, rawURL string, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, op, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
