// Package github talks to the GitHub REST API on behalf of the bot and
// receives its webhook deliveries.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	"github.com/pscheid92/ballotbot/internal/platform/retry"
	"github.com/pscheid92/ballotbot/internal/platform/version"
)

const requestTimeout = 30 * time.Second

var defaultRetryPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   500 * time.Millisecond,
	MaxBackoff:       5 * time.Second,
	RateLimitBackoff: 30 * time.Second,
}

type Config struct {
	BaseURL string // empty means https://api.github.com
	Token   string
	Owner   string
	Repo    string

	HTTPClient *http.Client
	Clock      clockwork.Clock
	Metrics    *metrics.GitHubMetrics // optional
	Retry      *retry.Policy          // optional, defaults to 3 attempts
}

// Client is a repository-scoped wrapper around go-github. It implements
// domain.Forge.
type Client struct {
	gh      *gh.Client
	owner   string
	repo    string
	clock   clockwork.Clock
	metrics *metrics.GitHubMetrics
	policy  retry.Policy
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github: token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	client := gh.NewClient(httpClient).WithAuthToken(cfg.Token)
	client.UserAgent = version.UserAgent()

	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: invalid base URL %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = baseURL
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	policy := defaultRetryPolicy
	if cfg.Retry != nil {
		policy = *cfg.Retry
	}
	policy.Clock = clock

	return &Client{
		gh:      client,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		clock:   clock,
		metrics: cfg.Metrics,
		policy:  policy,
	}, nil
}

// call runs one logical API call through the retry policy, recording a
// request metric per attempt.
func call[T any](ctx context.Context, c *Client, op string, fn func(ctx context.Context) (T, *gh.Response, error)) (T, error) {
	policy := c.policy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		if c.metrics != nil {
			c.metrics.Retries.WithLabelValues(op).Inc()
		}
		slog.WarnContext(ctx, "GitHub request failed, retrying", "operation", op, "attempt", attempt, "backoff", backoff, "error", err)
	}

	return retry.Do(ctx, policy, classify, func() (T, error) {
		start := c.clock.Now()
		val, resp, err := fn(ctx)
		if c.metrics != nil {
			c.metrics.RequestDuration.WithLabelValues(op).Observe(c.clock.Since(start).Seconds())
			c.metrics.Requests.WithLabelValues(op, responseStatus(resp)).Inc()
		}
		if err != nil {
			return val, wrapRateLimit(fmt.Errorf("github: %s: %w", op, err), c.clock.Now())
		}
		return val, nil
	})
}

func responseStatus(resp *gh.Response) string {
	if resp == nil || resp.Response == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode)
}

func listOptions(page, perPage int) gh.ListOptions {
	return gh.ListOptions{Page: page, PerPage: perPage}
}
