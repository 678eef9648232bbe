package github

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/pscheid92/ballotbot/internal/platform/retry"
)

// maxRateLimitWait bounds how long a single call sleeps on a rate limit
// before giving up for this cycle.
const maxRateLimitWait = time.Minute

// rateLimitError carries how long GitHub asked us to wait.
type rateLimitError struct {
	err  error
	wait time.Duration
}

func (e *rateLimitError) Error() string             { return e.err.Error() }
func (e *rateLimitError) Unwrap() error             { return e.err }
func (e *rateLimitError) RetryAfter() time.Duration { return e.wait }

// wrapRateLimit annotates primary and secondary rate limits with their wait.
func wrapRateLimit(err error, now time.Time) error {
	var (
		primary   *gh.RateLimitError
		secondary *gh.AbuseRateLimitError
		resp      *gh.ErrorResponse
		wait      time.Duration
	)
	switch {
	case errors.As(err, &primary):
		wait = primary.Rate.Reset.Sub(now)
	case errors.As(err, &secondary):
		if secondary.RetryAfter != nil {
			wait = *secondary.RetryAfter
		}
	case errors.As(err, &resp) && resp.Response != nil && resp.Response.StatusCode == http.StatusTooManyRequests:
		if secs, perr := strconv.Atoi(resp.Response.Header.Get("Retry-After")); perr == nil {
			wait = time.Duration(secs) * time.Second
		}
	default:
		return err
	}
	return &rateLimitError{err: err, wait: min(max(wait, 0), maxRateLimitWait)}
}

// statusCode returns the HTTP status of a failed API response, or 0.
func statusCode(err error) int {
	var resp *gh.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil {
		return resp.Response.StatusCode
	}
	return 0
}

// IsRateLimited reports a primary, secondary or 429 rate limit.
func IsRateLimited(err error) bool {
	var rl *rateLimitError
	return errors.As(err, &rl)
}

// IsNotMergeable reports GitHub refusing a merge (405) or a moved head (409).
func IsNotMergeable(err error) bool {
	code := statusCode(err)
	return code == http.StatusMethodNotAllowed || code == http.StatusConflict
}

// classify maps client errors onto retry actions: server errors and transport
// failures are transient, rate limits wait, everything else is permanent.
func classify(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	if IsRateLimited(err) {
		return retry.After
	}

	var resp *gh.ErrorResponse
	if !errors.As(err, &resp) {
		return retry.Retry
	}
	if statusCode(err) >= 500 {
		return retry.Retry
	}
	return retry.Stop
}
