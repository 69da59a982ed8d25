package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts   int
	Delay         time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		Delay:         10 * time.Second,
		BackoffFactor: 1.0,
	}
}

// Backoff returns the wait after the given number of failed attempts.
// A factor of 1 (or less) keeps the delay constant.
func (c RetryConfig) Backoff(failed int) time.Duration {
	backoff := c.Delay
	if backoff <= 0 {
		return 0
	}

	if c.BackoffFactor > 1 {
		for i := 1; i < failed; i++ {
			backoff = time.Duration(float64(backoff) * c.BackoffFactor)
			if c.MaxDelay > 0 && backoff > c.MaxDelay {
				return c.MaxDelay
			}
		}
	}

	return backoff
}

// FetchError describes the last failure once the retry budget is exhausted
type FetchError struct {
	URL        string
	Method     string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Method, e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s %s failed with status %d after %d attempt(s)", e.Method, e.URL, e.StatusCode, e.Attempts)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher fetches a URL and returns a 2xx response or an error
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, method string) (*Response, error)
}

// RetryingFetcher retries failed requests with a delay between attempts
type RetryingFetcher struct {
	client Client
	config RetryConfig
	log    zerolog.Logger
}

// NewRetryingFetcher wraps client with the retry policy
func NewRetryingFetcher(client Client, config RetryConfig, log zerolog.Logger) *RetryingFetcher {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &RetryingFetcher{
		client: client,
		config: config,
		log:    log,
	}
}

// Fetch performs up to MaxAttempts requests. An attempt fails on a transport
// error or a non-2xx status.
func (f *RetryingFetcher) Fetch(ctx context.Context, rawURL, method string) (*Response, error) {
	var last *FetchError

	for attempt := 1; attempt <= f.config.MaxAttempts; attempt++ {
		if attempt == 1 {
			f.log.Info().Str("method", method).Str("url", rawURL).Msg("Fetching")
		}

		resp, err := f.client.Do(ctx, method, rawURL)
		if err == nil && resp.OK() {
			return resp, nil
		}

		last = &FetchError{URL: rawURL, Method: method, Attempts: attempt, Err: err}
		if err == nil {
			last.StatusCode = resp.StatusCode
		}

		if errors.Is(err, ErrInvalidRequest) || ctx.Err() != nil {
			return nil, last
		}

		if attempt == f.config.MaxAttempts {
			break
		}

		backoff := f.config.Backoff(attempt)
		f.log.Warn().
			Str("method", method).
			Str("url", rawURL).
			Int("attempt", attempt).
			Int("status", last.StatusCode).
			AnErr("cause", err).
			Dur("backoff", backoff).
			Msg("Fetch attempt failed, retrying")

		if err := sleep(ctx, backoff); err != nil {
			return nil, last
		}
	}

	return nil, last
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
