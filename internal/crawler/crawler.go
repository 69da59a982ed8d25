package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/BenjaminSRussell/linkaudit/internal/classifier"
	linkhttp "github.com/BenjaminSRussell/linkaudit/internal/http"
	"github.com/BenjaminSRussell/linkaudit/internal/queue"
	"github.com/BenjaminSRussell/linkaudit/internal/report"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
	"github.com/BenjaminSRussell/linkaudit/internal/visited"
)

// Deps are the collaborators of a Crawler. Zero values are replaced with
// defaults built from the config.
type Deps struct {
	Client   linkhttp.Client
	Reporter report.Reporter
	Logger   zerolog.Logger
}

// Crawler audits links for one run. Its visited set and queue are not
// shared across runs.
type Crawler struct {
	config     types.Config
	log        zerolog.Logger
	client     linkhttp.Client
	fetcher    linkhttp.Fetcher
	classifier *classifier.Classifier
	queue      *queue.Queue
	visited    visited.Set
	robots     *linkhttp.RobotsChecker
	reporter   report.Reporter

	external      singleflight.Group
	externalCache sync.Map // map[string]types.Outcome

	// Stats
	discovered atomic.Int64
	processed  atomic.Int64

	mu       sync.Mutex
	byStatus map[types.Status]int

	observers sync.WaitGroup
}

// New creates a crawler. The config is validated and every rule pattern is
// compiled up front.
func New(config types.Config, deps Deps) (*Crawler, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	rules, err := classifier.New(config.RulesConfig)
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	client := deps.Client
	if client == nil {
		client = linkhttp.NewClient(linkhttp.ClientConfig{
			Timeout:      config.Timeout,
			Headers:      config.Headers,
			MaxBodyBytes: config.MaxBodyBytes,
			Concurrency:  config.Concurrency,
		})
	}

	reporter := deps.Reporter
	if reporter == nil {
		reporter = report.New(deps.Logger)
	}

	// Zero attempts or factor select the defaults; a zero delay is kept
	retry := linkhttp.DefaultRetryConfig()
	retry.Delay = config.RetriesTimeout
	if config.Retries > 0 {
		retry.MaxAttempts = config.Retries
	}
	if config.RetryBackoffFactor > 0 {
		retry.BackoffFactor = config.RetryBackoffFactor
	}
	if !config.EnableRetry {
		retry.MaxAttempts = 1
	}

	c := &Crawler{
		config:     config,
		log:        deps.Logger,
		client:     client,
		fetcher:    linkhttp.NewRetryingFetcher(client, retry, deps.Logger),
		classifier: rules,
		queue:      queue.New(config.Concurrency, config.RateLimit),
		reporter:   reporter,
		byStatus:   make(map[types.Status]int),
	}

	if config.EnableVisitedGuard {
		if config.VisitedBackend == types.VisitedBloom {
			c.visited = visited.NewBloom(config.BloomCapacity, config.BloomFalsePositive)
		} else {
			c.visited = visited.New()
		}
	}

	if config.RespectRobots {
		c.robots = linkhttp.NewRobotsChecker(client, linkhttp.UserAgent(config.Headers))
	}

	return c, nil
}

// Run audits the configured seeds. URL mode and directory mode are never
// combined.
func (c *Crawler) Run(ctx context.Context) (*types.Results, error) {
	if c.config.UseInitialURLs {
		return c.CrawlURLs(ctx, c.config.InitialURLs)
	}
	return c.AuditDirectories(ctx, c.config.InitialDirectories)
}

// submit queues a task for target and logs a recovered panic
func (c *Crawler) submit(ctx context.Context, target string, task queue.Task) {
	c.discovered.Add(1)
	c.observers.Add(1)

	done := c.queue.Submit(ctx, task)
	go func() {
		defer c.observers.Done()

		err := <-done
		var panicErr *queue.PanicError
		switch {
		case errors.As(err, &panicErr):
			c.log.Error().
				Str("url", target).
				Interface("panic", panicErr.Value).
				Str("stack", string(panicErr.Stack)).
				Msg("Task panicked")
		case err != nil:
			c.log.Debug().Str("url", target).Err(err).Msg("Task not run")
		}
	}()
}

// wait blocks until every queued task and its observer have finished
func (c *Crawler) wait() {
	c.queue.Wait()
	c.observers.Wait()

	stats := c.queue.Stats()
	c.log.Debug().
		Int64("completed", stats.Completed).
		Int64("failed", stats.Failed).
		Int64("panicked", stats.Panicked).
		Int("peak_active", stats.PeakActive).
		Msg("Queue drained")
}

func (c *Crawler) report(o types.Outcome) {
	c.mu.Lock()
	c.byStatus[o.Status]++
	c.mu.Unlock()

	c.reporter.Report(o)
}

func (c *Crawler) results() *types.Results {
	c.mu.Lock()
	defer c.mu.Unlock()

	byStatus := make(map[types.Status]int, len(c.byStatus))
	for status, n := range c.byStatus {
		byStatus[status] = n
	}

	return &types.Results{
		Discovered: int(c.discovered.Load()),
		Processed:  int(c.processed.Load()),
		ByStatus:   byStatus,
	}
}

// fetchFailure builds the outcome for a fetch that exhausted its retries
func fetchFailure(o types.Outcome, err error) types.Outcome {
	o.Status = types.StatusHTTPError
	o.Err = err

	var fetchErr *linkhttp.FetchError
	if errors.As(err, &fetchErr) {
		o.StatusCode = fetchErr.StatusCode
	}
	return o
}

func isWebURL(u *url.URL) bool {
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
