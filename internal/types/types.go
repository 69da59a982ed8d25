package types

import (
	"fmt"
	"time"
)

// Config holds link audit configuration
type Config struct {
	InitialDirectories []string `mapstructure:"initial_directories"`
	UseInitialURLs     bool     `mapstructure:"use_initial_urls"`
	InitialURLs        []string `mapstructure:"initial_urls"`

	Concurrency        int               `mapstructure:"concurrency"`
	Timeout            time.Duration     `mapstructure:"timeout"`
	RateLimit          time.Duration     `mapstructure:"rate_limit"`
	Retries            int               `mapstructure:"retries"`
	RetriesTimeout     time.Duration     `mapstructure:"retries_timeout"`
	RetryBackoffFactor float64           `mapstructure:"retry_backoff_factor"`
	Headers            map[string]string `mapstructure:"headers"`
	MaxBodyBytes       int64             `mapstructure:"max_body_bytes"`

	RulesConfig `mapstructure:",squash"`

	// Feature flags
	EnableRetry        bool     `mapstructure:"enable_retry"`
	EnableVisitedGuard bool     `mapstructure:"enable_visited_guard"`
	VisitedBackend     string   `mapstructure:"visited_backend"`
	BloomCapacity      uint     `mapstructure:"bloom_capacity"`
	BloomFalsePositive float64  `mapstructure:"bloom_false_positive"`
	RespectRobots      bool     `mapstructure:"respect_robots"`
	SeedSitemaps       bool     `mapstructure:"seed_sitemaps"`
	DedupExternal      bool     `mapstructure:"dedup_external"`
	CheckLocalLinks    bool     `mapstructure:"check_local_links"`
	FileExtensions     []string `mapstructure:"file_extensions"`

	Log LogConfig `mapstructure:"log"`
}

// RulesConfig holds the ordered classification tables. List order is
// significant: the first matching entry wins.
type RulesConfig struct {
	NotFoundURLs        []RuleConfig      `mapstructure:"notfound_urls"`
	OEmbedURLs          []RuleConfig      `mapstructure:"oembed_urls"`
	NotFoundTests       []RuleConfig      `mapstructure:"notfound_tests"`
	GenericNotFoundTest ContentTestConfig `mapstructure:"generic_notfound_test"`
}

// RuleConfig is one hostname/path rule. Patterns are regular expressions or
// exact strings.
type RuleConfig struct {
	Hostname       string            `mapstructure:"hostname"`
	Path           string            `mapstructure:"path"`
	RedirectPrefix string            `mapstructure:"redirect_prefix"`
	Test           ContentTestConfig `mapstructure:"test"`
}

// ContentTestConfig describes a soft-404 predicate over a response body
type ContentTestConfig struct {
	Contains      []string `mapstructure:"contains"`
	Regex         []string `mapstructure:"regex"`
	TitleContains []string `mapstructure:"title_contains"`
	FoldCase      bool     `mapstructure:"fold_case"`
}

// IsZero reports whether the test has nothing to match
func (c ContentTestConfig) IsZero() bool {
	return len(c.Contains) == 0 && len(c.Regex) == 0 && len(c.TitleContains) == 0
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	NoColor    bool   `mapstructure:"no_color"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Validate checks the configuration for the selected mode
func (c Config) Validate() error {
	if c.UseInitialURLs {
		if len(c.InitialURLs) == 0 {
			return fmt.Errorf("initial_urls is required when use_initial_urls is set")
		}
	} else if len(c.InitialDirectories) == 0 {
		return fmt.Errorf("initial_directories is required when use_initial_urls is not set")
	}

	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}

	if c.Concurrency > 1000 {
		return fmt.Errorf("concurrency too high (max 1000), got %d", c.Concurrency)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %v", c.RateLimit)
	}

	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}

	if c.Retries > 10 {
		return fmt.Errorf("retries too high (max 10), got %d", c.Retries)
	}

	if c.RetriesTimeout < 0 {
		return fmt.Errorf("retries_timeout cannot be negative, got %v", c.RetriesTimeout)
	}

	switch c.VisitedBackend {
	case "", VisitedExact, VisitedBloom:
	default:
		return fmt.Errorf("unknown visited_backend %q", c.VisitedBackend)
	}

	return nil
}

// Visited set backends
const (
	VisitedExact = "exact"
	VisitedBloom = "bloom"
)

// Status classifies a crawl outcome
type Status string

const (
	StatusOK                    Status = "ok"
	StatusSoftNotFound          Status = "soft_not_found"
	StatusHTTPError             Status = "http_error"
	StatusParseError            Status = "parse_error"
	StatusEmptyBody             Status = "empty_body"
	StatusSkippedAlreadyVisited Status = "skipped_already_visited"
	StatusMissingFile           Status = "missing_file"
)

// IsFinding reports whether the status is something the operator should act on
func (s Status) IsFinding() bool {
	switch s {
	case StatusOK, StatusSkippedAlreadyVisited:
		return false
	}
	return true
}

// Outcome is the unit reported to the operator for every checked link
type Outcome struct {
	URL        string
	Referrer   string
	Status     Status
	StatusCode int
	ProbeURL   string
	Internal   bool
	Err        error
}

// Results contains run statistics
type Results struct {
	Discovered int
	Processed  int
	ByStatus   map[Status]int
}

// Findings returns the number of outcomes that are findings
func (r Results) Findings() int {
	total := 0
	for status, n := range r.ByStatus {
		if status.IsFinding() {
			total += n
		}
	}
	return total
}
