package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	linkhttp "github.com/BenjaminSRussell/linkaudit/internal/http"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "linkaudit.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Concurrency != 1 {
		t.Errorf("Expected Concurrency=1, got %d", config.Concurrency)
	}
	if config.Timeout != 10*time.Second || config.RetriesTimeout != 10*time.Second {
		t.Errorf("Expected 10s timeouts, got %v and %v", config.Timeout, config.RetriesTimeout)
	}
	if config.RateLimit != time.Second {
		t.Errorf("Expected RateLimit=1s, got %v", config.RateLimit)
	}
	if config.Retries != 3 || config.RetryBackoffFactor != 1 {
		t.Errorf("Unexpected retry settings %d/%v", config.Retries, config.RetryBackoffFactor)
	}
	if !config.EnableRetry || !config.EnableVisitedGuard || config.VisitedBackend != types.VisitedExact {
		t.Error("Expected retry and visited guard on with the exact backend")
	}
	if linkhttp.UserAgent(config.Headers) != linkhttp.DefaultUserAgent {
		t.Errorf("Expected Googlebot User-Agent, got %v", config.Headers)
	}
	if config.Log.Level != "info" {
		t.Errorf("Expected log level info, got %q", config.Log.Level)
	}

	if len(config.NotFoundURLs) != 21 {
		t.Errorf("Expected 21 notfound_urls, got %d", len(config.NotFoundURLs))
	}
	if config.NotFoundURLs[0].Hostname != "twitter[.]com" {
		t.Errorf("Expected twitter first, got %q", config.NotFoundURLs[0].Hostname)
	}
	if len(config.OEmbedURLs) != 3 || config.OEmbedURLs[0].RedirectPrefix != "https://www.youtube.com/oembed?format=json&url=" {
		t.Errorf("Unexpected oembed_urls %+v", config.OEmbedURLs)
	}
	if len(config.NotFoundTests) != 1 || len(config.NotFoundTests[0].Test.Contains) != 1 {
		t.Errorf("Unexpected notfound_tests %+v", config.NotFoundTests)
	}
	if len(config.GenericNotFoundTest.Contains) != 1 || config.GenericNotFoundTest.Contains[0] != "Not Found" {
		t.Errorf("Unexpected generic test %+v", config.GenericNotFoundTest)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
use_initial_urls: true
initial_urls: ["https://example.com/"]
concurrency: 5
rate_limit: 250ms
dedup_external: true
notfound_urls:
  - { hostname: "example[.]org", path: ".*" }
`)

	config, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !config.UseInitialURLs || len(config.InitialURLs) != 1 {
		t.Errorf("Unexpected seeds %+v", config.InitialURLs)
	}
	if config.Concurrency != 5 || config.RateLimit != 250*time.Millisecond || !config.DedupExternal {
		t.Errorf("Expected file values, got %d %v %v", config.Concurrency, config.RateLimit, config.DedupExternal)
	}
	if len(config.NotFoundURLs) != 1 {
		t.Errorf("Expected file list to replace the defaults, got %d rules", len(config.NotFoundURLs))
	}
	if len(config.OEmbedURLs) != 3 {
		t.Errorf("Expected default oembed_urls kept, got %d", len(config.OEmbedURLs))
	}
	if config.Retries != 3 {
		t.Errorf("Expected default retries kept, got %d", config.Retries)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("LINKAUDIT_CONCURRENCY", "7")
	t.Setenv("LINKAUDIT_LOG_LEVEL", "debug")

	config, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Concurrency != 7 {
		t.Errorf("Expected Concurrency=7 from env, got %d", config.Concurrency)
	}
	if config.Log.Level != "debug" {
		t.Errorf("Expected log level debug from env, got %q", config.Log.Level)
	}
}

func TestLoadFlags(t *testing.T) {
	path := writeConfig(t, "concurrency: 5\n")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("concurrency", 1, "")
	flags.Duration("timeout", 10*time.Second, "")
	flags.Int("retries", 3, "")
	flags.StringArrayP("header", "H", nil, "")
	if err := flags.Parse([]string{"--concurrency=9", "-H", "User-Agent: custom", "-H", "X-Test: 1"}); err != nil {
		t.Fatal(err)
	}

	config, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.Concurrency != 9 {
		t.Errorf("Expected flag to override file, got %d", config.Concurrency)
	}
	if config.Timeout != 10*time.Second || config.Retries != 3 {
		t.Error("Expected unchanged flags not to override")
	}
	if linkhttp.UserAgent(config.Headers) != "custom" {
		t.Errorf("Expected header flag to replace the default User-Agent, got %v", config.Headers)
	}
	if config.Headers["X-Test"] != "1" {
		t.Errorf("Expected X-Test header, got %v", config.Headers)
	}
	if len(config.Headers) != 2 {
		t.Errorf("Expected 2 headers, got %v", config.Headers)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid regex", "notfound_urls:\n  - { hostname: \"(\", path: \".*\" }\n"},
		{"invalid yaml", "concurrency: [\n"},
		{"oembed without prefix", "oembed_urls:\n  - { hostname: \"x\", path: \".*\" }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content), nil); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadInvalidHeaderFlag(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringArrayP("header", "H", nil, "")
	if err := flags.Parse([]string{"-H", "broken"}); err != nil {
		t.Fatal(err)
	}

	if _, err := Load("", flags); err == nil {
		t.Error("Expected error for malformed header")
	}
}
