package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandHelp(t *testing.T) {
	out, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, sub := range []string{"run", "crawl", "audit", "classify", "rules"} {
		if !strings.Contains(out, sub) {
			t.Errorf("Expected help to list %s", sub)
		}
	}
}

func TestClassifyCommand(t *testing.T) {
	out, err := execute(t, "classify",
		"https://www.youtube.com/watch?v=XYZ",
		"https://twitter.com/someuser",
		"https://example.com/")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, "HEAD https://www.youtube.com/oembed?format=json&url=https://www.youtube.com/watch?v=XYZ") {
		t.Errorf("Expected oEmbed probe in output, got %s", out)
	}
	if !strings.Contains(out, "always-not-found") {
		t.Errorf("Expected always-not-found action, got %s", out)
	}
	if !strings.Contains(out, "generic") {
		t.Errorf("Expected generic fallback, got %s", out)
	}
}

func TestRulesCommand(t *testing.T) {
	out, err := execute(t, "rules")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, "twitter[.]com") || !strings.Contains(out, "karent[.]jp") {
		t.Errorf("Expected default rules in output, got %s", out)
	}
	if strings.Index(out, "oembed_urls") > strings.Index(out, "notfound_urls") {
		t.Error("Expected oEmbed rules listed first")
	}
	if !strings.Contains(out, `Generic test: soft 404 if contains ["Not Found"]`) {
		t.Errorf("Expected generic test line, got %s", out)
	}
}

func TestAuditCommand(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	if err := os.WriteFile(page, []byte(`<a href="missing.html">gone</a>`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "audit", "--check-local-links", "--rate-limit", "0s", dir)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, "missing.html") || !strings.Contains(out, "missing_file") {
		t.Errorf("Expected missing file in summary, got %s", out)
	}
	if !strings.Contains(out, "Findings: 1") {
		t.Errorf("Expected one finding, got %s", out)
	}
}

func TestCrawlCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`<a href="/gone">gone</a>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	out, err := execute(t, "crawl", "--rate-limit", "0s", "--retries", "1", "-H", "X-Test: 1", server.URL+"/")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !strings.Contains(out, server.URL+"/gone") || !strings.Contains(out, "status 404") {
		t.Errorf("Expected broken link in summary, got %s", out)
	}
}

func TestCrawlCommandRequiresURL(t *testing.T) {
	if _, err := execute(t, "crawl"); err == nil {
		t.Error("Expected error without seed URLs")
	}
}

func TestRunCommandInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkaudit.yaml")
	if err := os.WriteFile(path, []byte("use_initial_urls: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "run", "--config", path); err == nil {
		t.Error("Expected error for config without seeds")
	}
}
