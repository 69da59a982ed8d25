package classifier

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/BenjaminSRussell/linkaudit/internal/parser"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// ContentTest is a soft-404 predicate over a response body. It matches when
// any of its needles is found.
type ContentTest struct {
	contains []string
	regex    []*regexp.Regexp
	title    []string
	foldCase bool
}

// NewContentTest compiles a content test
func NewContentTest(cfg types.ContentTestConfig) (*ContentTest, error) {
	t := &ContentTest{foldCase: cfg.FoldCase}

	for _, s := range cfg.Contains {
		t.contains = append(t.contains, t.fold(s))
	}
	for _, s := range cfg.TitleContains {
		t.title = append(t.title, t.fold(s))
	}
	for _, expr := range cfg.Regex {
		if cfg.FoldCase {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile content regex %q: %w", expr, err)
		}
		t.regex = append(t.regex, re)
	}

	return t, nil
}

// Match reports whether body looks like a not-found page
func (t *ContentTest) Match(body []byte) bool {
	if t == nil || len(body) == 0 {
		return false
	}

	text := body
	if t.foldCase {
		text = bytes.ToLower(body)
	}

	for _, needle := range t.contains {
		if bytes.Contains(text, []byte(needle)) {
			return true
		}
	}

	for _, re := range t.regex {
		if re.Match(body) {
			return true
		}
	}

	if len(t.title) > 0 {
		title := t.fold(parser.ExtractTitle(body))
		for _, needle := range t.title {
			if strings.Contains(title, needle) {
				return true
			}
		}
	}

	return false
}

func (t *ContentTest) String() string {
	if t == nil {
		return "never"
	}

	var parts []string
	if len(t.contains) > 0 {
		parts = append(parts, fmt.Sprintf("contains %q", t.contains))
	}
	for _, re := range t.regex {
		parts = append(parts, fmt.Sprintf("regex %q", re.String()))
	}
	if len(t.title) > 0 {
		parts = append(parts, fmt.Sprintf("title contains %q", t.title))
	}
	if len(parts) == 0 {
		return "never"
	}
	s := strings.Join(parts, " or ")
	if t.foldCase {
		s += " (case-folded)"
	}
	return s
}

func (t *ContentTest) fold(s string) string {
	if t.foldCase {
		return strings.ToLower(s)
	}
	return s
}
