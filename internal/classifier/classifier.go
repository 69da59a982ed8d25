package classifier

import (
	"fmt"
	"net/url"

	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// Kind is what an external check should do with a URL
type Kind int

const (
	// KindInspect fetches the URL and runs a content test on the body
	KindInspect Kind = iota
	// KindProbe sends a HEAD to an oEmbed endpoint instead of the URL
	KindProbe
	// KindAlwaysNotFound fetches for reachability only
	KindAlwaysNotFound
)

func (k Kind) String() string {
	switch k {
	case KindProbe:
		return "probe"
	case KindAlwaysNotFound:
		return "always-not-found"
	default:
		return "inspect"
	}
}

// Table names
const (
	TableOEmbed   = "oembed_urls"
	TableNotFound = "notfound_urls"
	TableTests    = "notfound_tests"
)

// Rule is a compiled hostname/path rule
type Rule struct {
	Table          string
	Index          int
	Hostname       Pattern
	Path           Pattern
	RedirectPrefix string
	Test           *ContentTest
}

// Matches reports whether both the hostname and the path patterns match u
func (r *Rule) Matches(u *url.URL) bool {
	return r.Hostname.Match(u.Hostname()) && r.Path.Match(matchPath(u))
}

func (r *Rule) String() string {
	return fmt.Sprintf("%s[%d] hostname=%q path=%q", r.Table, r.Index, r.Hostname, r.Path)
}

// Action is the classification of one URL
type Action struct {
	Kind     Kind
	ProbeURL string
	Test     *ContentTest
	Rule     *Rule
}

// Classifier maps external URLs to check actions. Rule lists are read-only
// after New and safe for concurrent use.
type Classifier struct {
	oembed   []*Rule
	notFound []*Rule
	tests    []*Rule
	generic  *ContentTest
}

// New compiles every rule table. An invalid pattern is an error.
func New(cfg types.RulesConfig) (*Classifier, error) {
	c := &Classifier{}

	var err error
	if c.oembed, err = compileRules(TableOEmbed, cfg.OEmbedURLs); err != nil {
		return nil, err
	}
	if c.notFound, err = compileRules(TableNotFound, cfg.NotFoundURLs); err != nil {
		return nil, err
	}
	if c.tests, err = compileRules(TableTests, cfg.NotFoundTests); err != nil {
		return nil, err
	}
	if c.generic, err = NewContentTest(cfg.GenericNotFoundTest); err != nil {
		return nil, fmt.Errorf("generic_notfound_test: %w", err)
	}

	for _, r := range c.oembed {
		if r.RedirectPrefix == "" {
			return nil, fmt.Errorf("%s: redirect_prefix is required", r)
		}
	}
	for i, r := range c.tests {
		if cfg.NotFoundTests[i].Test.IsZero() {
			return nil, fmt.Errorf("%s: test is required", r)
		}
	}

	return c, nil
}

// Classify returns the action for u. Priority: oEmbed probe, always-404,
// host content test, generic content test. The first matching rule in each
// table wins.
func (c *Classifier) Classify(u *url.URL) Action {
	if r := firstMatch(c.oembed, u); r != nil {
		return Action{Kind: KindProbe, ProbeURL: r.RedirectPrefix + u.String(), Rule: r}
	}

	if r := firstMatch(c.notFound, u); r != nil {
		return Action{Kind: KindAlwaysNotFound, Rule: r}
	}

	if r := firstMatch(c.tests, u); r != nil {
		return Action{Kind: KindInspect, Test: r.Test, Rule: r}
	}

	return Action{Kind: KindInspect, Test: c.generic}
}

// Rules returns every rule in evaluation order
func (c *Classifier) Rules() []*Rule {
	rules := make([]*Rule, 0, len(c.oembed)+len(c.notFound)+len(c.tests))
	rules = append(rules, c.oembed...)
	rules = append(rules, c.notFound...)
	return append(rules, c.tests...)
}

// Generic returns the fallback content test
func (c *Classifier) Generic() *ContentTest {
	return c.generic
}

func compileRules(table string, cfgs []types.RuleConfig) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(cfgs))
	for i, rc := range cfgs {
		host, err := CompilePattern(rc.Hostname)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] hostname: %w", table, i, err)
		}
		path, err := CompilePattern(rc.Path)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] path: %w", table, i, err)
		}

		rule := &Rule{
			Table:          table,
			Index:          i,
			Hostname:       host,
			Path:           path,
			RedirectPrefix: rc.RedirectPrefix,
		}
		if !rc.Test.IsZero() {
			if rule.Test, err = NewContentTest(rc.Test); err != nil {
				return nil, fmt.Errorf("%s[%d] test: %w", table, i, err)
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func firstMatch(rules []*Rule, u *url.URL) *Rule {
	for _, r := range rules {
		if r.Matches(u) {
			return r
		}
	}
	return nil
}

func matchPath(u *url.URL) string {
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}
