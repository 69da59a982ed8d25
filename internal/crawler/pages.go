package crawler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/BenjaminSRussell/linkaudit/internal/parser"
	"github.com/BenjaminSRussell/linkaudit/internal/seeding"
	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// CrawlURLs crawls every same-host page reachable from seeds and checks
// each outbound link once per referring page
func (c *Crawler) CrawlURLs(ctx context.Context, seeds []string) (*types.Results, error) {
	c.log.Info().Strs("seeds", seeds).Int("concurrency", c.config.Concurrency).Msg("Starting crawl")

	for _, seed := range seeds {
		u, err := url.Parse(strings.TrimSpace(seed))
		if err != nil || !isWebURL(u) {
			c.report(types.Outcome{
				URL:      seed,
				Status:   types.StatusParseError,
				Internal: true,
				Err:      &ParseError{Href: seed, Page: "seed list", Err: err},
			})
			continue
		}

		c.submitPage(ctx, u, "")

		if c.config.SeedSitemaps {
			c.seedFromSitemap(ctx, u)
		}
	}

	c.wait()
	return c.results(), nil
}

func (c *Crawler) seedFromSitemap(ctx context.Context, seed *url.URL) {
	urls, err := seeding.DiscoverFromSitemap(ctx, c.client, seed.String())
	if err != nil {
		c.log.Warn().Str("url", seed.String()).Err(err).Msg("Sitemap seeding failed")
		return
	}

	added := 0
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || !strings.EqualFold(u.Hostname(), seed.Hostname()) {
			continue
		}
		c.submitPage(ctx, u, seed.String())
		added++
	}
	c.log.Info().Str("url", seed.String()).Int("added", added).Msg("Added URLs from sitemap")
}

func (c *Crawler) submitPage(ctx context.Context, u *url.URL, referrer string) {
	c.submit(ctx, u.String(), func(ctx context.Context) error {
		c.processPage(ctx, u, referrer)
		return nil
	})
}

// processPage claims, fetches and parses one internal page, queueing its links
func (c *Crawler) processPage(ctx context.Context, u *url.URL, referrer string) {
	target := u.String()
	outcome := types.Outcome{URL: target, Referrer: referrer, Internal: true}

	if c.visited != nil && !c.visited.Claim(parser.Normalize(u)) {
		outcome.Status = types.StatusSkippedAlreadyVisited
		c.report(outcome)
		return
	}

	if c.robots != nil && !c.robots.IsAllowed(ctx, u) {
		c.log.Info().Str("url", target).Msg("Blocked by robots.txt")
		return
	}

	c.processed.Add(1)

	resp, err := c.fetcher.Fetch(ctx, target, http.MethodGet)
	if err != nil {
		c.report(fetchFailure(outcome, err))
		return
	}
	outcome.StatusCode = resp.StatusCode

	if len(resp.Body) == 0 {
		outcome.Status = types.StatusEmptyBody
		outcome.Err = &EmptyBodyError{URL: target}
		c.report(outcome)
		return
	}

	hrefs, err := parser.ExtractHrefs(resp.Body)
	if err != nil {
		outcome.Status = types.StatusParseError
		outcome.Err = err
		c.report(outcome)
		return
	}

	outcome.Status = types.StatusOK
	c.report(outcome)

	for _, href := range hrefs {
		if parser.IsMailto(href) {
			continue
		}

		child, err := parser.Resolve(u, href)
		if err != nil {
			c.report(types.Outcome{
				URL:      href,
				Referrer: target,
				Status:   types.StatusParseError,
				Err:      &ParseError{Href: href, Page: target, Err: err},
			})
			continue
		}

		if !isWebURL(child) {
			c.log.Debug().Str("href", href).Str("referrer", target).Msg("Skipping non-web link")
			continue
		}
		child.Fragment = ""
		child.RawFragment = ""

		if strings.EqualFold(child.Hostname(), u.Hostname()) {
			c.submitPage(ctx, child, target)
		} else {
			c.submitExternal(ctx, child, target)
		}
	}
}
