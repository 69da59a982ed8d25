package seeding

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	linkhttp "github.com/BenjaminSRussell/linkaudit/internal/http"
	"github.com/BenjaminSRussell/linkaudit/internal/parser"
)

// DiscoverFromSitemap discovers same-host page URLs from the start URL's
// sitemap.xml, sitemap_index.xml and the Sitemap: lines of robots.txt.
// Nested sitemap indexes are followed once each.
func DiscoverFromSitemap(ctx context.Context, client linkhttp.Client, startURL string) ([]string, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid start URL %q: missing host", startURL)
	}

	root := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	sitemapURLs := []string{
		root + "/sitemap.xml",
		root + "/sitemap_index.xml",
	}
	sitemapURLs = append(sitemapURLs, robotsSitemaps(ctx, client, root+"/robots.txt")...)

	d := &discovery{
		client:  client,
		host:    parsedURL.Hostname(),
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
	}
	for _, sitemapURL := range sitemapURLs {
		d.fetchSitemap(ctx, sitemapURL)
	}

	return d.urls, nil
}

type discovery struct {
	client  linkhttp.Client
	host    string
	visited map[string]bool
	seen    map[string]bool
	urls    []string
}

func (d *discovery) fetchSitemap(ctx context.Context, sitemapURL string) {
	if d.visited[sitemapURL] || ctx.Err() != nil {
		return
	}
	d.visited[sitemapURL] = true

	resp, err := d.client.Do(ctx, "GET", sitemapURL)
	if err != nil || !resp.OK() {
		return
	}

	for _, loc := range parser.ExtractSitemapURLs(resp.Body) {
		u, err := url.Parse(loc)
		if err != nil || !strings.EqualFold(u.Hostname(), d.host) {
			continue
		}

		if strings.HasSuffix(strings.ToLower(u.Path), ".xml") {
			d.fetchSitemap(ctx, loc)
			continue
		}

		if key := parser.Normalize(u); !d.seen[key] {
			d.seen[key] = true
			d.urls = append(d.urls, loc)
		}
	}
}

// robotsSitemaps returns the Sitemap: directives of a robots.txt
func robotsSitemaps(ctx context.Context, client linkhttp.Client, robotsURL string) []string {
	resp, err := client.Do(ctx, "GET", robotsURL)
	if err != nil || !resp.OK() {
		return nil
	}

	robots, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		return nil
	}
	return robots.Sitemaps
}
