package parser

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fileBase is the base used to tell absolute hrefs from relative ones
var fileBase = &url.URL{Scheme: "file", Path: "/"}

// ExtractHrefs returns the raw href of every anchor in document order.
// Empty hrefs are dropped; duplicates are kept.
func ExtractHrefs(body []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	hrefs := make([]string, 0)
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		if href, exists := s.Attr("href"); exists && strings.TrimSpace(href) != "" {
			hrefs = append(hrefs, href)
		}
	})

	return hrefs, nil
}

// ExtractTitle returns the trimmed text of the first <title> element
func ExtractTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// IsMailto reports whether href is a mailto link
func IsMailto(href string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(href)), "mailto:")
}

// IsAbsoluteHref reports whether href is already an absolute URL, i.e.
// resolving it against file:/// gives back the same string.
func IsAbsoluteHref(href string) bool {
	ref, err := url.Parse(href)
	if err != nil {
		return false
	}
	return fileBase.ResolveReference(ref).String() == href
}

// Resolve converts href to an absolute URL against base
func Resolve(base *url.URL, href string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil, fmt.Errorf("parse href %q: %w", href, err)
	}
	return base.ResolveReference(ref), nil
}

// Normalize returns the canonical key for u: lower-case scheme and host,
// no fragment, and "/" for an empty path.
func Normalize(u *url.URL) string {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = strings.ToLower(n.Host)
	n.Fragment = ""
	n.RawFragment = ""
	if n.Opaque == "" && n.Path == "" && n.RawPath == "" {
		n.Path = "/"
	}
	return n.String()
}

// ExtractSitemapURLs extracts <loc> URLs from a sitemap or sitemap index
func ExtractSitemapURLs(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	urls := make([]string, 0)
	doc.Find("loc").Each(func(i int, s *goquery.Selection) {
		if loc := strings.TrimSpace(s.Text()); loc != "" {
			urls = append(urls, loc)
		}
	})

	return urls
}
