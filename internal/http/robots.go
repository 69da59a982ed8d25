package http

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsChecker checks and caches robots.txt rules per host
type RobotsChecker struct {
	client    Client
	userAgent string
	cache     sync.Map // map[string]*robotstxt.RobotsData, nil data means allow all
}

// NewRobotsChecker creates a checker that fetches robots.txt through client
func NewRobotsChecker(client Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
	}
}

// IsAllowed reports whether u may be fetched. A missing or unreadable
// robots.txt allows everything.
func (r *RobotsChecker) IsAllowed(ctx context.Context, u *url.URL) bool {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, strings.ToLower(u.Host))

	robots, ok := r.cache.Load(robotsURL)
	if !ok {
		robots, _ = r.cache.LoadOrStore(robotsURL, r.fetch(ctx, robotsURL))
	}

	data, _ := robots.(*robotstxt.RobotsData)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.userAgent)
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	resp, err := r.client.Do(ctx, "GET", robotsURL)
	if err != nil || !resp.OK() {
		return nil
	}

	robots, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		return nil
	}
	return robots
}
