package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxBodyBytes = 10 * 1024 * 1024 // 10 MB
)

// ErrInvalidRequest marks requests that could not be built; they are never retried
var ErrInvalidRequest = errors.New("invalid request")

// Response is a fully read HTTP response
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx
func (r *Response) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Client performs a single HTTP request
type Client interface {
	Do(ctx context.Context, method, rawURL string) (*Response, error)
}

// ClientConfig configures the standard client
type ClientConfig struct {
	Timeout      time.Duration
	Headers      map[string]string
	MaxBodyBytes int64
	Concurrency  int
}

// StdClient implements Client over net/http with static headers
type StdClient struct {
	client  *http.Client
	headers http.Header
	maxBody int64
}

// NewClient creates a client. Timeout bounds each request including the body read.
func NewClient(config ClientConfig) *StdClient {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}

	headers := make(http.Header)
	for name, value := range config.Headers {
		headers.Set(name, value)
	}

	return &StdClient{
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        config.Concurrency * 2,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: headers,
		maxBody: config.MaxBodyBytes,
	}
}

// Do performs one request and reads the body
func (c *StdClient) Do(ctx context.Context, method, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	for name, values := range c.headers {
		req.Header[name] = values
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result := &Response{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
	}

	if method == http.MethodHead {
		return result, nil
	}

	body, err := c.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	result.Body = body

	return result, nil
}

// readBody reads at most maxBody bytes, decoding text bodies to UTF-8
func (c *StdClient) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = io.LimitReader(resp.Body, c.maxBody)

	contentType := resp.Header.Get("Content-Type")
	if isText(contentType) {
		decoded, err := charset.NewReader(reader, contentType)
		if err == nil {
			reader = decoded
		}
	}

	return io.ReadAll(reader)
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml") || strings.HasPrefix(ct, "text/")
}
