package http

import (
	"fmt"
	"strings"
)

// DefaultUserAgent identifies requests as Googlebot so sites serve their crawler view
const DefaultUserAgent = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

// ParseHeaders parses "Name: Value" pairs into a header map
func ParseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, found := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid header %q: expected \"Name: Value\"", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// UserAgent returns the User-Agent from headers, matched case-insensitively
func UserAgent(headers map[string]string) string {
	for name, value := range headers {
		if strings.EqualFold(name, "User-Agent") {
			return value
		}
	}
	return DefaultUserAgent
}
