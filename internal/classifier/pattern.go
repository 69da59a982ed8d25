package classifier

import (
	"fmt"
	"regexp"
)

// Pattern matches a hostname or path either as an unanchored regular
// expression or by exact string equality
type Pattern struct {
	raw string
	re  *regexp.Regexp
}

// CompilePattern compiles raw once. An empty pattern matches every value.
func CompilePattern(raw string) (Pattern, error) {
	re, err := regexp.Compile(raw)
	if err != nil {
		return Pattern{}, fmt.Errorf("compile pattern %q: %w", raw, err)
	}
	return Pattern{raw: raw, re: re}, nil
}

// Match tries the regex first, then exact equality
func (p Pattern) Match(value string) bool {
	if p.re != nil && p.re.MatchString(value) {
		return true
	}
	return p.raw == value
}

func (p Pattern) String() string {
	return p.raw
}
