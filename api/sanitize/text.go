// Package sanitize normalizes user supplied page content before it is stored.
// Every function is pure: the same input always yields the same output, and
// sanitizing an already sanitized value is a no-op.
package sanitize

import (
	"net/url"
	"strings"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
)

// Text trims s and caps it at max runes
func Text(s string, max int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

// URL returns s trimmed and capped when it is an absolute http(s) URL, and
// the empty string otherwise
func URL(s string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > max {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return s
}

// oneOf returns v when allowed contains it and fallback otherwise
func oneOf(v string, allowed mapset.Set[string], fallback string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if allowed.Contains(v) {
		return v
	}
	return fallback
}
