package sanitize

import (
	"errors"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]{2,30}$`)

// ReservedSlugs can never be claimed. They cover admin words and every top
// level route name.
var ReservedSlugs = mapset.NewThreadUnsafeSet(
	"admin", "panel", "api", "login", "register", "settings", "about", "contact", "help", "support",
	"page", "polls", "questions", "l", "upload", "ws", "health", "ping", "my-slug", "claim",
	"badges", "codes", "plans", "subscription", "agencies", "links", "documents", "orders", "push",
)

// Slug validation errors
var (
	ErrInvalidSlug  = errors.New("invalid slug: use 2-30 characters from a-z, 0-9, _ and -")
	ErrReservedSlug = errors.New("this slug is reserved")
)

// NormalizeSlug trims and lower-cases raw
func NormalizeSlug(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateSlug checks a normalized slug against the canonical rule
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	if ReservedSlugs.Contains(slug) {
		return ErrReservedSlug
	}
	return nil
}

// Slug normalizes and validates raw in one step
func Slug(raw string) (string, error) {
	slug := NormalizeSlug(raw)
	return slug, ValidateSlug(slug)
}
