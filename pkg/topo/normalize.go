package topo

import "strings"

// FallbackName is substituted for any missing or empty grouping field.
const FallbackName = "unknown"

// normalize trims a grouping field and substitutes the fallback literal for
// null/empty values. Display always keeps the normalized (untouched beyond
// trimming) string; only ids go through Slug.
func normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return FallbackName
	}
	return s
}

// Slug lowers a display string into an id-safe fragment: lowercase, only
// [a-z0-9-_:.] survive, every run of other characters collapses to a single
// dash, and leading/trailing dashes are stripped.
func Slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == ':', r == '.':
			b.WriteRune(r)
			lastDash = r == '-'
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return FallbackName
	}
	return out
}
