// Package naming normalizes OpenAPI identifiers into the names used by
// generated CLIs: kebab-case for commands, groups and flags, snake_case for
// variables and modules.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lower = cases.Lower(language.Und)

// Kebab converts an identifier such as "GetUserById", "user_id" or
// "API Keys" to "get-user-by-id", "user-id" and "api-keys".
func Kebab(s string) string {
	return join(words(s), "-")
}

// Snake converts an identifier to snake_case.
func Snake(s string) string {
	return join(words(s), "_")
}

// Slug converts free text (such as a path) to a lower snake slug, keeping
// the casing boundaries of the original segments intact.
func Slug(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func join(parts []string, sep string) string {
	for i, p := range parts {
		parts[i] = lower.String(p)
	}
	return strings.Join(parts, sep)
}

// words splits s on separators and case boundaries. Acronyms stay together:
// "HTTPServer" yields "HTTP", "Server".
func words(s string) []string {
	runes := []rune(strings.TrimSpace(s))
	var out []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return out
}
