package domain

import (
	"strings"
	"unicode"
)

// SanitizeString trims s and collapses every run of internal whitespace into a
// single space.
func SanitizeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
