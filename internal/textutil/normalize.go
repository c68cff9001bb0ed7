package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle trims whitespace and applies NFC normalization so that
// decomposed Hangul (as produced by some filesystems and copy/paste paths)
// compares equal to its composed form.
func NormalizeTitle(title string) string {
	return norm.NFC.String(strings.TrimSpace(title))
}

// EqualTitles reports whether two titles match after normalization.
func EqualTitles(a, b string) bool {
	return NormalizeTitle(a) == NormalizeTitle(b)
}
