package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become underscores; other
// unsafe characters are removed. Non-ASCII text (Korean titles in
// particular) passes through untouched so artifact files stay readable.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "untitled"
	}
	out := strings.TrimSpace(fileNameReplacer.Replace(name))
	if out == "" {
		return "untitled"
	}
	return out
}

// Truncate shortens a string to at most limit runes, appending an ellipsis
// marker when truncation occurred. Used for log snippets of model output.
func Truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
