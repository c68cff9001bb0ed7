package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteCSV writes a title CSV with a header row into dir and returns
// its path. Rows are written verbatim, so blank entries stay blank.
func WriteCSV(t testing.TB, dir, name string, titles ...string) string {
	t.Helper()

	lines := append([]string{"title"}, titles...)
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
