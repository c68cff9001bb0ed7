package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"animeta/internal/pipeline"
	"animeta/internal/textutil"
)

const (
	configFileName  = "batch_config.json"
	summaryFileName = "batch_summary.json"
	lockFileName    = "batch.lock"
)

var stageDirs = map[string]string{
	pipeline.StageSearch:  "search_results",
	pipeline.StageSelect:  "select_results",
	pipeline.StageEnrich:  "enrich_results",
	pipeline.StagePersist: "persist_results",
}

// artifactStore persists one item's raw stage outputs under the run
// directory. It implements pipeline.ArtifactSink.
type artifactStore struct {
	runDir string
	index  int
	title  string
}

func newArtifactStore(runDir string, index int, title string) *artifactStore {
	return &artifactStore{runDir: runDir, index: index, title: title}
}

func (s *artifactStore) SaveStageArtifact(stage string, payload any) error {
	dir, ok := stageDirs[stage]
	if !ok {
		return fmt.Errorf("unknown stage %q", stage)
	}
	path := filepath.Join(s.runDir, dir, artifactFileName(stage, s.index, s.title))
	return writeJSON(path, payload)
}

func artifactFileName(stage string, index int, title string) string {
	return fmt.Sprintf("%s_%02d_%s.json", stage, index, textutil.SanitizeFileName(title))
}

// ArtifactPath returns the on-disk location of one stage artifact.
func ArtifactPath(runDir, stage string, index int, title string) string {
	return filepath.Join(runDir, stageDirs[stage], artifactFileName(stage, index, title))
}

func loadArtifact(runDir, stage string, index int, title string, out any) error {
	path := ArtifactPath(runDir, stage, index, title)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("artifact %s missing: %w", filepath.Base(path), err)
		}
		return fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

// writeJSON writes human-diffable UTF-8 JSON without HTML escaping so
// Korean titles and URLs stay readable.
func writeJSON(path string, payload any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return file.Close()
}

// writeJSONAtomic writes via a temporary file and rename so readers
// never observe a partially written document.
func writeJSONAtomic(path string, payload any) error {
	tmpPath := path + ".tmp"
	if err := writeJSON(tmpPath, payload); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
