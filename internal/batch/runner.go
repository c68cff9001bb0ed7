package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"animeta/internal/logging"
	"animeta/internal/notifications"
	"animeta/internal/pipeline"
	"animeta/internal/textutil"
)

// Processor runs the four-stage pipeline for one title. Satisfied by
// *pipeline.Pipeline.
type Processor interface {
	Process(ctx context.Context, title string, seed pipeline.Seed, sink pipeline.ArtifactSink) pipeline.Result
}

// Runner executes CSV-driven batch runs, one title at a time, writing
// stage artifacts and a final summary under a run directory.
type Runner struct {
	outputRoot string
	processor  Processor
	notifier   notifications.Service
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner creates a batch runner rooted at outputRoot.
func NewRunner(outputRoot string, processor Processor, notifier notifications.Service, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService("", 0)
	}
	return &Runner{
		outputRoot: outputRoot,
		processor:  processor,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "batch"),
		now:        time.Now,
	}
}

// LoadTitles reads an ordered title list from a CSV file. The header
// row and blank rows are skipped; only the first column is used.
func LoadTitles(csvPath string) ([]string, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var titles []string
	first := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(row) == 0 {
			continue
		}
		title := strings.TrimSpace(row[0])
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles, nil
}

// NewRunID builds a run identifier from the start time and CSV stem.
func NewRunID(csvPath string, now time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath))
	return fmt.Sprintf("%s_%s_batch", now.Format("2006-01-02_150405"), stem)
}

// Run processes every title in the CSV in order and returns the final
// summary and the run directory. Interrupts stop the loop before the
// next title and still produce a partial summary.
func (r *Runner) Run(ctx context.Context, csvPath, description string) (*Summary, string, error) {
	titles, err := LoadTitles(csvPath)
	if err != nil {
		return nil, "", err
	}
	if len(titles) == 0 {
		return nil, "", errors.New("csv contains no titles")
	}

	started := r.now()
	runID := NewRunID(csvPath, started)
	runDir := filepath.Join(r.outputRoot, runID)
	if _, err := os.Stat(runDir); err == nil {
		runID = fmt.Sprintf("%s_%s", runID, uuid.NewString()[:8])
		runDir = filepath.Join(r.outputRoot, runID)
	}
	if err := ensureRunDirs(runDir); err != nil {
		return nil, "", err
	}

	lock := flock.New(filepath.Join(runDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, "", fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, "", fmt.Errorf("run %s is already being processed", runID)
	}
	defer lock.Unlock()

	runConfig := RunConfig{
		RunID:       runID,
		SourceCSV:   csvPath,
		Description: description,
		TotalItems:  len(titles),
		StartTime:   started.Format(time.RFC3339),
	}
	if err := writeJSON(filepath.Join(runDir, configFileName), runConfig); err != nil {
		return nil, "", err
	}

	r.logger.Info("batch run started",
		logging.String(logging.FieldRunID, runID),
		logging.Int("total_items", len(titles)),
		logging.String("run_dir", runDir))
	if err := r.notifier.NotifyBatchStarted(ctx, runID, len(titles)); err != nil {
		r.logger.Warn("batch start notification failed", logging.Error(err))
	}

	details := make([]ItemDetail, 0, len(titles))
	interrupted := false
	for i, title := range titles {
		if ctx.Err() != nil {
			r.logger.Warn("batch interrupted",
				logging.String(logging.FieldRunID, runID),
				logging.Int("processed", i),
				logging.Int("total", len(titles)))
			interrupted = true
			break
		}

		// Artifact filenames, summary titles, and resume lookups must
		// all use the composed spelling.
		title = textutil.NormalizeTitle(title)
		index := i + 1
		itemStarted := r.now()
		sink := newArtifactStore(runDir, index, title)
		result := r.processor.Process(ctx, title, pipeline.Seed{}, sink)
		details = append(details, detailFromResult(index, itemStarted, r.now(), result))

		if result.Status != pipeline.StatusSuccess {
			reason := result.Error
			if reason == "" {
				reason = fmt.Sprintf("failed at %s stage", result.FailedStage())
			}
			if err := r.notifier.NotifyItemFailed(ctx, title, reason); err != nil {
				r.logger.Warn("item failure notification failed", logging.Error(err))
			}
		}

		r.logger.Info("batch item processed",
			logging.String(logging.FieldRunID, runID),
			logging.String(logging.FieldTitle, title),
			logging.Int("index", index),
			logging.Int("total", len(titles)),
			logging.String("status", result.Status))
	}

	summary := buildSummary(runID, details, r.now().Sub(started), interrupted)
	if err := WriteSummary(runDir, summary); err != nil {
		return nil, "", err
	}

	exec := summary.ExecutionSummary
	if err := r.notifier.NotifyBatchCompleted(ctx, runID, exec.SucceededCount, exec.PartialCount, exec.FailedCount, r.now().Sub(started)); err != nil {
		r.logger.Warn("batch completion notification failed", logging.Error(err))
	}
	r.logger.Info("batch run finished",
		logging.String(logging.FieldRunID, runID),
		logging.Int("succeeded", exec.SucceededCount),
		logging.Int("partial", exec.PartialCount),
		logging.Int("failed", exec.FailedCount))
	return &summary, runDir, nil
}

func ensureRunDirs(runDir string) error {
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}
	for _, dir := range stageDirs {
		if err := os.MkdirAll(filepath.Join(runDir, dir), 0o755); err != nil {
			return fmt.Errorf("create stage directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunInfo describes one run directory under the output root.
type RunInfo struct {
	RunID      string
	Path       string
	HasSummary bool
	Summary    *Summary
}

// ListRuns enumerates run directories under outputRoot, newest first
// by directory name (run ids sort chronologically).
func ListRuns(outputRoot string) ([]RunInfo, error) {
	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read output root: %w", err)
	}
	var runs []RunInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info := RunInfo{RunID: entry.Name(), Path: filepath.Join(outputRoot, entry.Name())}
		if summary, err := LoadSummary(info.Path); err == nil {
			info.HasSummary = true
			info.Summary = summary
		}
		runs = append(runs, info)
	}
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	return runs, nil
}
