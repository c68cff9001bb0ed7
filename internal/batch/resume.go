package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"animeta/internal/anime"
	"animeta/internal/logging"
	"animeta/internal/pipeline"
	"animeta/internal/resolver"
	"animeta/internal/textutil"
)

// PlanItem describes one failed title scheduled for reprocessing.
type PlanItem struct {
	Title       string `json:"title"`
	Index       int    `json:"index"`
	FinalStatus string `json:"final_status"`
	FailedStage string `json:"failed_stage"`
	ResumeStage string `json:"resume_stage"`
	Reason      string `json:"reason"`
}

// ResumeOptions narrows and controls a resume invocation.
type ResumeOptions struct {
	// Item restricts the resume to a single title when non-empty.
	Item string
	// DryRun plans the resume without executing the pipeline.
	DryRun bool
}

// ResumeReport is the outcome of a resume invocation. Summary is nil
// for dry runs.
type ResumeReport struct {
	RunID   string
	Plan    []PlanItem
	Summary *Summary
}

// PlanResume selects the non-successful items of a prior run and
// determines the stage each should restart from.
func PlanResume(summary *Summary, onlyItem string) ([]PlanItem, error) {
	onlyItem = textutil.NormalizeTitle(onlyItem)
	var plan []PlanItem
	for _, detail := range summary.ProcessingDetails {
		if detail.FinalStatus == pipeline.StatusSuccess {
			continue
		}
		if onlyItem != "" && detail.Title != onlyItem {
			continue
		}
		failedStage := detail.FailedStage
		if failedStage == "" {
			failedStage = pipeline.StageSearch
		}
		plan = append(plan, PlanItem{
			Title:       detail.Title,
			Index:       detail.Index,
			FinalStatus: detail.FinalStatus,
			FailedStage: failedStage,
			ResumeStage: failedStage,
			Reason:      failureReason(detail),
		})
	}
	if onlyItem != "" && len(plan) == 0 {
		return nil, fmt.Errorf("no failed item named %q in run summary", onlyItem)
	}
	return plan, nil
}

// Resume reprocesses the failed items of a prior run, reusing saved
// stage artifacts for the stages before each item's failure point.
// Items whose artifacts are missing or unusable fall back to full
// reprocessing. The run summary is rewritten with the new outcomes.
func (r *Runner) Resume(ctx context.Context, runDir string, opts ResumeOptions) (*ResumeReport, error) {
	summary, err := LoadSummary(runDir)
	if err != nil {
		return nil, err
	}

	plan, err := PlanResume(summary, opts.Item)
	if err != nil {
		return nil, err
	}
	report := &ResumeReport{RunID: summary.RunID, Plan: plan}
	if opts.DryRun || len(plan) == 0 {
		return report, nil
	}

	lock := flock.New(filepath.Join(runDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("run %s is already being processed", summary.RunID)
	}
	defer lock.Unlock()

	started := r.now()
	interrupted := false
	for _, item := range plan {
		if ctx.Err() != nil {
			r.logger.Warn("resume interrupted",
				logging.String(logging.FieldRunID, summary.RunID),
				logging.String(logging.FieldTitle, item.Title))
			interrupted = true
			break
		}

		seed, reused := r.buildSeed(runDir, item)
		if !reused && item.ResumeStage != pipeline.StageSearch {
			r.logger.Warn("stage artifacts unusable, reprocessing from search",
				logging.String(logging.FieldRunID, summary.RunID),
				logging.String(logging.FieldTitle, item.Title),
				logging.String(logging.FieldStage, item.ResumeStage))
		}

		itemStarted := r.now()
		sink := newArtifactStore(runDir, item.Index, item.Title)
		result := r.processor.Process(ctx, item.Title, seed, sink)
		detail := detailFromResult(item.Index, itemStarted, r.now(), result)
		replaceDetail(summary, detail)

		r.logger.Info("item reprocessed",
			logging.String(logging.FieldRunID, summary.RunID),
			logging.String(logging.FieldTitle, item.Title),
			logging.String("status", result.Status))
	}

	rebuilt := buildSummary(summary.RunID, summary.ProcessingDetails, time.Duration(summary.ExecutionSummary.DurationSeconds*float64(time.Second))+r.now().Sub(started), interrupted)
	if err := WriteSummary(runDir, rebuilt); err != nil {
		return nil, err
	}
	report.Summary = &rebuilt
	return report, nil
}

// buildSeed loads the artifacts of the stages before the resume stage.
// It reports false when any needed artifact is missing or cannot carry
// the pipeline forward, in which case the item reruns from search.
func (r *Runner) buildSeed(runDir string, item PlanItem) (pipeline.Seed, bool) {
	var seed pipeline.Seed

	stageIndex := map[string]int{
		pipeline.StageSearch:  0,
		pipeline.StageSelect:  1,
		pipeline.StageEnrich:  2,
		pipeline.StagePersist: 3,
	}
	resume, ok := stageIndex[item.ResumeStage]
	if !ok || resume == 0 {
		return pipeline.Seed{}, false
	}

	if resume > 0 {
		var outcome resolver.Outcome
		if err := loadArtifact(runDir, pipeline.StageSearch, item.Index, item.Title, &outcome); err != nil {
			return pipeline.Seed{}, false
		}
		if !outcome.Success || len(outcome.Candidates) == 0 {
			return pipeline.Seed{}, false
		}
		seed.Search = &outcome
	}
	if resume > 1 {
		var artifact pipeline.SelectArtifact
		if err := loadArtifact(runDir, pipeline.StageSelect, item.Index, item.Title, &artifact); err != nil {
			return pipeline.Seed{}, false
		}
		if artifact.Verdict.Status != anime.MatchFound || artifact.Verdict.SelectedTitle == "" {
			return pipeline.Seed{}, false
		}
		seed.Select = &artifact
	}
	if resume > 2 {
		var artifact pipeline.EnrichArtifact
		if err := loadArtifact(runDir, pipeline.StageEnrich, item.Index, item.Title, &artifact); err != nil {
			return pipeline.Seed{}, false
		}
		seed.Enrich = &artifact
	}
	return seed, true
}

func replaceDetail(summary *Summary, detail ItemDetail) {
	for i, existing := range summary.ProcessingDetails {
		if existing.Index == detail.Index && existing.Title == detail.Title {
			summary.ProcessingDetails[i] = detail
			return
		}
	}
	summary.ProcessingDetails = append(summary.ProcessingDetails, detail)
}

// FindRunDir resolves a run id or path to a run directory under the
// output root. An id of "latest" picks the most recent run.
func FindRunDir(outputRoot, runID string) (string, error) {
	if runID == "" || runID == "latest" {
		runs, err := ListRuns(outputRoot)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errors.New("no batch runs found")
		}
		return runs[0].Path, nil
	}
	if filepath.IsAbs(runID) {
		return runID, nil
	}
	return filepath.Join(outputRoot, runID), nil
}
