package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"animeta/internal/pipeline"
)

// RunConfig is written once at run start as batch_config.json.
type RunConfig struct {
	RunID            string `json:"run_id"`
	SourceCSV        string `json:"source_csv"`
	Description      string `json:"description,omitempty"`
	TotalItems       int    `json:"total_items"`
	StartTime        string `json:"start_time"`
	NotionDatabaseID string `json:"notion_database_id,omitempty"`
}

// ItemDetail records one processed title within a run.
type ItemDetail struct {
	Title          string  `json:"title"`
	Index          int     `json:"index"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	FinalStatus    string  `json:"final_status"`
	FailedStage    string  `json:"failed_stage,omitempty"`
	StepsCompleted int     `json:"steps_completed"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	PageURL        string  `json:"page_url,omitempty"`
	CatalogURL     string  `json:"catalog_url,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// ExecutionSummary aggregates run-level counts.
type ExecutionSummary struct {
	TotalItems      int     `json:"total_items"`
	SucceededCount  int     `json:"succeeded_count"`
	PartialCount    int     `json:"partial_count"`
	FailedCount     int     `json:"failed_count"`
	SuccessRate     string  `json:"success_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
	Interrupted     bool    `json:"interrupted,omitempty"`
}

// FailedItem names one non-successful title with its reason.
type FailedItem struct {
	Title       string `json:"title"`
	FailedStage string `json:"failed_stage,omitempty"`
	Reason      string `json:"reason"`
}

// Summary is written once, atomically, as batch_summary.json when the
// run completes or is interrupted.
type Summary struct {
	RunID             string           `json:"run_id"`
	ExecutionSummary  ExecutionSummary `json:"execution_summary"`
	StageStatistics   map[string]int   `json:"stage_statistics"`
	FailedItems       []FailedItem     `json:"failed_items"`
	ProcessingDetails []ItemDetail     `json:"processing_details"`
}

func buildSummary(runID string, details []ItemDetail, duration time.Duration, interrupted bool) Summary {
	summary := Summary{
		RunID:             runID,
		StageStatistics:   make(map[string]int, 4),
		FailedItems:       []FailedItem{},
		ProcessingDetails: details,
	}
	for _, stage := range []string{pipeline.StageSearch, pipeline.StageSelect, pipeline.StageEnrich, pipeline.StagePersist} {
		summary.StageStatistics[stage] = 0
	}
	for _, detail := range details {
		switch detail.FinalStatus {
		case pipeline.StatusSuccess:
			summary.ExecutionSummary.SucceededCount++
		case pipeline.StatusPartial:
			summary.ExecutionSummary.PartialCount++
		default:
			summary.ExecutionSummary.FailedCount++
		}
		if detail.FinalStatus != pipeline.StatusSuccess {
			summary.FailedItems = append(summary.FailedItems, FailedItem{
				Title:       detail.Title,
				FailedStage: detail.FailedStage,
				Reason:      failureReason(detail),
			})
		}
		for i, stage := range []string{pipeline.StageSearch, pipeline.StageSelect, pipeline.StageEnrich, pipeline.StagePersist} {
			if detail.StepsCompleted > i {
				summary.StageStatistics[stage]++
			}
		}
	}
	summary.ExecutionSummary.TotalItems = len(details)
	summary.ExecutionSummary.DurationSeconds = duration.Seconds()
	summary.ExecutionSummary.Interrupted = interrupted
	summary.ExecutionSummary.SuccessRate = successRate(summary.ExecutionSummary.SucceededCount, len(details))
	return summary
}

func successRate(succeeded, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(succeeded)/float64(total)*100)
}

func failureReason(detail ItemDetail) string {
	if detail.Error != "" {
		return detail.Error
	}
	if detail.FailedStage != "" {
		return fmt.Sprintf("failed at %s stage", detail.FailedStage)
	}
	return "unknown failure"
}

// WriteSummary persists the summary atomically under the run directory.
func WriteSummary(runDir string, summary Summary) error {
	return writeJSONAtomic(filepath.Join(runDir, summaryFileName), summary)
}

// LoadSummary reads a prior run's summary from its run directory.
func LoadSummary(runDir string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(runDir, summaryFileName))
	if err != nil {
		return nil, fmt.Errorf("read batch summary: %w", err)
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode batch summary: %w", err)
	}
	return &summary, nil
}

// LoadRunConfig reads a run's batch_config.json.
func LoadRunConfig(runDir string) (*RunConfig, error) {
	data, err := os.ReadFile(filepath.Join(runDir, configFileName))
	if err != nil {
		return nil, fmt.Errorf("read batch config: %w", err)
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode batch config: %w", err)
	}
	return &cfg, nil
}

func detailFromResult(index int, started, finished time.Time, result pipeline.Result) ItemDetail {
	return ItemDetail{
		Title:          result.Title,
		Index:          index,
		StartTime:      started.Format(time.RFC3339),
		EndTime:        finished.Format(time.RFC3339),
		FinalStatus:    result.Status,
		FailedStage:    result.FailedStage(),
		StepsCompleted: result.StepsCompleted,
		ElapsedSeconds: result.ElapsedSeconds,
		PageURL:        result.PageURL,
		CatalogURL:     result.CatalogURL,
		Error:          result.Error,
	}
}
