package pipeline

import (
	"animeta/internal/anime"
	"animeta/internal/notion"
	"animeta/internal/resolver"
)

// Stage names in canonical execution order.
const (
	StageSearch  = "search"
	StageSelect  = "select"
	StageEnrich  = "enrich"
	StagePersist = "persist"
)

var stageOrder = []string{StageSearch, StageSelect, StageEnrich, StagePersist}

// Terminal statuses of one pipeline run.
const (
	StatusSuccess = "success"
	StatusPartial = "partial_success"
	StatusFailed  = "failed"
)

// StageOutcome records one stage transition. A degraded completion
// (fallback selection, null-record enrichment) still counts as
// success; Error then carries the degradation reason and ErrorClass
// the taxonomy bucket of the underlying error.
type StageOutcome struct {
	Stage           string  `json:"stage"`
	Success         bool    `json:"success"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error,omitempty"`
	ErrorClass      string  `json:"error_class,omitempty"`
}

// Result is the terminal outcome of one title's pipeline run. Each
// Result is exclusively owned by its run; nothing here is shared.
type Result struct {
	Title          string         `json:"title"`
	RequestID      string         `json:"request_id"`
	Status         string         `json:"status"`
	CatalogURL     string         `json:"catalog_url,omitempty"`
	PageURL        string         `json:"page_url,omitempty"`
	Error          string         `json:"error,omitempty"`
	Stages         []StageOutcome `json:"stages"`
	StepsCompleted int            `json:"steps_completed"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
}

// FailedStage names the first canonical stage that did not complete
// successfully, or "" for a fully successful run. Resume uses it to
// decide where to restart.
func (r Result) FailedStage() string {
	completed := make(map[string]bool, len(r.Stages))
	for _, stage := range r.Stages {
		if stage.Success {
			completed[stage.Stage] = true
		}
	}
	for _, stage := range stageOrder {
		if !completed[stage] {
			return stage
		}
	}
	return ""
}

func stepsCompleted(stages []StageOutcome) int {
	completed := make(map[string]bool, len(stages))
	for _, stage := range stages {
		if stage.Success {
			completed[stage.Stage] = true
		}
	}
	steps := 0
	for _, stage := range stageOrder {
		if !completed[stage] {
			break
		}
		steps++
	}
	return steps
}

// SelectArtifact is the persisted raw output of the select stage.
type SelectArtifact struct {
	UserInput      string                 `json:"user_input"`
	CandidateCount int                    `json:"candidate_count"`
	Verdict        anime.SelectionVerdict `json:"verdict"`
	Error          string                 `json:"error,omitempty"`
}

// EnrichArtifact is the persisted raw output of the enrich stage. A
// nil Record with an Error means the stage degraded to a null record.
type EnrichArtifact struct {
	SelectedTitle string               `json:"selected_title"`
	Record        *anime.EnrichedRecord `json:"record,omitempty"`
	Error         string               `json:"error,omitempty"`
}

// PersistArtifact is the persisted raw output of the persist stage.
type PersistArtifact struct {
	UserInput string               `json:"user_input"`
	Outcome   notion.UpsertOutcome `json:"outcome"`
}

// Seed carries previously saved stage artifacts for a resumed item.
// A populated field short-circuits that stage; the zero value runs
// the full pipeline.
type Seed struct {
	Search *resolver.Outcome
	Select *SelectArtifact
	Enrich *EnrichArtifact
}

// ArtifactSink receives each stage's raw output for persistence.
// Implementations must tolerate any JSON-serializable payload.
type ArtifactSink interface {
	SaveStageArtifact(stage string, payload any) error
}
