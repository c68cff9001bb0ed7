package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"animeta/internal/anime"
	"animeta/internal/logging"
	"animeta/internal/notion"
	"animeta/internal/resolver"
	"animeta/internal/services"
	"animeta/internal/textutil"
)

// fallbackConfidence marks a rank-1 selection taken without a model
// verdict.
const fallbackConfidence = 50

// Resolver runs the search stage.
type Resolver interface {
	Resolve(ctx context.Context, userTitle string) (*resolver.Outcome, error)
}

// Selector runs the select stage.
type Selector interface {
	Select(ctx context.Context, userTitle string, candidates []anime.Candidate) (anime.SelectionVerdict, error)
}

// Enricher runs the enrich stage.
type Enricher interface {
	Enrich(ctx context.Context, selectedTitle string) (*anime.EnrichedRecord, error)
}

// Upserter runs the persist stage.
type Upserter interface {
	Upsert(ctx context.Context, userTitle string, record *anime.EnrichedRecord) (notion.UpsertOutcome, error)
}

// Pipeline drives one title through the four-stage state machine.
type Pipeline struct {
	resolver Resolver
	selector Selector
	enricher Enricher
	upserter Upserter
	logger   *slog.Logger
}

// New wires the four stages into a pipeline.
func New(resolver Resolver, selector Selector, enricher Enricher, upserter Upserter, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		resolver: resolver,
		selector: selector,
		enricher: enricher,
		upserter: upserter,
		logger:   logger,
	}
}

// Process runs one title to a terminal Result. It never returns an
// error for a single-item failure; every path ends in a Result with a
// terminal status. Seeded artifacts short-circuit their stages; sink,
// when non-nil, receives every stage's raw output.
func (p *Pipeline) Process(ctx context.Context, userTitle string, seed Seed, sink ArtifactSink) Result {
	started := time.Now()
	userTitle = textutil.NormalizeTitle(userTitle)
	result := Result{
		Title:     userTitle,
		RequestID: uuid.NewString(),
	}
	logger := p.logger.With(
		logging.String(logging.FieldRequestID, result.RequestID),
		logging.String(logging.FieldTitle, userTitle))

	defer func() {
		result.ElapsedSeconds = time.Since(started).Seconds()
	}()

	// Stage 1: search.
	searchOutcome := p.runSearch(ctx, userTitle, seed, sink, logger, &result)
	if searchOutcome == nil || len(searchOutcome.Candidates) == 0 {
		return p.persistPlaceholder(ctx, userTitle, sink, logger, result)
	}

	// Stage 2: select, with the rank-1 fallback on failure or NO_MATCH.
	verdict, ok := p.runSelect(ctx, userTitle, searchOutcome.Candidates, seed, sink, logger, &result)
	if !ok {
		return p.persistPlaceholder(ctx, userTitle, sink, logger, result)
	}

	// Stage 3: enrich; failure degrades to a null record.
	record := p.runEnrich(ctx, verdict.SelectedTitle, seed, sink, logger, &result)

	// Stage 4: persist.
	return p.persistFinal(ctx, userTitle, record, sink, logger, result)
}

func (p *Pipeline) runSearch(ctx context.Context, userTitle string, seed Seed, sink ArtifactSink, logger *slog.Logger, result *Result) *resolver.Outcome {
	if seed.Search != nil {
		logger.Info("search stage reused from artifact")
		p.saveArtifact(sink, StageSearch, seed.Search, logger)
		result.Stages = append(result.Stages, StageOutcome{
			Stage:   StageSearch,
			Success: seed.Search.Success,
			Error:   seed.Search.Error,
		})
		if !seed.Search.Success {
			return nil
		}
		return seed.Search
	}

	stageStart := time.Now()
	outcome, err := p.resolver.Resolve(ctx, userTitle)
	stage := StageOutcome{
		Stage:           StageSearch,
		DurationSeconds: time.Since(stageStart).Seconds(),
	}
	if err != nil {
		stage.Error = err.Error()
		stage.ErrorClass = services.Classify(err)
		result.Error = stage.Error
		logger.Warn("search stage failed",
			logging.String("error_class", stage.ErrorClass),
			logging.Error(err))
	} else {
		stage.Success = true
	}
	result.Stages = append(result.Stages, stage)
	if outcome != nil {
		p.saveArtifact(sink, StageSearch, outcome, logger)
	}
	if err != nil {
		return nil
	}
	return outcome
}

func (p *Pipeline) runSelect(ctx context.Context, userTitle string, candidates []anime.Candidate, seed Seed, sink ArtifactSink, logger *slog.Logger, result *Result) (anime.SelectionVerdict, bool) {
	if seed.Select != nil {
		logger.Info("select stage reused from artifact")
		p.saveArtifact(sink, StageSelect, seed.Select, logger)
		verdict := seed.Select.Verdict
		usable := verdict.Status == anime.MatchFound && verdict.SelectedTitle != ""
		result.Stages = append(result.Stages, StageOutcome{
			Stage:   StageSelect,
			Success: usable,
			Error:   seed.Select.Error,
		})
		return verdict, usable
	}

	stageStart := time.Now()
	verdict, err := p.selector.Select(ctx, userTitle, candidates)
	stage := StageOutcome{
		Stage:           StageSelect,
		DurationSeconds: time.Since(stageStart).Seconds(),
	}

	if err != nil || verdict.Status != anime.MatchFound {
		reason := "model declared no match"
		if err != nil {
			reason = err.Error()
			stage.ErrorClass = services.Classify(err)
		}
		// Rank-1 fallback: trade precision for completeness rather
		// than aborting while at least one candidate exists.
		first := candidates[0]
		verdict = anime.SelectionVerdict{
			Status:        anime.MatchFound,
			SelectedTitle: first.Title,
			Confidence:    fallbackConfidence,
			Rationale:     reason,
			Fallback:      true,
		}
		stage.Success = true
		stage.Error = fmt.Sprintf("fell back to rank-1 candidate: %s", reason)
		logger.Warn("selection fell back to rank-1 candidate",
			logging.String("selected_title", first.Title),
			logging.String("error_class", stage.ErrorClass),
			logging.String("reason", reason))
	} else {
		stage.Success = true
	}

	result.Stages = append(result.Stages, stage)
	p.saveArtifact(sink, StageSelect, &SelectArtifact{
		UserInput:      userTitle,
		CandidateCount: len(candidates),
		Verdict:        verdict,
		Error:          stage.Error,
	}, logger)
	return verdict, true
}

func (p *Pipeline) runEnrich(ctx context.Context, selectedTitle string, seed Seed, sink ArtifactSink, logger *slog.Logger, result *Result) *anime.EnrichedRecord {
	if seed.Enrich != nil {
		logger.Info("enrich stage reused from artifact")
		p.saveArtifact(sink, StageEnrich, seed.Enrich, logger)
		result.Stages = append(result.Stages, StageOutcome{
			Stage:   StageEnrich,
			Success: true,
			Error:   seed.Enrich.Error,
		})
		return seed.Enrich.Record
	}

	stageStart := time.Now()
	record, err := p.enricher.Enrich(ctx, selectedTitle)
	stage := StageOutcome{
		Stage:           StageEnrich,
		Success:         true,
		DurationSeconds: time.Since(stageStart).Seconds(),
	}
	artifact := &EnrichArtifact{SelectedTitle: selectedTitle, Record: record}
	if err != nil {
		// Enrichment failure is not fatal; the upsert proceeds with a
		// null record.
		stage.Error = fmt.Sprintf("degraded to null record: %s", err.Error())
		stage.ErrorClass = services.Classify(err)
		artifact.Error = err.Error()
		logger.Warn("enrichment degraded to null record",
			logging.String("error_class", stage.ErrorClass),
			logging.Error(err))
		record = nil
		artifact.Record = nil
	}
	result.Stages = append(result.Stages, stage)
	p.saveArtifact(sink, StageEnrich, artifact, logger)
	return record
}

// persistPlaceholder is the short-circuit path for runs where search
// or selection produced nothing usable.
func (p *Pipeline) persistPlaceholder(ctx context.Context, userTitle string, sink ArtifactSink, logger *slog.Logger, result Result) Result {
	logger.Info("persisting placeholder record")
	outcome, stage := p.upsert(ctx, userTitle, nil, sink, logger)
	result.Stages = append(result.Stages, stage)
	result.StepsCompleted = stepsCompleted(result.Stages)
	result.PageURL = outcome.PageURL
	if !outcome.Success {
		result.Status = StatusFailed
		if result.Error == "" {
			result.Error = outcome.Error
		}
		return result
	}
	result.Status = StatusPartial
	return result
}

func (p *Pipeline) persistFinal(ctx context.Context, userTitle string, record *anime.EnrichedRecord, sink ArtifactSink, logger *slog.Logger, result Result) Result {
	outcome, stage := p.upsert(ctx, userTitle, record, sink, logger)
	result.Stages = append(result.Stages, stage)
	result.StepsCompleted = stepsCompleted(result.Stages)
	result.PageURL = outcome.PageURL
	if record != nil {
		result.CatalogURL = record.DetailURL
	}
	if !outcome.Success {
		result.Status = StatusFailed
		result.Error = outcome.Error
		return result
	}
	result.Status = StatusSuccess
	logger.Info("pipeline complete",
		logging.String("status", result.Status),
		logging.Int("steps_completed", result.StepsCompleted))
	return result
}

func (p *Pipeline) upsert(ctx context.Context, userTitle string, record *anime.EnrichedRecord, sink ArtifactSink, logger *slog.Logger) (notion.UpsertOutcome, StageOutcome) {
	stageStart := time.Now()
	outcome, err := p.upserter.Upsert(ctx, userTitle, record)
	stage := StageOutcome{
		Stage:           StagePersist,
		Success:         outcome.Success,
		DurationSeconds: time.Since(stageStart).Seconds(),
	}
	if err != nil {
		stage.Error = err.Error()
		stage.ErrorClass = services.Classify(err)
	}
	p.saveArtifact(sink, StagePersist, &PersistArtifact{UserInput: userTitle, Outcome: outcome}, logger)
	return outcome, stage
}

func (p *Pipeline) saveArtifact(sink ArtifactSink, stage string, payload any, logger *slog.Logger) {
	if sink == nil {
		return
	}
	if err := sink.SaveStageArtifact(stage, payload); err != nil {
		logger.Warn("stage artifact write failed",
			logging.String(logging.FieldStage, stage),
			logging.Error(err))
	}
}
