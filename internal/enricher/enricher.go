package enricher

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"animeta/internal/anime"
	"animeta/internal/catalog"
	"animeta/internal/logging"
	"animeta/internal/services"
	"animeta/internal/textutil"
)

// Enricher collects detail metadata for a selected title.
type Enricher struct {
	client catalog.API
	policy services.Policy
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithRetryPolicy overrides the retry policy used per catalog call.
func WithRetryPolicy(policy services.Policy) Option {
	return func(e *Enricher) {
		e.policy = policy
	}
}

// WithClock overrides the clock used for recency checks.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		if now != nil {
			e.now = now
		}
	}
}

// New constructs an Enricher backed by the supplied catalog client.
func New(client catalog.API, logger *slog.Logger, opts ...Option) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	enricher := &Enricher{
		client: client,
		policy: services.DefaultPolicy(),
		logger: logger.With(logging.String(logging.FieldStage, "enrich")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(enricher)
	}
	return enricher
}

// Enrich re-resolves the selected title to its catalog entry and
// builds an EnrichedRecord from the detail payload. Each external call
// retries independently; exhausted retries fail the whole call. The
// caller decides what a failure means for the run.
func (e *Enricher) Enrich(ctx context.Context, selectedTitle string) (*anime.EnrichedRecord, error) {
	selectedTitle = textutil.NormalizeTitle(selectedTitle)

	id, matchedName, err := e.resolveEntry(ctx, selectedTitle)
	if err != nil {
		return nil, err
	}

	var detail *catalog.Detail
	err = e.policy.Do(ctx, func() error {
		fetched, fetchErr := e.client.Detail(ctx, id)
		if fetchErr != nil {
			return services.Wrap(services.ErrTransient, "enrich", "fetch detail", "catalog detail unavailable", fetchErr)
		}
		detail = fetched
		return nil
	})
	if err != nil {
		e.logger.Error("detail fetch failed",
			logging.String(logging.FieldTitle, selectedTitle),
			logging.Error(err))
		return nil, err
	}

	record := &anime.EnrichedRecord{
		ExternalID:   strconv.FormatInt(id, 10),
		Name:         textutil.NormalizeTitle(firstNonEmpty(detail.Name, matchedName)),
		AirPeriod:    detail.AirYearQuarter,
		Rating:       detail.AvgRating,
		AiringStatus: airingStatusFrom(detail, e.now()),
		DetailURL:    catalog.ItemURL(id),
		CoverURL:     coverURLFrom(detail),
		Production:   detail.Production,
	}
	if count, ok := e.episodeCount(ctx, id, detail); ok {
		record.EpisodeCount = &count
	}

	e.logger.Info("enrichment complete",
		logging.String(logging.FieldTitle, selectedTitle),
		logging.String("external_id", record.ExternalID),
		logging.String("airing_status", string(record.AiringStatus)))
	return record, nil
}

// resolveEntry issues a fresh exact-title search and picks the entry
// whose name equals the selection. A missing exact match degrades to
// the first result, logged as approximate.
func (e *Enricher) resolveEntry(ctx context.Context, selectedTitle string) (int64, string, error) {
	var resp *catalog.SearchResponse
	err := e.policy.Do(ctx, func() error {
		searched, searchErr := e.client.Search(ctx, selectedTitle, 20)
		if searchErr != nil {
			return services.Wrap(services.ErrTransient, "enrich", "exact re-resolve", "catalog unreachable", searchErr)
		}
		resp = searched
		return nil
	})
	if err != nil {
		e.logger.Error("re-resolve failed",
			logging.String(logging.FieldTitle, selectedTitle),
			logging.Error(err))
		return 0, "", err
	}
	if len(resp.Results) == 0 {
		return 0, "", services.Wrap(services.ErrNotFound, "enrich", "exact re-resolve", "no catalog entry for selected title", nil)
	}

	for _, result := range resp.Results {
		if textutil.EqualTitles(result.Name, selectedTitle) {
			return result.ID, result.Name, nil
		}
	}

	first := resp.Results[0]
	e.logger.Warn("approximate match used",
		logging.String(logging.FieldTitle, selectedTitle),
		logging.String("matched_name", first.Name))
	return first.ID, first.Name, nil
}

// episodeCount walks the fallback chain: explicit detail fields, the
// episodes endpoint, tag text, then the ended-TV heuristic. The
// endpoint call is best effort and never fails the stage.
func (e *Enricher) episodeCount(ctx context.Context, id int64, detail *catalog.Detail) (int, bool) {
	if count, ok := episodeCountFromDetail(detail); ok {
		return count, true
	}

	var page *catalog.EpisodePage
	err := e.policy.Do(ctx, func() error {
		fetched, fetchErr := e.client.Episodes(ctx, id)
		if fetchErr != nil {
			return services.Wrap(services.ErrTransient, "enrich", "episode listing", "catalog episodes unavailable", fetchErr)
		}
		page = fetched
		return nil
	})
	if err != nil {
		e.logger.Warn("episode listing failed",
			logging.Int64("item_id", id),
			logging.Error(err))
	} else if page != nil {
		if page.Count > 0 {
			return page.Count, true
		}
		if len(page.Results) > 0 {
			return len(page.Results), true
		}
	}

	if count, ok := episodeCountFromTags(detail.Tags); ok {
		return count, true
	}
	return episodeCountHeuristic(detail)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
