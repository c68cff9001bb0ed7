package resolver

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"animeta/internal/anime"
	"animeta/internal/catalog"
	"animeta/internal/logging"
	"animeta/internal/services"
	"animeta/internal/textutil"
)

// DefaultMaxCandidates caps how many search results become candidates.
// Later stages, especially the LLM call, scale with candidate count.
const DefaultMaxCandidates = 20

// Season markers are tried in order and only the first match is
// stripped. Patterns anchor at the end of the title so embedded
// season-like words survive.
var seasonMarkerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*1기\s*$`),
	regexp.MustCompile(`\s*2기\s*$`),
	regexp.MustCompile(`\s*3기\s*$`),
	regexp.MustCompile(`\s*4기\s*$`),
	regexp.MustCompile(`\s*5기\s*$`),
	regexp.MustCompile(`\s*시즌\s*\d+\s*$`),
	regexp.MustCompile(`(?i)\s*Season\s*\d+\s*$`),
}

// TrimSeasonMarkers removes a trailing season marker from a title.
// Titles without a recognized marker pass through unchanged.
func TrimSeasonMarkers(title string) string {
	for _, pattern := range seasonMarkerPatterns {
		if pattern.MatchString(title) {
			return strings.TrimSpace(pattern.ReplaceAllString(title, ""))
		}
	}
	return strings.TrimSpace(title)
}

// Outcome captures the result of the search stage. Zero results is a
// legitimate outcome, not a failure.
type Outcome struct {
	Success    bool              `json:"success"`
	UserInput  string            `json:"user_input"`
	QueryUsed  string            `json:"query_used"`
	Candidates []anime.Candidate `json:"candidates"`
	TotalFound int               `json:"total_found"`
	Error      string            `json:"error,omitempty"`
}

// Resolver turns a raw user title into a ranked candidate list.
type Resolver struct {
	client        catalog.API
	maxCandidates int
	policy        services.Policy
	logger        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRetryPolicy overrides the retry policy used for catalog calls.
func WithRetryPolicy(policy services.Policy) Option {
	return func(r *Resolver) {
		r.policy = policy
	}
}

// WithMaxCandidates overrides the candidate cap.
func WithMaxCandidates(limit int) Option {
	return func(r *Resolver) {
		if limit > 0 {
			r.maxCandidates = limit
		}
	}
}

// New constructs a Resolver backed by the supplied catalog client.
func New(client catalog.API, logger *slog.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	resolver := &Resolver{
		client:        client,
		maxCandidates: DefaultMaxCandidates,
		policy:        services.DefaultPolicy(),
		logger:        logger.With(logging.String(logging.FieldStage, "search")),
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// Resolve searches the catalog for the supplied title and returns the
// ranked candidates. Transport failures are retried within the stage;
// an exhausted retry budget returns an Outcome with success=false
// alongside the wrapped error.
func (r *Resolver) Resolve(ctx context.Context, userTitle string) (*Outcome, error) {
	normalized := textutil.NormalizeTitle(userTitle)
	query := TrimSeasonMarkers(normalized)
	outcome := &Outcome{UserInput: normalized, QueryUsed: query}

	if query != normalized {
		r.logger.Info("season marker stripped",
			logging.String(logging.FieldTitle, normalized),
			logging.String("query", query))
	}

	var resp *catalog.SearchResponse
	err := r.policy.Do(ctx, func() error {
		searched, searchErr := r.client.Search(ctx, query, r.maxCandidates)
		if searchErr != nil {
			return services.Wrap(services.ErrTransient, "search", "keyword query", "catalog unreachable", searchErr)
		}
		resp = searched
		return nil
	})
	if err != nil {
		outcome.Error = err.Error()
		r.logger.Error("catalog search failed",
			logging.String(logging.FieldTitle, normalized),
			logging.Error(err))
		return outcome, err
	}

	outcome.Success = true
	outcome.TotalFound = resp.Count
	if outcome.TotalFound < len(resp.Results) {
		outcome.TotalFound = len(resp.Results)
	}

	limit := r.maxCandidates
	if limit > len(resp.Results) {
		limit = len(resp.Results)
	}
	for i := 0; i < limit; i++ {
		result := resp.Results[i]
		outcome.Candidates = append(outcome.Candidates, anime.Candidate{
			Title:      textutil.NormalizeTitle(result.Name),
			ExternalID: strconv.FormatInt(result.ID, 10),
			Rank:       i + 1,
		})
	}

	r.logger.Info("search complete",
		logging.String(logging.FieldTitle, normalized),
		logging.String("query", query),
		logging.Int("total_found", outcome.TotalFound),
		logging.Int("candidates", len(outcome.Candidates)))
	return outcome, nil
}
