package selector

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"animeta/internal/anime"
	"animeta/internal/logging"
	"animeta/internal/services"
)

// DefaultWallClockBudget bounds one selection call end to end,
// including the completer's internal retries.
const DefaultWallClockBudget = 60 * time.Second

// Completer issues a JSON-only chat completion.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Selector asks the model which candidate matches the user's title.
type Selector struct {
	completer Completer
	budget    time.Duration
	logger    *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithWallClockBudget overrides the per-call time budget.
func WithWallClockBudget(budget time.Duration) Option {
	return func(s *Selector) {
		if budget > 0 {
			s.budget = budget
		}
	}
}

// New constructs a Selector backed by the supplied completer.
func New(completer Completer, logger *slog.Logger, opts ...Option) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	selector := &Selector{
		completer: completer,
		budget:    DefaultWallClockBudget,
		logger:    logger.With(logging.String(logging.FieldStage, "select")),
	}
	for _, opt := range opts {
		opt(selector)
	}
	return selector
}

// Select judges the candidates against the original user title. The
// title passed here must be the unmodified user input, not the
// search-trimmed query, so season markers stay visible to the model.
// Parse failures are terminal; completion failures surface with the
// selector-unavailable marker once the completer's retries exhaust.
func (s *Selector) Select(ctx context.Context, userTitle string, candidates []anime.Candidate) (anime.SelectionVerdict, error) {
	var empty anime.SelectionVerdict
	if len(candidates) == 0 {
		return empty, services.Wrap(services.ErrConfiguration, "select", "", "candidate list empty", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.budget)
	defer cancel()

	raw, err := s.completer.CompleteJSON(callCtx, SystemPrompt, BuildUserPrompt(userTitle, candidates))
	if err != nil {
		message := "model unavailable"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "wall clock budget exceeded"
		}
		wrapped := services.Wrap(services.ErrSelectorUnavailable, "select", "chat completion", message, err)
		s.logger.Error("selection call failed",
			logging.String(logging.FieldTitle, userTitle),
			logging.Error(wrapped))
		return empty, wrapped
	}

	verdict, err := ParseVerdict(raw, candidates)
	if err != nil {
		s.logger.Error("selection parse failed",
			logging.String(logging.FieldTitle, userTitle),
			logging.Error(err))
		return empty, err
	}

	s.logger.Info("selection verdict",
		logging.String(logging.FieldTitle, userTitle),
		logging.String("status", string(verdict.Status)),
		logging.String("selected_title", verdict.SelectedTitle),
		logging.Float64("confidence", verdict.Confidence))
	return verdict, nil
}
