package notion

import (
	"context"
	"log/slog"

	"animeta/internal/anime"
	"animeta/internal/logging"
)

// PageStore is the document-store surface the upserter needs.
type PageStore interface {
	QueryPageByTitle(ctx context.Context, title string) (string, error)
	CreatePage(ctx context.Context, properties map[string]any) (Page, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]any) (Page, error)
}

var _ PageStore = (*Client)(nil)

// UpsertOutcome captures the result of the persist stage.
type UpsertOutcome struct {
	Success bool   `json:"success"`
	PageID  string `json:"page_id,omitempty"`
	PageURL string `json:"page_url,omitempty"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

// Upserter writes one page per title into the document store. Title
// equality is the de facto primary key; duplicate titles in the store
// are a known inconsistency the upserter does not reconcile.
type Upserter struct {
	store  PageStore
	logger *slog.Logger
}

// NewUpserter constructs an Upserter over the supplied store.
func NewUpserter(store PageStore, logger *slog.Logger) *Upserter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Upserter{
		store:  store,
		logger: logger.With(logging.String(logging.FieldStage, "persist")),
	}
}

// Upsert finds the page for userTitle and patches it, or creates a new
// page with creation-only defaults. A nil record still produces a
// placeholder write carrying only the title.
func (u *Upserter) Upsert(ctx context.Context, userTitle string, record *anime.EnrichedRecord) (UpsertOutcome, error) {
	pageID, err := u.store.QueryPageByTitle(ctx, userTitle)
	if err != nil {
		u.logger.Error("page lookup failed",
			logging.String(logging.FieldTitle, userTitle),
			logging.Error(err))
		return UpsertOutcome{Error: err.Error()}, err
	}

	var page Page
	created := pageID == ""
	if created {
		page, err = u.store.CreatePage(ctx, BuildProperties(userTitle, record, true))
	} else {
		page, err = u.store.UpdatePage(ctx, pageID, BuildProperties(userTitle, record, false))
	}
	if err != nil {
		u.logger.Error("page write failed",
			logging.String(logging.FieldTitle, userTitle),
			logging.Bool("created", created),
			logging.Error(err))
		return UpsertOutcome{Created: created, Error: err.Error()}, err
	}

	u.logger.Info("page upserted",
		logging.String(logging.FieldTitle, userTitle),
		logging.Bool("created", created),
		logging.String("page_url", page.URL),
		logging.Bool("placeholder", record == nil))
	return UpsertOutcome{
		Success: true,
		PageID:  page.ID,
		PageURL: page.URL,
		Created: created,
	}, nil
}
