package notion

import (
	"context"
	"errors"
	"testing"

	"animeta/internal/anime"
)

type fakeStore struct {
	queryFn  func(ctx context.Context, title string) (string, error)
	createFn func(ctx context.Context, properties map[string]any) (Page, error)
	updateFn func(ctx context.Context, pageID string, properties map[string]any) (Page, error)
}

func (f *fakeStore) QueryPageByTitle(ctx context.Context, title string) (string, error) {
	return f.queryFn(ctx, title)
}

func (f *fakeStore) CreatePage(ctx context.Context, properties map[string]any) (Page, error) {
	if f.createFn == nil {
		return Page{}, errors.New("create not stubbed")
	}
	return f.createFn(ctx, properties)
}

func (f *fakeStore) UpdatePage(ctx context.Context, pageID string, properties map[string]any) (Page, error) {
	if f.updateFn == nil {
		return Page{}, errors.New("update not stubbed")
	}
	return f.updateFn(ctx, pageID, properties)
}

func TestUpsertCreatesWhenMissing(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, title string) (string, error) {
			return "", nil
		},
		createFn: func(ctx context.Context, properties map[string]any) (Page, error) {
			if _, ok := properties["상태"]; !ok {
				t.Fatal("creation must stamp defaults")
			}
			return Page{ID: "page-1", URL: "https://notion.so/page-1"}, nil
		},
	}

	outcome, err := NewUpserter(store, nil).Upsert(context.Background(), "프리렌", &anime.EnrichedRecord{Name: "장송의 프리렌"})
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if !outcome.Success || !outcome.Created || outcome.PageID != "page-1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestUpsertUpdatesExistingWithoutDefaults(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, title string) (string, error) {
			return "page-9", nil
		},
		updateFn: func(ctx context.Context, pageID string, properties map[string]any) (Page, error) {
			if pageID != "page-9" {
				t.Fatalf("unexpected page id %q", pageID)
			}
			if _, ok := properties["상태"]; ok {
				t.Fatal("update must not stamp creation defaults")
			}
			return Page{ID: "page-9", URL: "https://notion.so/page-9"}, nil
		},
	}

	outcome, err := NewUpserter(store, nil).Upsert(context.Background(), "프리렌", nil)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if !outcome.Success || outcome.Created {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestUpsertNilRecordIsPlaceholder(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, title string) (string, error) {
			return "", nil
		},
		createFn: func(ctx context.Context, properties map[string]any) (Page, error) {
			if _, ok := properties["라프텔 제목"]; ok {
				t.Fatal("placeholder must not carry metadata properties")
			}
			return Page{ID: "page-2", URL: "https://notion.so/page-2"}, nil
		},
	}

	outcome, err := NewUpserter(store, nil).Upsert(context.Background(), "미확인 작품", nil)
	if err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}
	if !outcome.Success || !outcome.Created {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestUpsertSurfacesWriteFailure(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, title string) (string, error) {
			return "", nil
		},
		createFn: func(ctx context.Context, properties map[string]any) (Page, error) {
			return Page{}, errors.New("create page: http 400: validation_error")
		},
	}

	outcome, err := NewUpserter(store, nil).Upsert(context.Background(), "제목", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome.Success || outcome.Error == "" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestUpsertSurfacesLookupFailure(t *testing.T) {
	store := &fakeStore{
		queryFn: func(ctx context.Context, title string) (string, error) {
			return "", errors.New("query page by title: failed after 3 attempts")
		},
	}

	outcome, err := NewUpserter(store, nil).Upsert(context.Background(), "제목", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if outcome.Success {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}
