package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(ErrTransient, "search", "keyword query", "catalog unreachable", base)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected wrapped error to match ErrTransient")
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped error to keep the cause chain")
	}
	want := "transient failure: search: keyword query: catalog unreachable: connection reset"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "persist", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to transient")
	}
}

func TestWrapEmptyDetail(t *testing.T) {
	err := Wrap(ErrNotFound, "", "", "", nil)
	if err.Error() != "not found: service failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{Wrap(ErrConfiguration, "startup", "", "missing token", nil), "configuration"},
		{Wrap(ErrSelectorUnavailable, "select", "", "", nil), "selector_unavailable"},
		{Wrap(ErrParse, "select", "", "", nil), "parse_failure"},
		{Wrap(ErrRateLimited, "persist", "", "", nil), "rate_limited"},
		{Wrap(ErrNotFound, "search", "", "", nil), "not_found"},
		{errors.New("anything else"), "transient"},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
