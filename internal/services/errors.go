package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classify failures by how the pipeline should react:
// transient errors are retried in place, not-found is a legitimate empty
// outcome, parse failures and configuration errors are terminal, and
// rate-limit errors get their own retry bucket so they are not logged as
// failures until attempts are exhausted.
var (
	ErrTransient           = errors.New("transient failure")
	ErrNotFound            = errors.New("not found")
	ErrParse               = errors.New("parse failure")
	ErrRateLimited         = errors.New("rate limited")
	ErrConfiguration       = errors.New("configuration error")
	ErrSelectorUnavailable = errors.New("selector unavailable")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the taxonomy bucket name for an error, for logs and
// summaries.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrSelectorUnavailable):
		return "selector_unavailable"
	case errors.Is(err, ErrParse):
		return "parse_failure"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
