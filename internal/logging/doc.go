// Package logging assembles the structured slog loggers used across animeta.
//
// It centralizes level and output plumbing for the console and JSON handlers,
// exposes attr helpers and standardized field names so every stage emits data
// with the same shape, and provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
