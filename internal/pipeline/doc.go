// Package pipeline orchestrates the four-stage state machine that
// turns one user title into a persisted catalog page, absorbing stage
// failures into terminal partial or failed results.
package pipeline
