// Package services defines the error taxonomy and in-stage retry policy
// shared by every external-service integration. Stage code wraps failures
// with services.Wrap so the orchestrator and batch summaries can classify
// them without string matching.
package services
