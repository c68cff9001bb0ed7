package logging

// Standardized attribute keys used across components so log lines stay
// greppable regardless of which stage emitted them.
const (
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"
	FieldTitle     = "title"
)
