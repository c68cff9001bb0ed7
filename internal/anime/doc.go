// Package anime defines the shared domain types that flow between pipeline
// stages: search candidates, LLM selection verdicts, and enriched catalog
// records. The types are plain data; all behavior lives in the stage packages.
package anime
