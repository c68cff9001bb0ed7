// Package llm wraps an OpenAI-compatible chat completion API with
// JSON-only prompting, response sanitization, and fixed-delay retries.
package llm
