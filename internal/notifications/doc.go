// Package notifications delivers batch milestones via ntfy.
//
// The service publishes to the topic configured in config.toml and
// gracefully degrades to a no-op when no topic is set, so callers
// never need to guard their notify calls.
package notifications
