// Package config loads, normalizes, and validates animeta configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and NOTION_TOKEN after an optional .env load. The Config
// type centralizes every knob the CLI and API server need, so run output
// directories and external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
