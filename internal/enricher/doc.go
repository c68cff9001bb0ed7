// Package enricher implements the enrich stage: exact-title
// re-resolution and layered per-field extraction from the catalog's
// inconsistent detail schema.
package enricher
