// Package textutil provides small text helpers shared across the pipeline:
// filesystem-safe filename sanitization for artifact files and Unicode
// normalization for title comparison.
package textutil
