// Package notion implements the persist stage: a REST client for the
// document store, the fixed property mapping of the target database,
// and title-keyed upsert semantics.
package notion
