// Package resolver implements the search stage: title normalization,
// season-marker trimming, and ranked candidate collection.
package resolver
