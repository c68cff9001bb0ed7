// Package selector implements the select stage: prompting the LLM to
// disambiguate search candidates and parsing its verdict through a
// layered fallback ladder.
package selector
