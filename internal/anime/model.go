package anime

import "strings"

// Candidate is one search-result entry under consideration for matching a
// user's title. Rank is 1-based search order. Candidates are never mutated
// after the resolver produces them.
type Candidate struct {
	Title      string `json:"title"`
	ExternalID string `json:"external_id,omitempty"`
	Rank       int    `json:"rank"`
}

// MatchStatus is the LLM's judgment on whether any candidate matches.
type MatchStatus string

const (
	MatchFound MatchStatus = "match_found"
	NoMatch    MatchStatus = "no_match"
)

// ParseMatchStatus normalizes a raw status string from model output.
// Unrecognized values report ok=false.
func ParseMatchStatus(raw string) (MatchStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "match_found", "match", "found":
		return MatchFound, true
	case "no_match", "nomatch", "none":
		return NoMatch, true
	}
	return "", false
}

// SelectionVerdict is the selector's structured judgment of which candidate
// (if any) matches the user's title. SelectedTitle is set iff Status is
// MatchFound. Confidence is in [0,100]. Fallback marks a rank-1 selection
// taken by the orchestrator after the selector failed or declared no match.
type SelectionVerdict struct {
	Status        MatchStatus `json:"status"`
	SelectedTitle string      `json:"selected_title,omitempty"`
	Confidence    float64     `json:"confidence"`
	Rationale     string      `json:"reason,omitempty"`
	Fallback      bool        `json:"fallback,omitempty"`
}

// AiringStatus classifies where a catalog entry is in its broadcast life.
type AiringStatus string

const (
	StatusOngoing   AiringStatus = "ongoing"
	StatusCompleted AiringStatus = "completed"
	StatusUpcoming  AiringStatus = "upcoming"
	StatusUnknown   AiringStatus = "unknown"
)

// EnrichedRecord holds the detail metadata collected for a resolved catalog
// entry. Optional fields use pointers or empty strings; consumers must omit
// absent fields rather than writing zero values downstream.
type EnrichedRecord struct {
	ExternalID   string       `json:"external_id"`
	Name         string       `json:"name"`
	AirPeriod    string       `json:"air_period,omitempty"`
	Rating       *float64     `json:"rating,omitempty"`
	AiringStatus AiringStatus `json:"airing_status"`
	DetailURL    string       `json:"detail_url,omitempty"`
	CoverURL     string       `json:"cover_url,omitempty"`
	Production   string       `json:"production,omitempty"`
	EpisodeCount *int         `json:"episode_count,omitempty"`
}
