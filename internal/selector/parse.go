package selector

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"animeta/internal/anime"
	"animeta/internal/services"
	"animeta/internal/services/llm"
	"animeta/internal/textutil"
)

var markerPhrases = []string{"선택:", "Selected:", "selected:"}

var ordinalPattern = regexp.MustCompile(`(?m)(?:^|\s)(\d{1,2})\.`)

// ParseVerdict interprets raw model output against the candidate list.
// Three shapes are tried in priority order: a JSON verdict object, a
// marker phrase naming a candidate, and an ordinal reference to a rank.
// When all three fail the error carries the parse-failure marker, which
// is terminal for the stage rather than retried.
func ParseVerdict(raw string, candidates []anime.Candidate) (anime.SelectionVerdict, error) {
	var empty anime.SelectionVerdict
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return empty, services.Wrap(services.ErrParse, "select", "parse verdict", "empty model output", nil)
	}

	if verdict, ok := parseJSONVerdict(trimmed, candidates); ok {
		return verdict, nil
	}
	if verdict, ok := parseMarkerPhrase(trimmed, candidates); ok {
		return verdict, nil
	}
	if verdict, ok := parseOrdinal(trimmed, candidates); ok {
		return verdict, nil
	}
	return empty, services.Wrap(services.ErrParse, "select", "parse verdict",
		"no recognized verdict shape", errors.New(textutil.Truncate(trimmed, 100)))
}

func parseJSONVerdict(raw string, candidates []anime.Candidate) (anime.SelectionVerdict, bool) {
	var empty anime.SelectionVerdict
	var payload struct {
		Status        string  `json:"status"`
		SelectedTitle string  `json:"selected_title"`
		Confidence    float64 `json:"confidence"`
		Reason        string  `json:"reason"`
	}
	if err := llm.DecodeLLMJSON(raw, &payload); err != nil {
		return empty, false
	}

	status, recognized := anime.ParseMatchStatus(payload.Status)
	selected := strings.TrimSpace(payload.SelectedTitle)
	if !recognized {
		// Some replies skip status but still name a candidate.
		if selected == "" {
			return empty, false
		}
		status = anime.MatchFound
	}
	if status == anime.NoMatch {
		return anime.SelectionVerdict{
			Status:     anime.NoMatch,
			Confidence: 0,
			Rationale:  strings.TrimSpace(payload.Reason),
		}, true
	}
	if selected == "" {
		return empty, false
	}
	confidence := payload.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return anime.SelectionVerdict{
		Status:        anime.MatchFound,
		SelectedTitle: canonicalTitle(selected, candidates),
		Confidence:    confidence,
		Rationale:     strings.TrimSpace(payload.Reason),
	}, true
}

func parseMarkerPhrase(raw string, candidates []anime.Candidate) (anime.SelectionVerdict, bool) {
	var empty anime.SelectionVerdict
	for _, marker := range markerPhrases {
		idx := strings.Index(raw, marker)
		if idx < 0 {
			continue
		}
		rest := raw[idx+len(marker):]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[:nl]
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			continue
		}
		if candidate, ok := matchCandidate(rest, candidates); ok {
			return anime.SelectionVerdict{
				Status:        anime.MatchFound,
				SelectedTitle: candidate.Title,
				Confidence:    90,
				Rationale:     raw,
			}, true
		}
	}
	return empty, false
}

func parseOrdinal(raw string, candidates []anime.Candidate) (anime.SelectionVerdict, bool) {
	var empty anime.SelectionVerdict
	match := ordinalPattern.FindStringSubmatch(raw)
	if match == nil {
		return empty, false
	}
	rank, err := strconv.Atoi(match[1])
	if err != nil {
		return empty, false
	}
	for _, candidate := range candidates {
		if candidate.Rank == rank {
			return anime.SelectionVerdict{
				Status:        anime.MatchFound,
				SelectedTitle: candidate.Title,
				Confidence:    85,
				Rationale:     raw,
			}, true
		}
	}
	return empty, false
}

// canonicalTitle maps a model-emitted title back to the candidate list
// so downstream stages work with catalog spellings.
func canonicalTitle(selected string, candidates []anime.Candidate) string {
	if candidate, ok := matchCandidate(selected, candidates); ok {
		return candidate.Title
	}
	return selected
}

// matchCandidate finds the candidate a free-text title refers to.
// Exact titles win; otherwise the longest bidirectional substring
// match does, so "파트 2" variants do not collapse onto a shorter
// base title.
func matchCandidate(text string, candidates []anime.Candidate) (anime.Candidate, bool) {
	for _, candidate := range candidates {
		if candidate.Title == text {
			return candidate, true
		}
	}
	var best anime.Candidate
	var found bool
	for _, candidate := range candidates {
		if !strings.Contains(text, candidate.Title) && !strings.Contains(candidate.Title, text) {
			continue
		}
		if !found || len(candidate.Title) > len(best.Title) {
			best = candidate
			found = true
		}
	}
	return best, found
}
