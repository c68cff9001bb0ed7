package selector

import (
	"fmt"
	"strings"

	"animeta/internal/anime"
)

// SystemPrompt instructs the model to judge candidates against the
// user's full input and respond with a single JSON object.
const SystemPrompt = `You match a user-typed anime title against a numbered candidate list from a Korean anime catalog.
The user input may carry season markers (such as "1기", "시즌 2", "Season 3") that the candidates spell differently. Judge against the user's full intent, including the season.
Respond with exactly one JSON object and nothing else:
{"status":"match_found","selected_title":"<exact candidate title>","confidence":<0-100>,"reason":"<short reason>"}
If no candidate fits, respond:
{"status":"no_match","selected_title":"","confidence":0,"reason":"<short reason>"}
selected_title must be copied verbatim from the candidate list.`

// BuildUserPrompt renders the matching request for one title. Candidates
// are enumerated by rank so ordinal references stay unambiguous.
func BuildUserPrompt(userInput string, candidates []anime.Candidate) string {
	var builder strings.Builder
	builder.WriteString("User input: ")
	builder.WriteString(userInput)
	builder.WriteString("\n\nCandidates:\n")
	for _, candidate := range candidates {
		fmt.Fprintf(&builder, "%d. %s\n", candidate.Rank, candidate.Title)
	}
	builder.WriteString("\nSelect the best matching candidate for the user input, or declare no match.")
	return builder.String()
}
