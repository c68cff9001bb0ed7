package selector

import (
	"errors"
	"testing"

	"animeta/internal/anime"
	"animeta/internal/services"
)

func sampleCandidates() []anime.Candidate {
	return []anime.Candidate{
		{Title: "스파이 패밀리", ExternalID: "1", Rank: 1},
		{Title: "스파이 패밀리 파트 2", ExternalID: "2", Rank: 2},
		{Title: "극장판 스파이 패밀리 코드: 화이트", ExternalID: "3", Rank: 3},
	}
}

func TestParseVerdictJSON(t *testing.T) {
	raw := `{"status":"match_found","selected_title":"스파이 패밀리","confidence":95,"reason":"정확한 제목 일치"}`
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.Status != anime.MatchFound {
		t.Fatalf("expected match_found, got %s", verdict.Status)
	}
	if verdict.SelectedTitle != "스파이 패밀리" || verdict.Confidence != 95 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestParseVerdictFencedNoMatch(t *testing.T) {
	raw := "```json\n{\"status\":\"no_match\",\"selected_title\":\"\",\"confidence\":0,\"reason\":\"어느 후보도 해당 시즌이 아님\"}\n```"
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.Status != anime.NoMatch {
		t.Fatalf("expected no_match, got %+v", verdict)
	}
	if verdict.SelectedTitle != "" || verdict.Confidence != 0 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestParseVerdictJSONEmbeddedInProse(t *testing.T) {
	raw := "판단 결과는 다음과 같습니다.\n{\"status\":\"match_found\",\"selected_title\":\"스파이 패밀리 파트 2\",\"confidence\":88,\"reason\":\"2기 요청\"}\n이상입니다."
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.SelectedTitle != "스파이 패밀리 파트 2" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestParseVerdictMissingStatusWithTitle(t *testing.T) {
	raw := `{"selected_title":"스파이 패밀리","confidence":80,"reason":"ok"}`
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.Status != anime.MatchFound || verdict.SelectedTitle != "스파이 패밀리" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestParseVerdictMarkerPhrase(t *testing.T) {
	raw := "후보를 검토했습니다.\n선택: 스파이 패밀리 파트 2\n사유: 사용자가 2기를 요청했습니다."
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.SelectedTitle != "스파이 패밀리 파트 2" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if verdict.Confidence != 90 {
		t.Fatalf("expected marker-phrase confidence 90, got %v", verdict.Confidence)
	}
}

func TestParseVerdictMarkerPhrasePartialTitle(t *testing.T) {
	raw := "선택: 코드: 화이트"
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.SelectedTitle != "극장판 스파이 패밀리 코드: 화이트" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestParseVerdictOrdinal(t *testing.T) {
	raw := "가장 적합한 후보는 2. 입니다."
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.SelectedTitle != "스파이 패밀리 파트 2" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if verdict.Confidence != 85 {
		t.Fatalf("expected ordinal confidence 85, got %v", verdict.Confidence)
	}
}

func TestParseVerdictFailureIsParseError(t *testing.T) {
	_, err := ParseVerdict("도무지 알 수 없는 답변입니다", sampleCandidates())
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse marker, got %v", err)
	}
}

func TestParseVerdictClampsConfidence(t *testing.T) {
	raw := `{"status":"match_found","selected_title":"스파이 패밀리","confidence":250,"reason":"over"}`
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.Confidence != 100 {
		t.Fatalf("expected clamped confidence, got %v", verdict.Confidence)
	}
}

func TestCanonicalTitleMapsLooseSpelling(t *testing.T) {
	raw := `{"status":"match_found","selected_title":"스파이 패밀리 파트 2 (더빙)","confidence":70,"reason":"loose"}`
	verdict, err := ParseVerdict(raw, sampleCandidates())
	if err != nil {
		t.Fatalf("ParseVerdict returned error: %v", err)
	}
	if verdict.SelectedTitle != "스파이 패밀리 파트 2" {
		t.Fatalf("expected canonical candidate title, got %+v", verdict)
	}
}
