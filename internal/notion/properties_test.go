package notion

import (
	"testing"

	"animeta/internal/anime"
)

func TestBuildPropertiesOmitsAbsentFields(t *testing.T) {
	record := &anime.EnrichedRecord{
		ExternalID:   "99",
		Name:         "스파이 패밀리",
		AiringStatus: anime.StatusCompleted,
		DetailURL:    "https://laftel.net/item/99",
	}

	properties := BuildProperties("스파이 패밀리 1기", record, false)

	if _, ok := properties["이름"]; !ok {
		t.Fatal("title property must always be present")
	}
	if _, ok := properties["라프텔 제목"]; !ok {
		t.Fatal("expected catalog title property")
	}
	for _, absent := range []string{"제작사", "총 화수", "라프텔 평점", "방영 분기", "표지"} {
		if _, ok := properties[absent]; ok {
			t.Fatalf("property %q must be omitted when the field is absent", absent)
		}
	}
}

func TestBuildPropertiesFullRecord(t *testing.T) {
	rating := 4.7
	episodes := 12
	record := &anime.EnrichedRecord{
		ExternalID:   "99",
		Name:         "스파이 패밀리",
		AirPeriod:    "2022년 2분기",
		Rating:       &rating,
		AiringStatus: anime.StatusCompleted,
		DetailURL:    "https://laftel.net/item/99",
		CoverURL:     "https://img.example/spy.jpg",
		Production:   "WIT STUDIO",
		EpisodeCount: &episodes,
	}

	properties := BuildProperties("스파이 패밀리", record, false)

	ratingProp, ok := properties["라프텔 평점"].(map[string]any)
	if !ok || ratingProp["number"] != 4.7 {
		t.Fatalf("unexpected rating property: %#v", properties["라프텔 평점"])
	}
	statusProp, ok := properties["방영 상태"].(map[string]any)
	if !ok {
		t.Fatalf("missing status property")
	}
	selectValue, ok := statusProp["select"].(map[string]any)
	if !ok || selectValue["name"] != "완결" {
		t.Fatalf("unexpected status select: %#v", statusProp)
	}
	episodeProp, ok := properties["총 화수"].(map[string]any)
	if !ok || episodeProp["number"] != 12 {
		t.Fatalf("unexpected episode property: %#v", properties["총 화수"])
	}
}

func TestBuildPropertiesCreationDefaults(t *testing.T) {
	properties := BuildProperties("제목", nil, true)

	for _, key := range []string{"상태", "분류", "시도 횟수", "완료 횟수"} {
		if _, ok := properties[key]; !ok {
			t.Fatalf("expected creation default %q", key)
		}
	}
	watch, ok := properties["상태"].(map[string]any)
	if !ok {
		t.Fatal("missing watch-status default")
	}
	statusValue, ok := watch["status"].(map[string]any)
	if !ok || statusValue["name"] != "관심 있음" {
		t.Fatalf("unexpected watch-status default: %#v", watch)
	}
}

func TestBuildPropertiesUpdateSkipsDefaults(t *testing.T) {
	properties := BuildProperties("제목", nil, false)
	for _, key := range []string{"상태", "분류", "시도 횟수", "완료 횟수"} {
		if _, ok := properties[key]; ok {
			t.Fatalf("update must not stamp default %q", key)
		}
	}
	if len(properties) != 1 {
		t.Fatalf("placeholder update should only write the title, got %#v", properties)
	}
}
