package notion

import (
	"animeta/internal/anime"
)

// Property names of the target database. The schema is Korean; these
// names are part of the external contract and must not be translated.
const (
	propertyName       = "이름"
	propertyTitle      = "라프텔 제목"
	propertyAirPeriod  = "방영 분기"
	propertyRating     = "라프텔 평점"
	propertyStatus     = "방영 상태"
	propertyDetailURL  = "라프텔 URL"
	propertyCover      = "표지"
	propertyProduction = "제작사"
	propertyEpisodes   = "총 화수"

	defaultWatch     = "상태"
	defaultCategory  = "분류"
	defaultAttempts  = "시도 횟수"
	defaultCompleted = "완료 횟수"
)

// airingStatusLabels maps the internal status to the select option
// names the database uses.
var airingStatusLabels = map[anime.AiringStatus]string{
	anime.StatusOngoing:   "방영중",
	anime.StatusCompleted: "완결",
	anime.StatusUpcoming:  "방영 예정",
	anime.StatusUnknown:   "알 수 없음",
}

// BuildProperties renders the typed property writes for one upsert.
// Fields absent on the record are omitted entirely, never written as
// empty values. Creation-only defaults are stamped when isNew is set
// and never overwrite an explicit write.
func BuildProperties(userTitle string, record *anime.EnrichedRecord, isNew bool) map[string]any {
	properties := map[string]any{
		propertyName: map[string]any{
			"title": []any{textContent(userTitle)},
		},
	}

	if record != nil {
		if record.Name != "" {
			properties[propertyTitle] = map[string]any{
				"rich_text": []any{textContent(record.Name)},
			}
		}
		if record.AirPeriod != "" {
			properties[propertyAirPeriod] = map[string]any{
				"multi_select": []any{map[string]any{"name": record.AirPeriod}},
			}
		}
		if record.Rating != nil {
			properties[propertyRating] = map[string]any{"number": *record.Rating}
		}
		if label, ok := airingStatusLabels[record.AiringStatus]; ok && record.AiringStatus != "" {
			properties[propertyStatus] = map[string]any{
				"select": map[string]any{"name": label},
			}
		}
		if record.DetailURL != "" {
			properties[propertyDetailURL] = map[string]any{"url": record.DetailURL}
		}
		if record.CoverURL != "" {
			properties[propertyCover] = map[string]any{"url": record.CoverURL}
		}
		if record.Production != "" {
			properties[propertyProduction] = map[string]any{
				"select": map[string]any{"name": record.Production},
			}
		}
		if record.EpisodeCount != nil {
			properties[propertyEpisodes] = map[string]any{"number": *record.EpisodeCount}
		}
	}

	if isNew {
		applyCreationDefaults(properties)
	}
	return properties
}

func applyCreationDefaults(properties map[string]any) {
	if _, ok := properties[defaultWatch]; !ok {
		properties[defaultWatch] = map[string]any{
			"status": map[string]any{"name": "관심 있음"},
		}
	}
	if _, ok := properties[defaultCategory]; !ok {
		properties[defaultCategory] = map[string]any{
			"select": map[string]any{"name": "애니메이션"},
		}
	}
	if _, ok := properties[defaultAttempts]; !ok {
		properties[defaultAttempts] = map[string]any{"number": 0}
	}
	if _, ok := properties[defaultCompleted]; !ok {
		properties[defaultCompleted] = map[string]any{"number": 0}
	}
}

func textContent(value string) map[string]any {
	return map[string]any{"text": map[string]any{"content": value}}
}
