package enricher

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"animeta/internal/anime"
	"animeta/internal/catalog"
)

// coverVariant selects the preferred entry of a detail record's
// structured images list.
const coverVariant = "home_default"

// recencyWindow is how fresh the latest episode must be for an entry
// without explicit flags to still count as airing.
const recencyWindow = 30 * 24 * time.Hour

// defaultTVEpisodes is the heuristic count for an ended TV series with
// no episode signal anywhere else.
const defaultTVEpisodes = 12

var episodeTagPattern = regexp.MustCompile(`(\d+)\s*(화|편)`)

// airingStatusFrom derives the broadcast status from the detail
// record's flags in priority order. The default for flagless entries
// is completed; callers record unknown only when the whole detail
// fetch failed.
func airingStatusFrom(detail *catalog.Detail, now time.Time) anime.AiringStatus {
	if detail == nil {
		return anime.StatusUnknown
	}
	if detail.Ended != nil && *detail.Ended {
		return anime.StatusCompleted
	}
	if detail.IsUpcoming != nil && *detail.IsUpcoming {
		return anime.StatusUpcoming
	}
	if detail.IsNewRelease != nil && *detail.IsNewRelease {
		return anime.StatusOngoing
	}
	if created := parseEpisodeTimestamp(detail.LatestEpisodeCreated); !created.IsZero() {
		if now.Sub(created) <= recencyWindow {
			return anime.StatusOngoing
		}
	}
	return anime.StatusCompleted
}

func parseEpisodeTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// coverURLFrom picks a cover image through the layered fallback: the
// direct field, the named variant of the images list, any first image,
// then the legacy alternate field.
func coverURLFrom(detail *catalog.Detail) string {
	if detail == nil {
		return ""
	}
	if url := strings.TrimSpace(detail.Image); url != "" {
		return url
	}
	for _, entry := range detail.Images {
		if entry.OptionName == coverVariant && strings.TrimSpace(entry.ImgURL) != "" {
			return strings.TrimSpace(entry.ImgURL)
		}
	}
	for _, entry := range detail.Images {
		if url := strings.TrimSpace(entry.ImgURL); url != "" {
			return url
		}
	}
	return strings.TrimSpace(detail.Img)
}

// episodeCountFromDetail tries the explicit fields and tag text. The
// episodes-endpoint fallback sits in the enricher because it needs a
// network call.
func episodeCountFromDetail(detail *catalog.Detail) (int, bool) {
	if detail == nil {
		return 0, false
	}
	if detail.TotalEpisodes != nil && *detail.TotalEpisodes > 0 {
		return *detail.TotalEpisodes, true
	}
	if detail.EpisodeCount != nil && *detail.EpisodeCount > 0 {
		return *detail.EpisodeCount, true
	}
	return 0, false
}

// episodeCountFromTags extracts "<N>화" or "<N>편" from free-text tags.
func episodeCountFromTags(tags []string) (int, bool) {
	for _, tag := range tags {
		match := episodeTagPattern.FindStringSubmatch(tag)
		if match == nil {
			continue
		}
		count, err := strconv.Atoi(match[1])
		if err != nil || count <= 0 {
			continue
		}
		return count, true
	}
	return 0, false
}

// episodeCountHeuristic is the last resort: an ended TV series with no
// other signal defaults to a standard single cour.
func episodeCountHeuristic(detail *catalog.Detail) (int, bool) {
	if detail == nil {
		return 0, false
	}
	if !strings.EqualFold(strings.TrimSpace(detail.Medium), "TVA") &&
		!strings.EqualFold(strings.TrimSpace(detail.Medium), "TV") {
		return 0, false
	}
	if detail.Ended == nil || !*detail.Ended {
		return 0, false
	}
	return defaultTVEpisodes, true
}
