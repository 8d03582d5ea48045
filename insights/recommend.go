package insights

import (
	"fmt"
	"math"
	"sort"

	"medialog/store"
)

// Recommendation is one scored suggestion from the unwatched part of the
// library.
type Recommendation struct {
	Content store.Content `json:"content"`
	Score   float64       `json:"score"`
	Match   int           `json:"match"` // 0-100
	Reasons []string      `json:"reasons"`
	Source  string        `json:"source"`
}

// Recommendation sources.
const (
	SourcePersonalized = "personalized"
	SourceTrending     = "trending"
)

const defaultRecommendationLimit = 10

// Recommend scores the unwatched items of the library against the user's
// taste profile built from the watched ones. Genre weights come from watched
// item ratings (unrated counts as a middling 3), platform affinity adds half
// weight. Output is deterministic: score descending, ties broken by title.
func Recommend(items []store.Content, limit int) []Recommendation {
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}

	genreWeight := map[string]float64{}
	platformWeight := map[string]float64{}
	watched := 0

	for _, item := range items {
		if !item.Watched {
			continue
		}
		watched++
		weight := 3.0
		if item.Rating != nil {
			weight = float64(*item.Rating)
		}
		for _, g := range item.Genre {
			genreWeight[g] += weight
		}
		platformWeight[item.Platform] += weight
	}

	var recs []Recommendation
	var maxScore float64

	for _, item := range items {
		if item.Watched {
			continue
		}

		var score float64
		var reasons []string
		source := SourceTrending

		var bestGenre string
		var bestGenreWeight float64
		for _, g := range item.Genre {
			if w := genreWeight[g]; w > 0 {
				score += w
				if w > bestGenreWeight {
					bestGenre, bestGenreWeight = g, w
				}
			}
		}
		if bestGenre != "" {
			source = SourcePersonalized
			reasons = append(reasons, fmt.Sprintf("Matches your taste for %s", bestGenre))
		}

		if w := platformWeight[item.Platform]; w > 0 {
			score += w / 2
			reasons = append(reasons, fmt.Sprintf("On %s, where you watch the most", item.Platform))
		}

		if len(reasons) == 0 {
			reasons = append(reasons, "Still unwatched in your library")
		}

		if score > maxScore {
			maxScore = score
		}
		recs = append(recs, Recommendation{
			Content: item,
			Score:   score,
			Reasons: reasons,
			Source:  source,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Content.Title < recs[j].Content.Title
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}

	for i := range recs {
		recs[i].Match = matchPercent(recs[i].Score, maxScore, watched)
	}
	return recs
}

// matchPercent maps a raw score to the 0-100 "match" figure shown on
// recommendation cards. With no watch history every suggestion is a shrug.
func matchPercent(score, maxScore float64, watched int) int {
	if watched == 0 || maxScore == 0 {
		return 50
	}
	return int(math.Round(55 + 40*score/maxScore))
}
