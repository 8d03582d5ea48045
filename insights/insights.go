// Package insights computes the dashboard analytics for a media library.
// Everything here is a deterministic aggregation over the caller's items;
// there is no external data source and no randomness.
package insights

import (
	"fmt"
	"math"
	"sort"

	"medialog/store"
)

// GenreAffinity is how often a genre tag appears across the library, with its
// share of all tags.
type GenreAffinity struct {
	Genre    string  `json:"genre"`
	Count    int     `json:"count"`
	Affinity float64 `json:"affinity"`
}

// PlatformUsage is how often a platform appears across the library.
type PlatformUsage struct {
	Platform string  `json:"platform"`
	Count    int     `json:"count"`
	Usage    float64 `json:"usage"`
}

// Patterns summarizes a user's watching behaviour.
type Patterns struct {
	TotalItems         int             `json:"totalItems"`
	WatchedItems       int             `json:"watchedItems"`
	WatchProgress      float64         `json:"watchProgress"` // percent, 0-100
	AverageRating      float64         `json:"averageRating"`
	RatedItems         int             `json:"ratedItems"`
	PreferredGenres    []GenreAffinity `json:"preferredGenres"`
	PreferredPlatforms []PlatformUsage `json:"preferredPlatforms"`
	TypeBreakdown      map[string]int  `json:"typeBreakdown"`
	CompletionRate     float64         `json:"completionRate"`    // 0-1
	RatingConsistency  float64         `json:"ratingConsistency"` // 0-1
}

// Insight is one human-readable dashboard card.
type Insight struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Value       string `json:"value"`
}

// Analyze derives watching patterns from the library. Genres and platforms
// are ordered by count, ties broken alphabetically, so output is stable.
func Analyze(items []store.Content) Patterns {
	p := Patterns{
		TotalItems:    len(items),
		TypeBreakdown: map[string]int{},
	}
	if len(items) == 0 {
		return p
	}

	genreCounts := map[string]int{}
	platformCounts := map[string]int{}
	totalTags := 0
	ratingSum := 0

	for _, item := range items {
		if item.Watched {
			p.WatchedItems++
		}
		if item.Rating != nil {
			p.RatedItems++
			ratingSum += *item.Rating
		}
		p.TypeBreakdown[item.Type]++
		platformCounts[item.Platform]++
		for _, g := range item.Genre {
			genreCounts[g]++
			totalTags++
		}
	}

	p.WatchProgress = 100 * float64(p.WatchedItems) / float64(p.TotalItems)
	p.CompletionRate = float64(p.WatchedItems) / float64(p.TotalItems)
	if p.RatedItems > 0 {
		p.AverageRating = float64(ratingSum) / float64(p.RatedItems)
	}

	for genre, count := range genreCounts {
		p.PreferredGenres = append(p.PreferredGenres, GenreAffinity{
			Genre:    genre,
			Count:    count,
			Affinity: float64(count) / float64(totalTags),
		})
	}
	sort.Slice(p.PreferredGenres, func(i, j int) bool {
		a, b := p.PreferredGenres[i], p.PreferredGenres[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Genre < b.Genre
	})

	for platform, count := range platformCounts {
		p.PreferredPlatforms = append(p.PreferredPlatforms, PlatformUsage{
			Platform: platform,
			Count:    count,
			Usage:    float64(count) / float64(p.TotalItems),
		})
	}
	sort.Slice(p.PreferredPlatforms, func(i, j int) bool {
		a, b := p.PreferredPlatforms[i], p.PreferredPlatforms[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Platform < b.Platform
	})

	p.RatingConsistency = ratingConsistency(items, p.AverageRating, p.RatedItems)
	return p
}

// ratingConsistency is 1 minus the mean absolute deviation of ratings,
// normalized by the widest possible deviation on a 1-5 scale. Fewer than two
// ratings count as fully consistent.
func ratingConsistency(items []store.Content, avg float64, rated int) float64 {
	if rated < 2 {
		return 1
	}
	var dev float64
	for _, item := range items {
		if item.Rating != nil {
			dev += math.Abs(float64(*item.Rating) - avg)
		}
	}
	dev /= float64(rated)
	consistency := 1 - dev/2
	if consistency < 0 {
		return 0
	}
	return consistency
}

// Quick builds the "Quick Insights" card data: watch progress, average rating
// and top genre. An empty library yields no insights.
func Quick(items []store.Content) []Insight {
	if len(items) == 0 {
		return []Insight{}
	}

	p := Analyze(items)
	out := []Insight{
		{
			Type:        "watch_time",
			Title:       "Watch Progress",
			Description: fmt.Sprintf("%d of %d items watched", p.WatchedItems, p.TotalItems),
			Value:       fmt.Sprintf("%d%%", int(math.Round(p.WatchProgress))),
		},
		{
			Type:        "rating",
			Title:       "Average Rating",
			Description: fmt.Sprintf("across %d rated items", p.RatedItems),
			Value:       fmt.Sprintf("%.1f / 5.0", p.AverageRating),
		},
	}

	if len(p.PreferredGenres) > 0 {
		top := p.PreferredGenres[0]
		out = append(out, Insight{
			Type:        "genre",
			Title:       "Top Genre",
			Description: fmt.Sprintf("tagged on %d items", top.Count),
			Value:       top.Genre,
		})
	}
	return out
}

// WatchSplit returns the watched/unwatched counts behind the progress chart.
func WatchSplit(items []store.Content) (watched, unwatched int) {
	for _, item := range items {
		if item.Watched {
			watched++
		} else {
			unwatched++
		}
	}
	return watched, unwatched
}
