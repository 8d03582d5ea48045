package store

import (
	"regexp"
	"strings"
)

type posterEntry struct {
	title string // normalized
	image string
}

// contentPosters maps normalized titles to poster art. The slice is scanned
// in declaration order and the first match wins, so lookups are
// deterministic.
var contentPosters = []posterEntry{
	{"dune part two", "https://image.tmdb.org/t/p/w500/8b8R8l88Qje9dn9OE8PY05Nxl1X.jpg"},
	{"poor things", "https://image.tmdb.org/t/p/w500/kCGlIMHnOm8JPXq3rXM6c5wMxcT.jpg"},
	{"true detective night country", "https://image.tmdb.org/t/p/w500/pB6rZt885qxdw00eXHj5bXhOSw6.jpg"},
	{"oppenheimer", "https://image.tmdb.org/t/p/w500/8Gxv8gSFCU0XGDykEGv7zR1n2ua.jpg"},
	{"barbie", "https://image.tmdb.org/t/p/w500/iuFNMS8U5cb6xfzi51Dbkovj7vM.jpg"},
	{"the bear", "https://image.tmdb.org/t/p/w500/sHFlbKS3WLqMnp9t2ghADIJFnuQ.jpg"},
	{"succession", "https://image.tmdb.org/t/p/w500/7HW47XbkNQ5fiwQFYGWdw9gs144.jpg"},
	{"breaking bad", "https://image.tmdb.org/t/p/w500/ggFHVNu6YYI5L9pCfOacjizRGt.jpg"},
	{"stranger things", "https://image.tmdb.org/t/p/w500/49WJfeN0moxb9IPfGn8AIqMGskD.jpg"},
	{"the last of us", "https://image.tmdb.org/t/p/w500/uKvVjHNqB5VmOrdxqAt2F7J78ED.jpg"},
	{"planet earth", "https://image.tmdb.org/t/p/w500/dUAecoAMWyCnsUGLRuMUqooCrH2.jpg"},
	{"our planet", "https://image.tmdb.org/t/p/w500/ygCQjDD2J6BBNFmpldhPDGLFRPR.jpg"},
	{"free solo", "https://image.tmdb.org/t/p/w500/v4QfYZMACODlWul9doN9RxE99ag.jpg"},
	{"the social dilemma", "https://image.tmdb.org/t/p/w500/uaUC57VLPtrfd4O718nuBvcZrvq.jpg"},
	{"serial", "https://is1-ssl.mzstatic.com/image/thumb/Podcasts211/v4/ec/71/e3/serial-cover.jpg"},
	{"the daily", "https://is1-ssl.mzstatic.com/image/thumb/Podcasts115/v4/42/9d/a1/the-daily-cover.jpg"},
	{"this american life", "https://is1-ssl.mzstatic.com/image/thumb/Podcasts125/v4/cb/8d/23/tal-cover.jpg"},
	{"radiolab", "https://is1-ssl.mzstatic.com/image/thumb/Podcasts116/v4/02/5d/51/radiolab-cover.jpg"},
	{"hardcore history", "https://is1-ssl.mzstatic.com/image/thumb/Podcasts116/v4/7c/13/06/hh-cover.jpg"},
	{"everything everywhere all at once", "https://image.tmdb.org/t/p/w500/w3LxiVYdWWRvEVdn5RYq6jIqkb1.jpg"},
}

// fallbackImages is the fixed per-type placeholder art used when no
// title-specific poster is found.
var fallbackImages = map[string]string{
	TypeMovie:       "https://images.unsplash.com/photo-1440404653325-ab127d49abc1?q=80&w=1920&h=1080&fit=crop",
	TypeSeries:      "https://images.unsplash.com/photo-1574375927938-d5a98e8ffe85?q=80&w=1920&h=1080&fit=crop",
	TypeDocumentary: "https://images.unsplash.com/photo-1552800631-5fba77be42c8?q=80&w=1920&h=1080&fit=crop",
	TypePodcast:     "https://images.unsplash.com/photo-1478737270239-2f02b77fc618?q=80&w=1920&h=1080&fit=crop",
}

var (
	titlePunct  = regexp.MustCompile(`[:\-–—]`)
	titleSpaces = regexp.MustCompile(`\s+`)
	titleParens = regexp.MustCompile(`\s*\([^)]*\)`)
)

// normalizeTitle lowercases the title, folds punctuation into spaces,
// collapses whitespace and strips parenthetical segments such as year
// suffixes.
func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = titlePunct.ReplaceAllString(t, " ")
	t = titleSpaces.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)
	t = titleParens.ReplaceAllString(t, "")
	return t
}

// ContentImage resolves poster art for a title. It tries an exact match on
// the normalized title, then a substring match in either direction, and
// finally falls back to the fixed per-type image. Unrecognized types get the
// movie fallback.
func ContentImage(title, contentType string) string {
	normalized := normalizeTitle(title)

	for _, p := range contentPosters {
		if p.title == normalized {
			return p.image
		}
	}

	if normalized != "" {
		for _, p := range contentPosters {
			if strings.Contains(normalized, p.title) || strings.Contains(p.title, normalized) {
				return p.image
			}
		}
	}

	if image, ok := fallbackImages[contentType]; ok {
		return image
	}
	return fallbackImages[TypeMovie]
}
