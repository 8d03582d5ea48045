package store

import (
	"reflect"
	"testing"
)

func ratingOf(n int) *int { return &n }

func TestMatchesRule(t *testing.T) {
	item := Content{
		ID:          "c1",
		Title:       "The Bear",
		Type:        TypeSeries,
		Platform:    "hulu",
		Genre:       []string{"Comedy", "Drama"},
		ReleaseDate: "2022-06-23",
		Watched:     true,
		Rating:      ratingOf(5),
	}
	unrated := Content{
		ID:       "c2",
		Title:    "Untitled",
		Type:     TypeMovie,
		Platform: "netflix",
		Genre:    []string{"Horror"},
	}

	tests := []struct {
		name string
		item Content
		rule SmartPlaylistRule
		want bool
	}{
		{"equals on type", item, SmartPlaylistRule{"type", OpEquals, "series"}, true},
		{"equals mismatch", item, SmartPlaylistRule{"type", OpEquals, "movie"}, false},
		{"equals on rating string form", item, SmartPlaylistRule{"rating", OpEquals, "5"}, true},
		{"equals on watched", item, SmartPlaylistRule{"watched", OpEquals, "true"}, true},
		{"equals never matches the genre list", item, SmartPlaylistRule{"genre", OpEquals, "Comedy,Drama"}, false},
		{"contains is case-insensitive", item, SmartPlaylistRule{"title", OpContains, "bear"}, true},
		{"contains over genre list", item, SmartPlaylistRule{"genre", OpContains, "drama"}, true},
		{"contains mismatch", item, SmartPlaylistRule{"genre", OpContains, "thriller"}, false},
		{"greater on rating", item, SmartPlaylistRule{"rating", OpGreater, "4"}, true},
		{"greater not satisfied", item, SmartPlaylistRule{"rating", OpGreater, "5"}, false},
		{"less on rating", item, SmartPlaylistRule{"rating", OpLess, "3"}, false},
		{"greater on non-numeric field", item, SmartPlaylistRule{"title", OpGreater, "1"}, false},
		{"greater with non-numeric value", item, SmartPlaylistRule{"rating", OpGreater, "many"}, false},
		{"nil rating fails every operator", unrated, SmartPlaylistRule{"rating", OpLess, "3"}, false},
		{"empty host fails the rule", item, SmartPlaylistRule{"host", OpContains, "a"}, false},
		{"unknown field", item, SmartPlaylistRule{"director", OpEquals, "x"}, false},
		{"unknown operator", item, SmartPlaylistRule{"title", "startswith", "The"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := matchesRule(tc.item, tc.rule); got != tc.want {
				t.Errorf("matchesRule(%v) = %v, want %v", tc.rule, got, tc.want)
			}
		})
	}
}

func TestSmartPlaylistRatingRule(t *testing.T) {
	s := New(nil)

	a, _ := s.AddContent(movieDraft("A"))
	b, _ := s.AddContent(movieDraft("B"))
	s.UpdateContent(a.ID, ContentUpdate{Rating: ratingOf(5)})
	s.UpdateContent(b.ID, ContentUpdate{Rating: ratingOf(3)})

	pl, err := s.CreateSmartPlaylist("Top Rated", "rated above 4", []SmartPlaylistRule{
		{Field: "rating", Operator: OpGreater, Value: "4"},
	})
	if err != nil {
		t.Fatalf("Failed to create smart playlist: %v", err)
	}

	members := s.SmartPlaylistContent(pl)
	if len(members) != 1 || members[0].Title != "A" {
		t.Fatalf("Expected only item A, got %v", members)
	}
}

func TestSmartPlaylistMembershipIsComputed(t *testing.T) {
	s := New(nil)
	item, _ := s.AddContent(movieDraft("Slow Burner"))

	pl, _ := s.CreateSmartPlaylist("Favorites", "", []SmartPlaylistRule{
		{Field: "rating", Operator: OpGreater, Value: "3"},
	})

	// Two evaluations without an intervening mutation agree.
	first := s.SmartPlaylistContent(pl)
	second := s.SmartPlaylistContent(pl)
	if !reflect.DeepEqual(first, second) {
		t.Error("Repeated evaluation must be stable")
	}
	if len(first) != 0 {
		t.Fatalf("Unrated item must not match, got %d members", len(first))
	}

	// Mutating the item flips membership on the next read, no recompute step.
	s.UpdateContent(item.ID, ContentUpdate{Rating: ratingOf(4)})
	if members := s.SmartPlaylistContent(pl); len(members) != 1 {
		t.Fatalf("Expected 1 member after rating update, got %d", len(members))
	}

	s.UpdateContent(item.ID, ContentUpdate{Rating: ratingOf(2)})
	if members := s.SmartPlaylistContent(pl); len(members) != 0 {
		t.Error("Expected membership to drop after rating decrease")
	}
}

func TestSmartPlaylistRulesAreConjunctive(t *testing.T) {
	s := New(nil)

	match := movieDraft("Dark Comedy")
	match.Genre = []string{"comedy", "crime"}
	m, _ := s.AddContent(match)
	s.UpdateContent(m.ID, ContentUpdate{Rating: ratingOf(5)})

	partial := movieDraft("Pure Crime")
	partial.Genre = []string{"crime"}
	p, _ := s.AddContent(partial)
	s.UpdateContent(p.ID, ContentUpdate{Rating: ratingOf(5)})

	pl, _ := s.CreateSmartPlaylist("Funny and good", "", []SmartPlaylistRule{
		{Field: "genre", Operator: OpContains, Value: "comedy"},
		{Field: "rating", Operator: OpGreater, Value: "4"},
	})

	members := s.SmartPlaylistContent(pl)
	if len(members) != 1 || members[0].ID != m.ID {
		t.Errorf("Expected only the item satisfying every rule, got %v", members)
	}
}

func TestSmartPlaylistContentOnRegularPlaylist(t *testing.T) {
	s := New(nil)
	s.AddContent(movieDraft("A"))
	pl, _ := s.CreatePlaylist("Regular", "")

	if members := s.SmartPlaylistContent(pl); len(members) != 0 {
		t.Errorf("Regular playlists must yield an empty computed set, got %d", len(members))
	}
}

func TestPlaylistContentResolvesBothKinds(t *testing.T) {
	s := New(nil)
	a, _ := s.AddContent(movieDraft("A"))
	s.AddContent(movieDraft("B"))

	regular, _ := s.CreatePlaylist("Picks", "")
	s.AddToPlaylist(regular.ID, a.ID)

	smart, _ := s.CreateSmartPlaylist("Everything", "", []SmartPlaylistRule{
		{Field: "type", Operator: OpEquals, Value: "movie"},
	})

	got, err := s.PlaylistContent(regular.ID)
	if err != nil {
		t.Fatalf("Failed to resolve regular playlist: %v", err)
	}
	if len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("Expected explicit membership, got %v", got)
	}

	got, err = s.PlaylistContent(smart.ID)
	if err != nil {
		t.Fatalf("Failed to resolve smart playlist: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 computed members, got %d", len(got))
	}
}
