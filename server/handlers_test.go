package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"

	"medialog/store"
)

func newTestServer() (*Server, *store.Store) {
	st := store.New(nil)
	return New(st, ":0"), st
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	if envelope.Status != "success" {
		t.Fatalf("Expected success envelope, got %s", rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			t.Fatalf("Failed to decode data: %v", err)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
}

func TestAddContentEndpoint(t *testing.T) {
	srv, st := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/content", store.ContentDraft{
		Title:       "Dune: Part Two",
		Type:        store.TypeMovie,
		Platform:    "theaters",
		Genre:       []string{"sci-fi"},
		ReleaseDate: "2024-03-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var item store.Content
	decodeData(t, rec, &item)
	if item.ID == "" || item.Watched || item.Rating != nil {
		t.Errorf("Unexpected created item: %+v", item)
	}

	if len(st.Items()) != 1 {
		t.Error("Store must reflect the mutation synchronously")
	}
}

func TestAddContentValidationError(t *testing.T) {
	srv, st := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/content", store.ContentDraft{Title: "Only a title"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if len(st.Items()) != 0 {
		t.Error("Failed creation must not mutate the store")
	}
}

func TestUpdateContentEndpoint(t *testing.T) {
	srv, st := newTestServer()
	item, _ := st.AddContent(store.ContentDraft{
		Title: "A", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})

	rec := doJSON(t, srv, http.MethodPatch, "/api/v1/content/"+item.ID,
		map[string]interface{}{"watched": true, "rating": 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated store.Content
	decodeData(t, rec, &updated)
	if !updated.Watched || updated.Rating == nil || *updated.Rating != 4 {
		t.Errorf("Unexpected updated item: %+v", updated)
	}
}

func TestUpdateContentNotFound(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPatch, "/api/v1/content/missing",
		map[string]interface{}{"watched": true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rec.Code)
	}
}

func TestRemoveContentCascadesOverAPI(t *testing.T) {
	srv, st := newTestServer()
	item, _ := st.AddContent(store.ContentDraft{
		Title: "A", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})
	pl, _ := st.CreatePlaylist("Watchlist", "")
	st.AddToPlaylist(pl.ID, item.ID)

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/content/"+item.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	got, _ := st.PlaylistByID(pl.ID)
	if len(got.ContentIDs) != 0 {
		t.Error("Expected cascade to clear playlist membership")
	}
}

func TestCreatePlaylistEndpoints(t *testing.T) {
	srv, _ := newTestServer()

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/playlists",
		createPlaylistRequest{Name: "Watchlist", Description: "to watch"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}
	var regular store.Playlist
	decodeData(t, rec, &regular)
	if regular.Type != store.PlaylistRegular {
		t.Errorf("Expected regular playlist, got %s", regular.Type)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/playlists", createPlaylistRequest{
		Name: "Top Rated",
		Rules: []store.SmartPlaylistRule{
			{Field: "rating", Operator: store.OpGreater, Value: "4"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}
	var smart store.Playlist
	decodeData(t, rec, &smart)
	if smart.Type != store.PlaylistSmart || len(smart.Rules) != 1 {
		t.Errorf("Expected smart playlist with rules, got %+v", smart)
	}
}

func TestPlaylistMembershipEndpoints(t *testing.T) {
	srv, st := newTestServer()
	item, _ := st.AddContent(store.ContentDraft{
		Title: "A", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})
	pl, _ := st.CreatePlaylist("Watchlist", "")

	// Adding twice stays idempotent through the API.
	for i := 0; i < 2; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/playlists/"+pl.ID+"/items",
			playlistItemRequest{ContentID: item.ID})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200 on add %d, got %d", i, rec.Code)
		}
	}
	got, _ := st.PlaylistByID(pl.ID)
	if len(got.ContentIDs) != 1 {
		t.Fatalf("Expected 1 member, got %d", len(got.ContentIDs))
	}

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/playlists/"+pl.ID+"/items/"+item.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on remove, got %d", rec.Code)
	}
	got, _ = st.PlaylistByID(pl.ID)
	if len(got.ContentIDs) != 0 {
		t.Error("Expected member to be removed")
	}
}

func TestSmartPlaylistContentEndpoint(t *testing.T) {
	srv, st := newTestServer()
	a, _ := st.AddContent(store.ContentDraft{
		Title: "A", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})
	rating := 5
	st.UpdateContent(a.ID, store.ContentUpdate{Rating: &rating})
	st.AddContent(store.ContentDraft{
		Title: "B", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})

	pl, _ := st.CreateSmartPlaylist("Top Rated", "", []store.SmartPlaylistRule{
		{Field: "rating", Operator: store.OpGreater, Value: "4"},
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/playlists/"+pl.ID+"/content", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var members []store.Content
	decodeData(t, rec, &members)
	if len(members) != 1 || members[0].ID != a.ID {
		t.Errorf("Expected only the rated item, got %+v", members)
	}
}

func TestSearchContentEndpoint(t *testing.T) {
	srv, st := newTestServer()
	st.AddContent(store.ContentDraft{
		Title: "Dune: Part Two", Type: store.TypeMovie, Platform: "theaters",
		Genre: []string{"sci-fi"}, ReleaseDate: "2024-03-01",
	})
	st.AddContent(store.ContentDraft{
		Title: "The Bear", Type: store.TypeSeries, Platform: "hulu",
		Genre: []string{"drama"}, ReleaseDate: "2022-06-23",
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/content/search?q=dune", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var matches []store.Content
	decodeData(t, rec, &matches)
	if len(matches) != 1 || matches[0].Title != "Dune: Part Two" {
		t.Errorf("Unexpected search results: %+v", matches)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/content/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without query, got %d", rec.Code)
	}
}

func TestListContentTypeFilter(t *testing.T) {
	srv, st := newTestServer()
	st.AddContent(store.ContentDraft{
		Title: "A", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})
	st.AddContent(store.ContentDraft{
		Title: "B", Type: store.TypePodcast, Platform: "spotify",
		Genre: []string{"news"}, ReleaseDate: "2024-01-01",
	})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/content?type=podcast", nil)
	var items []store.Content
	decodeData(t, rec, &items)
	if len(items) != 1 || items[0].Type != store.TypePodcast {
		t.Errorf("Unexpected filtered items: %+v", items)
	}
}

func TestInsightsEndpoints(t *testing.T) {
	srv, st := newTestServer()
	item, _ := st.AddContent(store.ContentDraft{
		Title: "A", Type: store.TypeMovie, Platform: "netflix",
		Genre: []string{"drama"}, ReleaseDate: "2024-01-01",
	})
	watched := true
	st.UpdateContent(item.ID, store.ContentUpdate{Watched: &watched})

	for _, path := range []string{
		"/api/v1/insights",
		"/api/v1/patterns",
		"/api/v1/recommendations",
		"/api/v1/stats",
	} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("Expected 200 from %s, got %d", path, rec.Code)
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/recommendations?limit=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", rec.Code)
	}
}
