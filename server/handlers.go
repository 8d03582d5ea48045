package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"medialog/insights"
	"medialog/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	items := s.store.Items()

	if contentType := r.URL.Query().Get("type"); contentType != "" {
		filtered := []store.Content{}
		for _, item := range items {
			if item.Type == contentType {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddContent(w http.ResponseWriter, r *http.Request) {
	var draft store.ContentDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	item, err := s.store.AddContent(draft)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (s *Server) handleSearchContent(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "query parameter q is required")
		return
	}

	items := s.store.Items()
	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = item.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Sort(ranks)

	matches := []store.Content{}
	for _, rank := range ranks {
		matches = append(matches, items[rank.OriginalIndex])
	}
	respondJSON(w, http.StatusOK, matches)
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	var updates store.ContentUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	item, err := s.store.UpdateContent(chi.URLParam(r, "id"), updates)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleRemoveContent(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveContent(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.store.Playlists())
}

// createPlaylistRequest creates a smart playlist when rules are present, a
// regular one otherwise.
type createPlaylistRequest struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Rules       []store.SmartPlaylistRule `json:"rules,omitempty"`
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	var pl store.Playlist
	var err error
	if len(req.Rules) > 0 {
		pl, err = s.store.CreateSmartPlaylist(req.Name, req.Description, req.Rules)
	} else {
		pl, err = s.store.CreatePlaylist(req.Name, req.Description)
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, pl)
}

func (s *Server) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	var updates store.PlaylistUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	pl, err := s.store.UpdatePlaylist(chi.URLParam(r, "id"), updates)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pl)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePlaylist(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handlePlaylistContent(w http.ResponseWriter, r *http.Request) {
	members, err := s.store.PlaylistContent(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, members)
}

type playlistItemRequest struct {
	ContentID string `json:"contentId"`
}

func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ContentID == "" {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "contentId is required")
		return
	}

	if err := s.store.AddToPlaylist(chi.URLParam(r, "id"), req.ContentID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	err := s.store.RemoveFromPlaylist(chi.URLParam(r, "id"), chi.URLParam(r, "contentId"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, insights.Quick(s.store.Items()))
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, insights.Analyze(s.store.Items()))
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	respondJSON(w, http.StatusOK, insights.Recommend(s.store.Items(), limit))
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
}
