// Package server exposes the content store and library insights over a JSON
// REST API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"medialog/store"
)

// Server wires the HTTP routes to a content store.
type Server struct {
	store      *store.Store
	httpServer *http.Server
	startTime  time.Time
}

// New builds a server around the given store, listening on addr.
func New(st *store.Store, addr string) *Server {
	s := &Server{
		store:     st,
		startTime: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Route("/content", func(r chi.Router) {
			r.Get("/", s.handleListContent)
			r.Post("/", s.handleAddContent)
			r.Get("/search", s.handleSearchContent)
			r.Patch("/{id}", s.handleUpdateContent)
			r.Delete("/{id}", s.handleRemoveContent)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.handleListPlaylists)
			r.Post("/", s.handleCreatePlaylist)
			r.Patch("/{id}", s.handleUpdatePlaylist)
			r.Delete("/{id}", s.handleDeletePlaylist)
			r.Get("/{id}/content", s.handlePlaylistContent)
			r.Post("/{id}/items", s.handleAddToPlaylist)
			r.Delete("/{id}/items/{contentId}", s.handleRemoveFromPlaylist)
		})

		r.Get("/insights", s.handleInsights)
		r.Get("/patterns", s.handlePatterns)
		r.Get("/recommendations", s.handleRecommendations)
	})

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
