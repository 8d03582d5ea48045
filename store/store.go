package store

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Content types tracked by the library.
const (
	TypeMovie       = "movie"
	TypeSeries      = "series"
	TypeDocumentary = "documentary"
	TypePodcast     = "podcast"
)

// Playlist types.
const (
	PlaylistRegular = "regular"
	PlaylistSmart   = "smart"
)

// Playlist visibility levels.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
	VisibilityShared  = "shared"
)

// ErrNotFound is returned by operations that reference an id absent from the
// library.
var ErrNotFound = errors.New("not found")

// Content is one tracked unit of media.
type Content struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Type        string   `json:"type"`
	Platform    string   `json:"platform"`
	Genre       []string `json:"genre"`
	ReleaseDate string   `json:"releaseDate"`
	Watched     bool     `json:"watched"`
	Rating      *int     `json:"rating"` // 1-5, nil when unrated
	Image       string   `json:"image"`

	// Podcast-only fields.
	Host         string `json:"host,omitempty"`
	EpisodeCount int    `json:"episodeCount,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// Playlist is a named grouping of content items. Regular playlists carry
// explicit membership in ContentIDs; smart playlists compute membership from
// Rules on every read.
type Playlist struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	ContentIDs  []string            `json:"contentIds"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
	Type        string              `json:"type"`
	Rules       []SmartPlaylistRule `json:"rules,omitempty"`
	Visibility  string              `json:"visibility"`
}

// ContentDraft holds the caller-supplied fields for a new content item.
type ContentDraft struct {
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Platform     string   `json:"platform"`
	Genre        []string `json:"genre"`
	ReleaseDate  string   `json:"releaseDate"`
	Host         string   `json:"host,omitempty"`
	EpisodeCount int      `json:"episodeCount,omitempty"`
	Duration     string   `json:"duration,omitempty"`
}

// ContentUpdate is a partial update of a content item. Nil fields are left
// unchanged. Rating 0 clears the rating, 1-5 sets it.
type ContentUpdate struct {
	Title        *string   `json:"title,omitempty"`
	Type         *string   `json:"type,omitempty"`
	Platform     *string   `json:"platform,omitempty"`
	Genre        *[]string `json:"genre,omitempty"`
	ReleaseDate  *string   `json:"releaseDate,omitempty"`
	Watched      *bool     `json:"watched,omitempty"`
	Rating       *int      `json:"rating,omitempty"`
	Host         *string   `json:"host,omitempty"`
	EpisodeCount *int      `json:"episodeCount,omitempty"`
	Duration     *string   `json:"duration,omitempty"`
}

// PlaylistUpdate is a partial update of a playlist. Nil fields are left
// unchanged.
type PlaylistUpdate struct {
	Name        *string              `json:"name,omitempty"`
	Description *string              `json:"description,omitempty"`
	Visibility  *string              `json:"visibility,omitempty"`
	Rules       *[]SmartPlaylistRule `json:"rules,omitempty"`
}

// Snapshot is the full serializable state of a store.
type Snapshot struct {
	Items     []Content  `json:"items"`
	Playlists []Playlist `json:"playlists"`
}

// Persister mirrors the store's state to durable storage. SaveState replaces
// the previously saved state wholesale.
type Persister interface {
	SaveState(Snapshot) error
	LoadState() (Snapshot, error)
}

// Store is the single source of truth for content items and playlists. Every
// mutation is written through to the persister before the call returns; write
// failures are logged and otherwise ignored.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	items     []Content
	playlists []Playlist
}

// New creates a store hydrated from the persister's saved state. A nil
// persister yields a purely in-memory store. A load failure starts the store
// empty rather than failing.
func New(p Persister) *Store {
	s := &Store{persister: p}
	if p == nil {
		return s
	}

	snap, err := p.LoadState()
	if err != nil {
		log.Printf("Could not load saved library, starting empty: %v", err)
		return s
	}

	s.items = snap.Items
	s.playlists = snap.Playlists
	return s
}

// AddContent validates the draft, assigns an id, resolves poster art and
// appends the item to the library.
func (s *Store) AddContent(draft ContentDraft) (Content, error) {
	if err := validateDraft(draft); err != nil {
		return Content{}, err
	}

	item := Content{
		ID:           uuid.NewString(),
		Title:        draft.Title,
		Type:         draft.Type,
		Platform:     draft.Platform,
		Genre:        append([]string(nil), draft.Genre...),
		ReleaseDate:  draft.ReleaseDate,
		Watched:      false,
		Rating:       nil,
		Image:        ContentImage(draft.Title, draft.Type),
		Host:         draft.Host,
		EpisodeCount: draft.EpisodeCount,
		Duration:     draft.Duration,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append(s.items, item)
	s.persistLocked()
	return item, nil
}

// UpdateContent merges the given fields into the item with matching id. The
// item's poster image is intentionally not re-resolved when the title changes.
func (s *Store) UpdateContent(id string, updates ContentUpdate) (Content, error) {
	if updates.Rating != nil && (*updates.Rating < 0 || *updates.Rating > 5) {
		return Content{}, fmt.Errorf("rating must be between 1 and 5, got %d", *updates.Rating)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndexLocked(id)
	if idx < 0 {
		return Content{}, ErrNotFound
	}

	item := &s.items[idx]
	if updates.Title != nil {
		item.Title = *updates.Title
	}
	if updates.Type != nil {
		item.Type = *updates.Type
	}
	if updates.Platform != nil {
		item.Platform = *updates.Platform
	}
	if updates.Genre != nil {
		item.Genre = append([]string(nil), (*updates.Genre)...)
	}
	if updates.ReleaseDate != nil {
		item.ReleaseDate = *updates.ReleaseDate
	}
	if updates.Watched != nil {
		item.Watched = *updates.Watched
	}
	if updates.Rating != nil {
		if *updates.Rating == 0 {
			item.Rating = nil
		} else {
			r := *updates.Rating
			item.Rating = &r
		}
	}
	if updates.Host != nil {
		item.Host = *updates.Host
	}
	if updates.EpisodeCount != nil {
		item.EpisodeCount = *updates.EpisodeCount
	}
	if updates.Duration != nil {
		item.Duration = *updates.Duration
	}

	s.persistLocked()
	return cloneContent(*item), nil
}

// RemoveContent deletes the item with matching id and cascades the deletion
// of that id from every playlist's membership.
func (s *Store) RemoveContent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}

	s.items = append(s.items[:idx], s.items[idx+1:]...)
	for i := range s.playlists {
		ids := s.playlists[i].ContentIDs
		kept := ids[:0]
		for _, cid := range ids {
			if cid != id {
				kept = append(kept, cid)
			}
		}
		s.playlists[i].ContentIDs = kept
	}

	s.persistLocked()
	return nil
}

// CreatePlaylist creates an empty regular playlist.
func (s *Store) CreatePlaylist(name, description string) (Playlist, error) {
	if name == "" {
		return Playlist{}, fmt.Errorf("playlist name is required")
	}

	now := timestamp()
	pl := Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		ContentIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Type:        PlaylistRegular,
		Visibility:  VisibilityPrivate,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists = append(s.playlists, pl)
	s.persistLocked()
	return pl, nil
}

// CreateSmartPlaylist creates a playlist whose membership is computed from
// the given rules on every read.
func (s *Store) CreateSmartPlaylist(name, description string, rules []SmartPlaylistRule) (Playlist, error) {
	if name == "" {
		return Playlist{}, fmt.Errorf("playlist name is required")
	}
	if len(rules) == 0 {
		return Playlist{}, fmt.Errorf("smart playlist requires at least one rule")
	}

	now := timestamp()
	pl := Playlist{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		ContentIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
		Type:        PlaylistSmart,
		Rules:       append([]SmartPlaylistRule(nil), rules...),
		Visibility:  VisibilityPrivate,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists = append(s.playlists, pl)
	s.persistLocked()
	return pl, nil
}

// UpdatePlaylist merges the given fields into the playlist with matching id
// and refreshes its updatedAt timestamp.
func (s *Store) UpdatePlaylist(id string, updates PlaylistUpdate) (Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(id)
	if idx < 0 {
		return Playlist{}, ErrNotFound
	}

	pl := &s.playlists[idx]
	if updates.Name != nil {
		pl.Name = *updates.Name
	}
	if updates.Description != nil {
		pl.Description = *updates.Description
	}
	if updates.Visibility != nil {
		pl.Visibility = *updates.Visibility
	}
	if updates.Rules != nil {
		pl.Rules = append([]SmartPlaylistRule(nil), (*updates.Rules)...)
	}
	pl.UpdatedAt = timestamp()

	s.persistLocked()
	return clonePlaylist(*pl), nil
}

// DeletePlaylist removes the playlist with matching id. Content items are
// unaffected.
func (s *Store) DeletePlaylist(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(id)
	if idx < 0 {
		return ErrNotFound
	}

	s.playlists = append(s.playlists[:idx], s.playlists[idx+1:]...)
	s.persistLocked()
	return nil
}

// AddToPlaylist appends the content id to the playlist's membership.
// Adding an id that is already a member is a no-op, so the operation is
// idempotent. Unknown playlist or content ids are rejected, which keeps
// dangling references out of the library entirely.
func (s *Store) AddToPlaylist(playlistID, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(playlistID)
	if idx < 0 {
		return ErrNotFound
	}
	if s.itemIndexLocked(contentID) < 0 {
		return ErrNotFound
	}

	pl := &s.playlists[idx]
	for _, cid := range pl.ContentIDs {
		if cid == contentID {
			return nil
		}
	}

	pl.ContentIDs = append(pl.ContentIDs, contentID)
	pl.UpdatedAt = timestamp()
	s.persistLocked()
	return nil
}

// RemoveFromPlaylist removes the content id from the playlist's membership if
// present and refreshes the playlist's updatedAt timestamp.
func (s *Store) RemoveFromPlaylist(playlistID, contentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.playlistIndexLocked(playlistID)
	if idx < 0 {
		return ErrNotFound
	}

	pl := &s.playlists[idx]
	kept := pl.ContentIDs[:0]
	for _, cid := range pl.ContentIDs {
		if cid != contentID {
			kept = append(kept, cid)
		}
	}
	pl.ContentIDs = kept
	pl.UpdatedAt = timestamp()

	s.persistLocked()
	return nil
}

// Items returns a copy of the content collection in insertion order.
func (s *Store) Items() []Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// Playlists returns a copy of the playlist collection in insertion order.
func (s *Store) Playlists() []Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlaylists(s.playlists)
}

// ContentByID returns the item with the given id.
func (s *Store) ContentByID(id string) (Content, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.itemIndexLocked(id)
	if idx < 0 {
		return Content{}, false
	}
	return cloneContent(s.items[idx]), true
}

// PlaylistByID returns the playlist with the given id.
func (s *Store) PlaylistByID(id string) (Playlist, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.playlistIndexLocked(id)
	if idx < 0 {
		return Playlist{}, false
	}
	return clonePlaylist(s.playlists[idx]), true
}

// PlaylistContent resolves the current members of a playlist: the stored
// membership for regular playlists, the computed rule matches for smart ones.
func (s *Store) PlaylistContent(id string) ([]Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.playlistIndexLocked(id)
	if idx < 0 {
		return nil, ErrNotFound
	}

	pl := s.playlists[idx]
	if pl.Type == PlaylistSmart {
		return s.smartContentLocked(pl), nil
	}

	members := []Content{}
	for _, cid := range pl.ContentIDs {
		if i := s.itemIndexLocked(cid); i >= 0 {
			members = append(members, cloneContent(s.items[i]))
		}
	}
	return members, nil
}

// SmartPlaylistContent computes the current member set of a smart playlist by
// evaluating its rules against the live item collection. Membership is never
// cached; two calls without an intervening mutation return identical results.
// Non-smart playlists and playlists without rules yield an empty set.
func (s *Store) SmartPlaylistContent(pl Playlist) []Content {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.smartContentLocked(pl)
}

func (s *Store) smartContentLocked(pl Playlist) []Content {
	members := []Content{}
	if pl.Type != PlaylistSmart || len(pl.Rules) == 0 {
		return members
	}
	for _, item := range s.items {
		if matchesRules(item, pl.Rules) {
			members = append(members, cloneContent(item))
		}
	}
	return members
}

// Snapshot returns a deep copy of the full store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Stats returns library counts for the dashboard and the startup banner.
func (s *Store) Stats() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]int{
		"total":         len(s.items),
		"watched":       0,
		"movies":        0,
		"series":        0,
		"documentaries": 0,
		"podcasts":      0,
		"playlists":     len(s.playlists),
	}
	for _, item := range s.items {
		if item.Watched {
			stats["watched"]++
		}
		switch item.Type {
		case TypeMovie:
			stats["movies"]++
		case TypeSeries:
			stats["series"]++
		case TypeDocumentary:
			stats["documentaries"]++
		case TypePodcast:
			stats["podcasts"]++
		}
	}
	return stats
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Items:     cloneItems(s.items),
		Playlists: clonePlaylists(s.playlists),
	}
}

func (s *Store) persistLocked() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveState(s.snapshotLocked()); err != nil {
		log.Printf("Failed to persist library state: %v", err)
	}
}

func (s *Store) itemIndexLocked(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) playlistIndexLocked(id string) int {
	for i := range s.playlists {
		if s.playlists[i].ID == id {
			return i
		}
	}
	return -1
}

func validateDraft(draft ContentDraft) error {
	var missing []string
	if draft.Title == "" {
		missing = append(missing, "title")
	}
	if draft.Type == "" {
		missing = append(missing, "type")
	}
	if draft.Platform == "" {
		missing = append(missing, "platform")
	}
	if len(draft.Genre) == 0 {
		missing = append(missing, "genre")
	}
	if draft.ReleaseDate == "" {
		missing = append(missing, "releaseDate")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %v", missing)
	}
	return nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func cloneContent(c Content) Content {
	c.Genre = append([]string(nil), c.Genre...)
	if c.Rating != nil {
		r := *c.Rating
		c.Rating = &r
	}
	return c
}

func cloneItems(items []Content) []Content {
	out := make([]Content, len(items))
	for i, item := range items {
		out[i] = cloneContent(item)
	}
	return out
}

func clonePlaylist(pl Playlist) Playlist {
	pl.ContentIDs = append([]string{}, pl.ContentIDs...)
	if pl.Rules != nil {
		pl.Rules = append([]SmartPlaylistRule(nil), pl.Rules...)
	}
	return pl
}

func clonePlaylists(playlists []Playlist) []Playlist {
	out := make([]Playlist, len(playlists))
	for i, pl := range playlists {
		out[i] = clonePlaylist(pl)
	}
	return out
}
