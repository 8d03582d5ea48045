package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"medialog/store"
)

// SQLiteStorage mirrors the content store's state into a SQLite database. It
// implements store.Persister: SaveState replaces the whole library in one
// transaction, LoadState rehydrates it at startup.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	dataPath string
}

func NewSQLiteStorage(dataPath string) *SQLiteStorage {
	dbPath := filepath.Join(dataPath, "medialog.db")
	return &SQLiteStorage{
		dbPath:   dbPath,
		dataPath: dataPath,
	}
}

func (s *SQLiteStorage) Initialize() error {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(s.dataPath, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %v", err)
	}

	s.db = db

	// Initialize and run migrations using Goose
	migrationManager := NewMigrationManager(s.db)
	if err := migrationManager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize migrations: %v", err)
	}

	if err := migrationManager.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %v", err)
	}

	log.Printf("SQLite database initialized at: %s", s.dbPath)
	return nil
}

// SaveState replaces the persisted library with the given snapshot. Both
// tables are rewritten inside a single transaction so the on-disk state is
// always a consistent snapshot, never a partial one.
func (s *SQLiteStorage) SaveState(snap store.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM content`); err != nil {
		return fmt.Errorf("failed to clear content: %v", err)
	}
	if _, err := tx.Exec(`DELETE FROM playlists`); err != nil {
		return fmt.Errorf("failed to clear playlists: %v", err)
	}

	itemStmt, err := tx.Prepare(`
	INSERT INTO content (id, position, title, type, platform, genre, release_date,
		watched, rating, image, host, episode_count, duration)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare content insert: %v", err)
	}
	defer itemStmt.Close()

	for i, item := range snap.Items {
		genre, err := json.Marshal(item.Genre)
		if err != nil {
			return fmt.Errorf("failed to encode genre for %s: %v", item.ID, err)
		}
		_, err = itemStmt.Exec(item.ID, i, item.Title, item.Type, item.Platform, string(genre),
			item.ReleaseDate, item.Watched, item.Rating, item.Image,
			item.Host, item.EpisodeCount, item.Duration)
		if err != nil {
			return fmt.Errorf("failed to insert content %s: %v", item.ID, err)
		}
	}

	plStmt, err := tx.Prepare(`
	INSERT INTO playlists (id, position, name, description, content_ids,
		created_at, updated_at, type, rules, visibility)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare playlist insert: %v", err)
	}
	defer plStmt.Close()

	for i, pl := range snap.Playlists {
		contentIDs, err := json.Marshal(pl.ContentIDs)
		if err != nil {
			return fmt.Errorf("failed to encode membership for %s: %v", pl.ID, err)
		}

		var rules interface{}
		if pl.Type == store.PlaylistSmart {
			encoded, err := json.Marshal(pl.Rules)
			if err != nil {
				return fmt.Errorf("failed to encode rules for %s: %v", pl.ID, err)
			}
			rules = string(encoded)
		}

		_, err = plStmt.Exec(pl.ID, i, pl.Name, pl.Description, string(contentIDs),
			pl.CreatedAt, pl.UpdatedAt, pl.Type, rules, pl.Visibility)
		if err != nil {
			return fmt.Errorf("failed to insert playlist %s: %v", pl.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %v", err)
	}
	return nil
}

// LoadState reads the persisted library back in insertion order. A fresh
// database yields empty collections; rows that fail to decode are skipped
// with a warning rather than failing the load.
func (s *SQLiteStorage) LoadState() (store.Snapshot, error) {
	snap := store.Snapshot{}

	rows, err := s.db.Query(`
	SELECT id, title, type, platform, genre, release_date, watched, rating,
		image, host, episode_count, duration
	FROM content
	ORDER BY position
	`)
	if err != nil {
		return snap, fmt.Errorf("failed to query content: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item store.Content
		var genre string
		err := rows.Scan(&item.ID, &item.Title, &item.Type, &item.Platform, &genre,
			&item.ReleaseDate, &item.Watched, &item.Rating, &item.Image,
			&item.Host, &item.EpisodeCount, &item.Duration)
		if err != nil {
			return snap, fmt.Errorf("failed to scan content: %v", err)
		}
		if err := json.Unmarshal([]byte(genre), &item.Genre); err != nil {
			log.Printf("Skipping content %s: bad genre data: %v", item.ID, err)
			continue
		}
		snap.Items = append(snap.Items, item)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("failed to read content rows: %v", err)
	}

	plRows, err := s.db.Query(`
	SELECT id, name, description, content_ids, created_at, updated_at, type, rules, visibility
	FROM playlists
	ORDER BY position
	`)
	if err != nil {
		return snap, fmt.Errorf("failed to query playlists: %v", err)
	}
	defer plRows.Close()

	for plRows.Next() {
		var pl store.Playlist
		var contentIDs string
		var rules sql.NullString
		err := plRows.Scan(&pl.ID, &pl.Name, &pl.Description, &contentIDs,
			&pl.CreatedAt, &pl.UpdatedAt, &pl.Type, &rules, &pl.Visibility)
		if err != nil {
			return snap, fmt.Errorf("failed to scan playlist: %v", err)
		}
		if err := json.Unmarshal([]byte(contentIDs), &pl.ContentIDs); err != nil {
			log.Printf("Skipping playlist %s: bad membership data: %v", pl.ID, err)
			continue
		}
		if rules.Valid {
			if err := json.Unmarshal([]byte(rules.String), &pl.Rules); err != nil {
				log.Printf("Skipping playlist %s: bad rule data: %v", pl.ID, err)
				continue
			}
		}
		snap.Playlists = append(snap.Playlists, pl)
	}
	if err := plRows.Err(); err != nil {
		return snap, fmt.Errorf("failed to read playlist rows: %v", err)
	}

	return snap, nil
}

func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) GetDB() (*sql.DB, error) {
	if s.db == nil {
		db, err := sql.Open("sqlite3", s.dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %v", err)
		}
		s.db = db
	}
	return s.db, nil
}

// Migration management methods
func (s *SQLiteStorage) GetMigrationManager() *MigrationManager {
	return NewMigrationManager(s.db)
}

func (s *SQLiteStorage) GetDatabaseVersion() (int64, error) {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return 0, err
	}
	return migrationManager.Version()
}

func (s *SQLiteStorage) RunMigrations() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Up()
}

func (s *SQLiteStorage) RollbackMigration() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Down()
}

func (s *SQLiteStorage) ResetDatabase() error {
	migrationManager := s.GetMigrationManager()
	if err := migrationManager.Initialize(); err != nil {
		return err
	}
	return migrationManager.Reset()
}
