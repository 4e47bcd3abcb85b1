// Package registry provides the SQLite-backed identity/dedup store shared by
// every pipeline stage.
package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // Import the driver anonymously
)

// Store implements the registry ports on a single local SQLite database.
// Access is one process at a time; the only locking discipline is a
// transaction per unit of work (playlist or song).
type Store struct {
	db *sql.DB
}

// NewStore opens the database and runs the schema migration.
func NewStore(connString string) (*Store, error) {
	db, err := sql.Open("sqlite3", connString)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("registry: failed to ping sqlite db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("registry: migration failed: %w", err)
	}

	return s, nil
}

// Close ensures the DB connection is closed gracefully.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS playlists (
		spotify_id TEXT PRIMARY KEY,
		date_added DATETIME DEFAULT CURRENT_TIMESTAMP,
		name TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS songs (
		spotify_id TEXT PRIMARY KEY,
		date_added DATETIME DEFAULT CURRENT_TIMESTAMP,
		name TEXT NOT NULL,
		release_date TEXT,
		preview_url TEXT
	);

	CREATE TABLE IF NOT EXISTS artists (
		spotify_id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audio_features (
		song_spotify_id TEXT PRIMARY KEY,
		acousticness REAL,
		danceability REAL,
		duration_ms REAL,
		energy REAL,
		instrumentalness REAL,
		key REAL,
		liveness REAL,
		mode REAL,
		speechiness REAL,
		tempo REAL,
		valence REAL,
		FOREIGN KEY(song_spotify_id) REFERENCES songs(spotify_id)
	);

	CREATE TABLE IF NOT EXISTS lyrics (
		genius_url TEXT PRIMARY KEY,
		song_spotify_id TEXT NOT NULL,
		date_added DATETIME DEFAULT CURRENT_TIMESTAMP,
		language TEXT,
		file_name TEXT NOT NULL,
		downloaded INTEGER NOT NULL DEFAULT 1,
		FOREIGN KEY(song_spotify_id) REFERENCES songs(spotify_id)
	);

	CREATE TABLE IF NOT EXISTS songs_playlist (
		song_spotify_id TEXT,
		playlist_spotify_id TEXT,
		PRIMARY KEY (song_spotify_id, playlist_spotify_id),
		FOREIGN KEY(song_spotify_id) REFERENCES songs(spotify_id),
		FOREIGN KEY(playlist_spotify_id) REFERENCES playlists(spotify_id)
	);

	CREATE TABLE IF NOT EXISTS songs_artists (
		song_spotify_id TEXT,
		artist_spotify_id TEXT,
		PRIMARY KEY (song_spotify_id, artist_spotify_id),
		FOREIGN KEY(song_spotify_id) REFERENCES songs(spotify_id),
		FOREIGN KEY(artist_spotify_id) REFERENCES artists(spotify_id)
	);

	CREATE TABLE IF NOT EXISTS pushed_objects (
		uuid TEXT PRIMARY KEY,
		date_added DATETIME DEFAULT CURRENT_TIMESTAMP,
		class_name TEXT,
		primary_key TEXT,
		key_value TEXT UNIQUE
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return err
	}

	return nil
}
