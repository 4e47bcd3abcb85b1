package registry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

var (
	_ ports.LyricsStore = (*Store)(nil)
	_ ports.PushStore   = (*Store)(nil)
)

// ListSongsMissingLyrics returns the songs with no lyrics row yet, each with
// its primary artist name. Interrupted lyrics runs resume from exactly this
// set.
func (s *Store) ListSongsMissingLyrics(ctx context.Context) ([]domain.SongWithArtist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.spotify_id, s.name, IFNULL(s.preview_url, ''),
			IFNULL((
				SELECT a.name FROM artists a
				JOIN songs_artists sa ON sa.artist_spotify_id = a.spotify_id
				WHERE sa.song_spotify_id = s.spotify_id
				ORDER BY sa.rowid ASC
				LIMIT 1
			), '')
		FROM songs s
		LEFT JOIN lyrics l ON l.song_spotify_id = s.spotify_id
		WHERE l.genius_url IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list songs missing lyrics: %w", err)
	}
	defer rows.Close()

	var songs []domain.SongWithArtist
	for rows.Next() {
		var song domain.SongWithArtist
		if err := rows.Scan(&song.SpotifyID, &song.Name, &song.PreviewURL, &song.PrimaryArtist); err != nil {
			return nil, fmt.Errorf("registry: failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: failed to iterate songs: %w", err)
	}

	return songs, nil
}

// SaveSongLyrics writes one song's lyrics rows (primary plus translations)
// in a single transaction, keyed by URL. Existing URLs are left untouched.
func (s *Store) SaveSongLyrics(ctx context.Context, rows []domain.Lyrics) error {
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registry: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lyrics (genius_url, song_spotify_id, language, file_name, downloaded)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(genius_url) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.GeniusURL, row.SongSpotifyID, row.Language, row.FileName, row.Downloaded); err != nil {
			return fmt.Errorf("registry: failed to save lyrics %s: %w", row.GeniusURL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("registry: transaction commit failed: %w", err)
	}

	return nil
}

// ListPlaylistsForSong returns every playlist linked to the song.
func (s *Store) ListPlaylistsForSong(ctx context.Context, songID string) ([]domain.Playlist, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.spotify_id, p.name, IFNULL(p.description, ''), p.date_added
		FROM playlists p
		JOIN songs_playlist sp ON sp.playlist_spotify_id = p.spotify_id
		WHERE sp.song_spotify_id = ?
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list playlists for song %s: %w", songID, err)
	}
	defer rows.Close()

	var playlists []domain.Playlist
	for rows.Next() {
		var p domain.Playlist
		if err := rows.Scan(&p.SpotifyID, &p.Name, &p.Description, &p.DateAdded); err != nil {
			return nil, fmt.Errorf("registry: failed to scan playlist: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: failed to iterate playlists: %w", err)
	}

	return playlists, nil
}

// GetAudioFeatures returns the descriptor row for one song, or
// domain.ErrNotFound when the feature stage has not reached it yet.
func (s *Store) GetAudioFeatures(ctx context.Context, songID string) (domain.AudioFeatures, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT song_spotify_id, acousticness, danceability, duration_ms, energy,
			instrumentalness, key, liveness, mode, speechiness, tempo, valence
		FROM audio_features
		WHERE song_spotify_id = ?
	`, songID)

	var f domain.AudioFeatures
	if err := row.Scan(
		&f.SongSpotifyID,
		&f.Acousticness,
		&f.Danceability,
		&f.DurationMs,
		&f.Energy,
		&f.Instrumentalness,
		&f.Key,
		&f.Liveness,
		&f.Mode,
		&f.Speechiness,
		&f.Tempo,
		&f.Valence,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.AudioFeatures{}, domain.ErrNotFound
		}
		return domain.AudioFeatures{}, fmt.Errorf("registry: failed to load audio features: %w", err)
	}

	return f, nil
}

func scanLyricsRows(rows *sql.Rows) ([]domain.Lyrics, error) {
	var entries []domain.Lyrics
	for rows.Next() {
		var l domain.Lyrics
		if err := rows.Scan(&l.GeniusURL, &l.SongSpotifyID, &l.Language, &l.FileName, &l.Downloaded, &l.DateAdded); err != nil {
			return nil, fmt.Errorf("registry: failed to scan lyrics: %w", err)
		}
		entries = append(entries, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: failed to iterate lyrics: %w", err)
	}
	return entries, nil
}

// ListLyricsForSong returns the lyrics rows of one song.
func (s *Store) ListLyricsForSong(ctx context.Context, songID string) ([]domain.Lyrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT genius_url, song_spotify_id, IFNULL(language, ''), file_name, downloaded, date_added
		FROM lyrics
		WHERE song_spotify_id = ?
	`, songID)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list lyrics for song %s: %w", songID, err)
	}
	defer rows.Close()

	return scanLyricsRows(rows)
}

// ListLyrics returns every lyrics row.
func (s *Store) ListLyrics(ctx context.Context) ([]domain.Lyrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT genius_url, song_spotify_id, IFNULL(language, ''), file_name, downloaded, date_added
		FROM lyrics
	`)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list lyrics: %w", err)
	}
	defer rows.Close()

	return scanLyricsRows(rows)
}

// RecordObject books a pushed graph-store identity. A key pushed again
// under a new identity (its content changed) replaces the old booking.
func (s *Store) RecordObject(ctx context.Context, id, className, primaryKey, keyValue string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO pushed_objects (uuid, class_name, primary_key, key_value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(uuid) DO NOTHING
		ON CONFLICT(key_value) DO UPDATE SET uuid=excluded.uuid
	`, id, className, primaryKey, keyValue); err != nil {
		return fmt.Errorf("registry: failed to record object %s: %w", id, err)
	}
	return nil
}

// Counts reports per-table row counts, used for idempotence checks and the
// end-of-run summary.
type Counts struct {
	Playlists     int
	Songs         int
	Artists       int
	AudioFeatures int
	Lyrics        int
	SongPlaylist  int
	SongArtists   int
}

// Counts returns the current row counts of every registry table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for _, q := range []struct {
		table string
		dst   *int
	}{
		{"playlists", &c.Playlists},
		{"songs", &c.Songs},
		{"artists", &c.Artists},
		{"audio_features", &c.AudioFeatures},
		{"lyrics", &c.Lyrics},
		{"songs_playlist", &c.SongPlaylist},
		{"songs_artists", &c.SongArtists},
	} {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+q.table).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("registry: failed to count %s: %w", q.table, err)
		}
	}
	return c, nil
}
