package registry

import (
	"context"
	"fmt"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

// compile-time interface assertions
var (
	_ ports.CatalogStore = (*Store)(nil)
	_ ports.FeatureStore = (*Store)(nil)
)

// SavePlaylist upserts one playlist's subgraph in a single transaction.
// Every insert is keyed by the external identifier, so re-ingesting the same
// upstream data never creates a duplicate row or link.
func (s *Store) SavePlaylist(ctx context.Context, p domain.Playlist, songs []domain.SongWithArtists) error {
	// Surface malformed records before touching the database.
	if err := p.Validate(); err != nil {
		return err
	}
	for _, song := range songs {
		if err := song.Validate(); err != nil {
			return err
		}
		for _, artist := range song.Artists {
			if err := artist.Validate(); err != nil {
				return err
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registry: failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safety net: auto-rollback if we error before commit

	queryPlaylist := `
		INSERT INTO playlists (spotify_id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(spotify_id) DO UPDATE SET name=excluded.name, description=excluded.description;
	`
	if _, err := tx.ExecContext(ctx, queryPlaylist, p.SpotifyID, p.Name, p.Description); err != nil {
		return fmt.Errorf("registry: failed to save playlist %s: %w", p.SpotifyID, err)
	}

	stmtSong, err := tx.PrepareContext(ctx, `
		INSERT INTO songs (spotify_id, name, release_date, preview_url)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(spotify_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmtSong.Close()

	stmtArtist, err := tx.PrepareContext(ctx, `
		INSERT INTO artists (spotify_id, name)
		VALUES (?, ?)
		ON CONFLICT(spotify_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmtArtist.Close()

	stmtSongLink, err := tx.PrepareContext(ctx, `
		INSERT INTO songs_playlist (song_spotify_id, playlist_spotify_id)
		VALUES (?, ?)
		ON CONFLICT(song_spotify_id, playlist_spotify_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmtSongLink.Close()

	stmtArtistLink, err := tx.PrepareContext(ctx, `
		INSERT INTO songs_artists (song_spotify_id, artist_spotify_id)
		VALUES (?, ?)
		ON CONFLICT(song_spotify_id, artist_spotify_id) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer stmtArtistLink.Close()

	for _, song := range songs {
		if _, err := stmtSong.ExecContext(ctx, song.SpotifyID, song.Name, song.ReleaseDate, song.PreviewURL); err != nil {
			return fmt.Errorf("registry: failed to save song %s: %w", song.SpotifyID, err)
		}
		if _, err := stmtSongLink.ExecContext(ctx, song.SpotifyID, p.SpotifyID); err != nil {
			return fmt.Errorf("registry: failed to link song %s: %w", song.SpotifyID, err)
		}
		for _, artist := range song.Artists {
			if _, err := stmtArtist.ExecContext(ctx, artist.SpotifyID, artist.Name); err != nil {
				return fmt.Errorf("registry: failed to save artist %s: %w", artist.SpotifyID, err)
			}
			if _, err := stmtArtistLink.ExecContext(ctx, song.SpotifyID, artist.SpotifyID); err != nil {
				return fmt.Errorf("registry: failed to link artist %s: %w", artist.SpotifyID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("registry: transaction commit failed: %w", err)
	}

	return nil
}

// ListSongs returns every known song.
func (s *Store) ListSongs(ctx context.Context) ([]domain.Song, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT spotify_id, name, IFNULL(release_date, ''), IFNULL(preview_url, ''), date_added
		FROM songs
	`)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list songs: %w", err)
	}
	defer rows.Close()

	var songs []domain.Song
	for rows.Next() {
		var song domain.Song
		if err := rows.Scan(&song.SpotifyID, &song.Name, &song.ReleaseDate, &song.PreviewURL, &song.DateAdded); err != nil {
			return nil, fmt.Errorf("registry: failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: failed to iterate songs: %w", err)
	}

	return songs, nil
}

// UpsertAudioFeatures writes the full fixed-schema descriptor row for one
// song, overwriting an identically keyed row.
func (s *Store) UpsertAudioFeatures(ctx context.Context, f domain.AudioFeatures) error {
	if err := f.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO audio_features (
			song_spotify_id, acousticness, danceability, duration_ms, energy,
			instrumentalness, key, liveness, mode, speechiness, tempo, valence
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(song_spotify_id) DO UPDATE SET
			acousticness=excluded.acousticness,
			danceability=excluded.danceability,
			duration_ms=excluded.duration_ms,
			energy=excluded.energy,
			instrumentalness=excluded.instrumentalness,
			key=excluded.key,
			liveness=excluded.liveness,
			mode=excluded.mode,
			speechiness=excluded.speechiness,
			tempo=excluded.tempo,
			valence=excluded.valence;
	`
	if _, err := s.db.ExecContext(
		ctx,
		query,
		f.SongSpotifyID,
		f.Acousticness,
		f.Danceability,
		f.DurationMs,
		f.Energy,
		f.Instrumentalness,
		f.Key,
		f.Liveness,
		f.Mode,
		f.Speechiness,
		f.Tempo,
		f.Valence,
	); err != nil {
		return fmt.Errorf("registry: failed to save audio features for %s: %w", f.SongSpotifyID, err)
	}

	return nil
}

// UpdateFeatureEnergy overwrites the energy descriptor only, used by the
// preview-analysis backfill.
func (s *Store) UpdateFeatureEnergy(ctx context.Context, songID string, energy float64) error {
	if _, err := s.db.ExecContext(ctx,
		"UPDATE audio_features SET energy = ? WHERE song_spotify_id = ?", energy, songID,
	); err != nil {
		return fmt.Errorf("registry: failed to update energy for %s: %w", songID, err)
	}
	return nil
}
