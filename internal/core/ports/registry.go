package ports

import (
	"context"

	"github.com/onemusic/pipeline/internal/core/domain"
)

// CatalogStore persists one playlist's subgraph per call. The write is a
// single transaction: playlist, songs, artists and both link tables are
// upserted with get-or-create discipline, so re-running with identical
// upstream data changes nothing.
type CatalogStore interface {
	SavePlaylist(ctx context.Context, p domain.Playlist, songs []domain.SongWithArtists) error
}

// FeatureStore reads the known songs and persists their audio descriptors.
type FeatureStore interface {
	ListSongs(ctx context.Context) ([]domain.Song, error)
	UpsertAudioFeatures(ctx context.Context, f domain.AudioFeatures) error
	UpdateFeatureEnergy(ctx context.Context, songID string, energy float64) error
}

// LyricsStore supports the lyrics stage: enumerate unprocessed songs and
// commit one song's lyrics rows as a unit.
type LyricsStore interface {
	// ListSongsMissingLyrics returns songs that have no lyrics row yet,
	// each with its primary artist name for the search query.
	ListSongsMissingLyrics(ctx context.Context) ([]domain.SongWithArtist, error)

	// SaveSongLyrics writes the primary row plus any translation rows for
	// one song in a single transaction. Rows whose URL already exists are
	// left untouched.
	SaveSongLyrics(ctx context.Context, rows []domain.Lyrics) error
}

// PushStore is the read side used by the index/graph push stages and the
// snapshot exporter.
type PushStore interface {
	ListSongs(ctx context.Context) ([]domain.Song, error)
	ListPlaylistsForSong(ctx context.Context, songID string) ([]domain.Playlist, error)
	GetAudioFeatures(ctx context.Context, songID string) (domain.AudioFeatures, error)
	ListLyricsForSong(ctx context.Context, songID string) ([]domain.Lyrics, error)
	ListLyrics(ctx context.Context) ([]domain.Lyrics, error)

	// RecordObject books a pushed graph-store identity so later runs can
	// audit what was committed. Re-recording the same identity is a no-op.
	RecordObject(ctx context.Context, id, className, primaryKey, keyValue string) error
}
