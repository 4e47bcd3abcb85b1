package ports

import (
	"context"

	"github.com/onemusic/pipeline/internal/core/domain"
)

// CatalogClient is the external streaming-catalog API. Implementations page
// through results internally; the visitor sees one logical sequence.
type CatalogClient interface {
	// ListPlaylists visits every playlist of the given account, following
	// pagination cursors until exhausted. A non-nil error from fn stops the
	// walk and is returned.
	ListPlaylists(ctx context.Context, userID string, fn func(domain.Playlist) error) error

	// ListPlaylistSongs returns the playlist's songs with their credited
	// artists, in source order. An empty slice means the playlist should be
	// skipped, not that the call failed.
	ListPlaylistSongs(ctx context.Context, playlistID string) ([]domain.SongWithArtists, error)

	// GetAudioFeatures returns the numeric descriptors for one song, with
	// any field the source omitted already filled with the sentinel.
	// domain.ErrNotFound when the source withholds the record entirely.
	GetAudioFeatures(ctx context.Context, songID string) (domain.AudioFeatures, error)
}
