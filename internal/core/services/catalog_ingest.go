// Package services wires the pipeline stages: each service is one runnable
// stage over the ports.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

// CatalogIngest walks an account's playlists, keeps those matching the name
// filter, and persists each playlist's subgraph in its own transaction.
type CatalogIngest struct {
	client ports.CatalogClient
	store  ports.CatalogStore
	userID string
	filter string
	log    zerolog.Logger
}

func NewCatalogIngest(client ports.CatalogClient, store ports.CatalogStore, userID, filter string, log zerolog.Logger) *CatalogIngest {
	return &CatalogIngest{client: client, store: store, userID: userID, filter: filter, log: log}
}

// Run performs one ingest pass. Re-running against unchanged upstream data
// changes nothing in the registry.
func (s *CatalogIngest) Run(ctx context.Context) error {
	var playlists, songs int

	err := s.client.ListPlaylists(ctx, s.userID, func(p domain.Playlist) error {
		if s.filter != "" && !strings.Contains(p.Name, s.filter) {
			return nil
		}

		withArtists, err := s.client.ListPlaylistSongs(ctx, p.SpotifyID)
		if err != nil {
			return fmt.Errorf("list songs for playlist %s: %w", p.SpotifyID, err)
		}
		if len(withArtists) == 0 {
			s.log.Debug().Str("playlist", p.Name).Msg("playlist empty, skipping")
			return nil
		}

		if err := s.store.SavePlaylist(ctx, p, withArtists); err != nil {
			return fmt.Errorf("save playlist %s: %w", p.SpotifyID, err)
		}

		playlists++
		songs += len(withArtists)
		s.log.Info().Str("playlist", p.Name).Int("songs", len(withArtists)).Msg("ingested playlist")
		return nil
	})
	if err != nil {
		return fmt.Errorf("catalog ingest: %w", err)
	}

	s.log.Info().Int("playlists", playlists).Int("songs", songs).Msg("catalog ingest complete")
	return nil
}
