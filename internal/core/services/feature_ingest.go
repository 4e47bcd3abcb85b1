package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
	"github.com/onemusic/pipeline/internal/worker"
)

// FeatureIngest fetches the numeric audio descriptors for every known song.
// Songs the descriptor endpoint refuses get a full sentinel row, and when a
// preview clip is available the energy column is backfilled from it in the
// background.
type FeatureIngest struct {
	client  ports.CatalogClient
	store   ports.FeatureStore
	pool    *worker.Pool
	workers int
	log     zerolog.Logger
}

func NewFeatureIngest(client ports.CatalogClient, store ports.FeatureStore, workers int, log zerolog.Logger) *FeatureIngest {
	return &FeatureIngest{
		client:  client,
		store:   store,
		pool:    worker.NewPool(store, 64, log),
		workers: workers,
		log:     log,
	}
}

// Run upserts one descriptor row per song. The pass is resumable: every row
// write is an idempotent upsert.
func (s *FeatureIngest) Run(ctx context.Context) error {
	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return fmt.Errorf("feature ingest: %w", err)
	}

	s.pool.Start(ctx, s.workers)
	defer s.pool.Stop()

	var fetched, sentinel int
	for _, song := range songs {
		features, err := s.client.GetAudioFeatures(ctx, song.SpotifyID)
		switch {
		case err == nil:
			fetched++
		case errors.Is(err, domain.ErrNotFound):
			// Descriptor endpoint refused the song. Persist the sentinel row
			// so the schema stays fixed, then try to recover energy from the
			// preview clip.
			features = domain.SentinelFeatures(song.SpotifyID)
			sentinel++
			s.pool.Submit(worker.Job{SongID: song.SpotifyID, PreviewURL: song.PreviewURL})
		default:
			return fmt.Errorf("feature ingest: song %s: %w", song.SpotifyID, err)
		}

		if err := s.store.UpsertAudioFeatures(ctx, features); err != nil {
			return fmt.Errorf("feature ingest: save song %s: %w", song.SpotifyID, err)
		}
	}

	s.log.Info().Int("songs", len(songs)).Int("fetched", fetched).Int("sentinel", sentinel).
		Msg("feature ingest complete")
	return nil
}
