package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
	"github.com/onemusic/pipeline/internal/lyricsfile"
	"github.com/onemusic/pipeline/internal/retry"
)

// VectorPush embeds every downloaded lyrics body and upserts the vectors in
// batches. Vector ids are the content-addressed file stems, so re-pushing
// overwrites rather than duplicates.
type VectorPush struct {
	embedder  ports.Embedder
	index     ports.VectorIndex
	store     ports.PushStore
	lyricsDir string
	batchSize int
	retry     retry.Policy
	log       zerolog.Logger
}

func NewVectorPush(
	embedder ports.Embedder,
	index ports.VectorIndex,
	store ports.PushStore,
	lyricsDir string,
	batchSize int,
	retryPolicy retry.Policy,
	log zerolog.Logger,
) *VectorPush {
	if batchSize < 1 {
		batchSize = 1
	}
	return &VectorPush{
		embedder:  embedder,
		index:     index,
		store:     store,
		lyricsDir: lyricsDir,
		batchSize: batchSize,
		retry:     retryPolicy,
		log:       log,
	}
}

type vectorItem struct {
	id       string
	text     string
	metadata map[string]string
}

// Run embeds and upserts all lyrics entries. Entries whose local file is
// missing are skipped with a warning.
func (s *VectorPush) Run(ctx context.Context) error {
	if err := s.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("vector push: %w", err)
	}

	rows, err := s.store.ListLyrics(ctx)
	if err != nil {
		return fmt.Errorf("vector push: %w", err)
	}

	var items []vectorItem
	var missing int
	for _, row := range rows {
		body, err := lyricsfile.Read(s.lyricsDir, row.FileName)
		if errors.Is(err, domain.ErrMissingLocalFile) {
			missing++
			s.log.Warn().Str("file", row.FileName).Str("url", row.GeniusURL).
				Msg("lyrics file missing, skipping entry")
			continue
		}
		if err != nil {
			return fmt.Errorf("vector push: %w", err)
		}

		items = append(items, vectorItem{
			id:   row.VectorID(),
			text: lyricsfile.StripHeaders(body, " "),
			metadata: map[string]string{
				"language":        row.Language,
				"song_spotify_id": row.SongSpotifyID,
			},
		})
	}

	for start := 0; start < len(items); start += s.batchSize {
		end := min(start+s.batchSize, len(items))
		if err := s.pushBatch(ctx, items[start:end]); err != nil {
			return fmt.Errorf("vector push: batch at %d: %w", start, err)
		}
	}

	s.log.Info().Int("entries", len(rows)).Int("pushed", len(items)).Int("missing", missing).
		Msg("vector push complete")
	return nil
}

func (s *VectorPush) pushBatch(ctx context.Context, batch []vectorItem) error {
	texts := make([]string, 0, len(batch))
	for _, item := range batch {
		texts = append(texts, item.text)
	}

	var embeddings [][]float32
	err := s.retry.Do(ctx, func() error {
		var embedErr error
		embeddings, embedErr = s.embedder.Embed(ctx, texts)
		return embedErr
	})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}

	vectors := make([]ports.Vector, 0, len(batch))
	for i, item := range batch {
		vectors = append(vectors, ports.Vector{
			ID:       item.id,
			Values:   embeddings[i],
			Metadata: item.metadata,
		})
	}

	return s.index.Upsert(ctx, vectors)
}
