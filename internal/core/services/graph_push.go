package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
	"github.com/onemusic/pipeline/internal/lyricsfile"
)

// Graph store class names.
const (
	classSong          = "Song"
	classPlaylist      = "Playlist"
	classAudioFeatures = "AudioFeatures"
	classLyrics        = "Lyrics"
)

// GraphPush mirrors the registry into the object store: one song per flush,
// objects committed before the references that point at them. Songs already
// present keep their children untouched.
type GraphPush struct {
	objects   ports.ObjectStore
	store     ports.PushStore
	lyricsDir string
	log       zerolog.Logger
}

func NewGraphPush(objects ports.ObjectStore, store ports.PushStore, lyricsDir string, log zerolog.Logger) *GraphPush {
	return &GraphPush{objects: objects, store: store, lyricsDir: lyricsDir, log: log}
}

type pushedRecord struct {
	id         string
	className  string
	primaryKey string
	keyValue   string
}

// Run pushes every song with its playlists, descriptors and lyrics. A song
// that fails is logged and skipped; the pass reports the aggregate.
func (s *GraphPush) Run(ctx context.Context) error {
	if err := s.objects.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("graph push: %w", err)
	}

	songs, err := s.store.ListSongs(ctx)
	if err != nil {
		return fmt.Errorf("graph push: %w", err)
	}

	var failed, skipped int
	for _, song := range songs {
		done, err := s.pushSong(ctx, song)
		if err != nil {
			// Abandon the song's partially queued subgraph so the next
			// song's flush cannot commit it.
			s.objects.Discard()
			if ctx.Err() != nil {
				return fmt.Errorf("graph push: %w", ctx.Err())
			}
			failed++
			s.log.Warn().Err(err).Str("song", song.SpotifyID).Msg("song push failed, continuing")
			continue
		}
		if !done {
			skipped++
		}
	}

	s.log.Info().Int("songs", len(songs)).Int("skipped", skipped).Int("failed", failed).
		Msg("graph push complete")
	if failed > 0 {
		return fmt.Errorf("graph push: %d of %d songs failed", failed, len(songs))
	}
	return nil
}

// pushSong queues one song's subgraph and flushes it. Returns false when the
// song object already existed and its children were left alone.
func (s *GraphPush) pushSong(ctx context.Context, song domain.Song) (bool, error) {
	songID := s.objects.AddObject(classSong, map[string]any{
		"name":         song.Name,
		"spotify_id":   song.SpotifyID,
		"release_date": song.ReleaseDate,
	})

	exists, err := s.objects.Exists(ctx, classSong, songID)
	if err != nil {
		return false, err
	}
	records := []pushedRecord{{songID, classSong, "spotify_id", song.SpotifyID}}

	// Children are pushed once; the song object itself re-flushes harmlessly
	// since its identity derives from its content.
	if !exists {
		playlistRecords, err := s.queuePlaylists(ctx, songID, song.SpotifyID)
		if err != nil {
			return false, err
		}
		records = append(records, playlistRecords...)

		featureRecords, err := s.queueFeatures(ctx, songID, song.SpotifyID)
		if err != nil {
			return false, err
		}
		records = append(records, featureRecords...)

		lyricsRecords, err := s.queueLyrics(ctx, songID, song.SpotifyID)
		if err != nil {
			return false, err
		}
		records = append(records, lyricsRecords...)
	}

	if err := s.objects.Flush(ctx); err != nil {
		return false, err
	}

	for _, r := range records {
		if err := s.store.RecordObject(ctx, r.id, r.className, r.primaryKey, r.keyValue); err != nil {
			return false, err
		}
	}

	return !exists, nil
}

func (s *GraphPush) queuePlaylists(ctx context.Context, songID, songSpotifyID string) ([]pushedRecord, error) {
	playlists, err := s.store.ListPlaylistsForSong(ctx, songSpotifyID)
	if err != nil {
		return nil, err
	}

	var records []pushedRecord
	for _, p := range playlists {
		playlistID := s.objects.AddObject(classPlaylist, map[string]any{
			"name":        p.Name,
			"spotify_id":  p.SpotifyID,
			"description": p.Description,
		})
		s.objects.AddReference(songID, classSong, "inPlaylist", playlistID, classPlaylist)
		s.objects.AddReference(playlistID, classPlaylist, "hasSong", songID, classSong)
		records = append(records, pushedRecord{playlistID, classPlaylist, "spotify_id", p.SpotifyID})
	}
	return records, nil
}

func (s *GraphPush) queueFeatures(ctx context.Context, songID, songSpotifyID string) ([]pushedRecord, error) {
	features, err := s.store.GetAudioFeatures(ctx, songSpotifyID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	featuresID := s.objects.AddObject(classAudioFeatures, map[string]any{
		"song_spotify_id":  features.SongSpotifyID,
		"acousticness":     features.Acousticness,
		"danceability":     features.Danceability,
		"duration_ms":      features.DurationMs,
		"energy":           features.Energy,
		"instrumentalness": features.Instrumentalness,
		"key":              features.Key,
		"liveness":         features.Liveness,
		"mode":             features.Mode,
		"speechiness":      features.Speechiness,
		"tempo":            features.Tempo,
		"valence":          features.Valence,
	})
	s.objects.AddReference(songID, classSong, "hasAudioFeatures", featuresID, classAudioFeatures)
	s.objects.AddReference(featuresID, classAudioFeatures, "ofSong", songID, classSong)
	return []pushedRecord{{featuresID, classAudioFeatures, "song_spotify_id", songSpotifyID}}, nil
}

func (s *GraphPush) queueLyrics(ctx context.Context, songID, songSpotifyID string) ([]pushedRecord, error) {
	rows, err := s.store.ListLyricsForSong(ctx, songSpotifyID)
	if err != nil {
		return nil, err
	}

	var records []pushedRecord
	for _, row := range rows {
		body, err := lyricsfile.Read(s.lyricsDir, row.FileName)
		if errors.Is(err, domain.ErrMissingLocalFile) {
			s.log.Warn().Str("file", row.FileName).Str("url", row.GeniusURL).
				Msg("lyrics file missing, skipping entry")
			continue
		}
		if err != nil {
			return nil, err
		}

		lyricsID := s.objects.AddObject(classLyrics, map[string]any{
			"body":       lyricsfile.StripHeaders(body, "--"),
			"language":   row.Language,
			"genius_url": row.GeniusURL,
		})
		s.objects.AddReference(songID, classSong, "hasLyrics", lyricsID, classLyrics)
		s.objects.AddReference(lyricsID, classLyrics, "ofSong", songID, classSong)
		records = append(records, pushedRecord{lyricsID, classLyrics, "genius_url", row.GeniusURL})
	}
	return records, nil
}
