package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
	"github.com/onemusic/pipeline/internal/lyricsfile"
	"github.com/onemusic/pipeline/internal/ratelimit"
	"github.com/onemusic/pipeline/internal/retry"
)

// LyricsIngest finds lyrics for songs that have none yet: search, scrape the
// primary page and its translations, detect each body's language, and commit
// all of a song's rows in one transaction. A failed song is logged and
// skipped; the pass reports the aggregate at the end.
type LyricsIngest struct {
	client   ports.LyricsClient
	detector ports.LanguageDetector
	store    ports.LyricsStore
	dir      string
	throttle ratelimit.Throttle
	retry    retry.Policy
	log      zerolog.Logger
}

func NewLyricsIngest(
	client ports.LyricsClient,
	detector ports.LanguageDetector,
	store ports.LyricsStore,
	dir string,
	throttle ratelimit.Throttle,
	retryPolicy retry.Policy,
	log zerolog.Logger,
) *LyricsIngest {
	return &LyricsIngest{
		client:   client,
		detector: detector,
		store:    store,
		dir:      dir,
		throttle: throttle,
		retry:    retryPolicy,
		log:      log,
	}
}

// Run processes every song still missing lyrics. The song set is computed
// once up front, so an interrupted pass resumes where it left off on the
// next run.
func (s *LyricsIngest) Run(ctx context.Context) error {
	songs, err := s.store.ListSongsMissingLyrics(ctx)
	if err != nil {
		return fmt.Errorf("lyrics ingest: %w", err)
	}

	var failed int
	for _, song := range songs {
		if err := s.processSong(ctx, song); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("lyrics ingest: %w", ctx.Err())
			}
			// A rate limit that survived its retry means the whole run is
			// throttled; malformed records must surface, not be skipped.
			if errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ValidationError{}) {
				return fmt.Errorf("lyrics ingest: song %s: %w", song.SpotifyID, err)
			}
			failed++
			s.log.Warn().Err(err).Str("song", song.Name).Str("artist", song.PrimaryArtist).
				Msg("song failed, continuing")
		}
	}

	s.log.Info().Int("songs", len(songs)).Int("failed", failed).Msg("lyrics ingest complete")
	if failed > 0 {
		return fmt.Errorf("lyrics ingest: %d of %d songs failed", failed, len(songs))
	}
	return nil
}

func (s *LyricsIngest) processSong(ctx context.Context, song domain.SongWithArtist) error {
	if err := s.throttle.Wait(ctx); err != nil {
		return err
	}

	hit, err := s.client.SearchSong(ctx, song.Name, song.PrimaryArtist)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if hit == nil || hit.Body == "" {
		s.log.Debug().Str("song", song.Name).Msg("no usable lyrics found")
		return nil
	}

	primary, err := s.buildEntry(ctx, song.SpotifyID, hit.URL, hit.Body, "", true)
	if err != nil {
		return err
	}
	rows := []domain.Lyrics{primary}

	translations, err := s.client.CrawlTranslations(ctx, hit.URL)
	if err != nil {
		return fmt.Errorf("crawl translations: %w", err)
	}
	for _, tr := range translations {
		if err := s.throttle.Wait(ctx); err != nil {
			return err
		}

		body, err := s.client.FetchLyrics(ctx, tr.URL)
		if err != nil {
			return fmt.Errorf("fetch translation %s: %w", tr.URL, err)
		}
		if body == "" {
			s.log.Debug().Str("url", tr.URL).Msg("blank translation page, skipping")
			continue
		}

		entry, err := s.buildEntry(ctx, song.SpotifyID, tr.URL, body, tr.Label, false)
		if err != nil {
			return err
		}
		rows = append(rows, entry)
	}

	if err := s.store.SaveSongLyrics(ctx, rows); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	s.log.Info().Str("song", song.Name).Int("entries", len(rows)).Msg("ingested lyrics")
	return nil
}

// buildEntry persists the body to its content-addressed file and classifies
// its language. The file write happens before the database commit, so a
// crash can orphan a file but never a row.
func (s *LyricsIngest) buildEntry(ctx context.Context, songID, url, body, label string, primary bool) (domain.Lyrics, error) {
	name := lyricsfile.Name(url)
	if err := lyricsfile.Save(s.dir, name, body); err != nil {
		return domain.Lyrics{}, err
	}

	snippet := lyricsfile.Snippet(body, primary)

	var lang ports.Language
	err := s.retry.Do(ctx, func() error {
		var detectErr error
		lang, detectErr = s.detector.DetectLanguage(ctx, snippet)
		return detectErr
	})
	if err != nil {
		return domain.Lyrics{}, fmt.Errorf("detect language for %s: %w", url, err)
	}

	code := lang.Code
	if label != "" {
		code = domain.NormalizeLanguageCode(code, label)
	}

	return domain.Lyrics{
		GeniusURL:     url,
		SongSpotifyID: songID,
		Language:      code,
		FileName:      name,
		Downloaded:    true,
	}, nil
}
