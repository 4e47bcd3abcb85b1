package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/onemusic/pipeline/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedPlaylist(t *testing.T, store *Store) {
	t.Helper()
	playlist := domain.Playlist{SpotifyID: "p1", Name: "Top 50 - Global", Description: "charts"}
	songs := []domain.SongWithArtists{
		{
			Song:    domain.Song{SpotifyID: "s1", Name: "Song One", ReleaseDate: "2020-01-01", PreviewURL: "https://cdn/p1.mp3"},
			Artists: []domain.Artist{{SpotifyID: "a1", Name: "Artist One"}},
		},
		{
			Song:    domain.Song{SpotifyID: "s2", Name: "Song Two", ReleaseDate: "2021-06-15"},
			Artists: []domain.Artist{{SpotifyID: "a1", Name: "Artist One"}, {SpotifyID: "a2", Name: "Artist Two"}},
		},
	}
	if err := store.SavePlaylist(context.Background(), playlist, songs); err != nil {
		t.Fatalf("save playlist: %v", err)
	}
}

func TestSavePlaylistIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedPlaylist(t, store)
	first, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}

	// Same upstream data twice: no row or link may be duplicated.
	seedPlaylist(t, store)
	second, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}

	if first != second {
		t.Fatalf("counts changed on re-ingest: first %+v, second %+v", first, second)
	}
	if second.Playlists != 1 || second.Songs != 2 || second.Artists != 2 {
		t.Fatalf("unexpected counts: %+v", second)
	}
	if second.SongPlaylist != 2 || second.SongArtists != 3 {
		t.Fatalf("unexpected link counts: %+v", second)
	}
}

func TestSavePlaylistSharedSongAcrossPlaylists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPlaylist(t, store)

	other := domain.Playlist{SpotifyID: "p2", Name: "Top 50 - USA"}
	shared := []domain.SongWithArtists{
		{
			Song:    domain.Song{SpotifyID: "s1", Name: "Song One"},
			Artists: []domain.Artist{{SpotifyID: "a1", Name: "Artist One"}},
		},
	}
	if err := store.SavePlaylist(ctx, other, shared); err != nil {
		t.Fatalf("save second playlist: %v", err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Songs != 2 {
		t.Fatalf("shared song duplicated: %+v", counts)
	}
	if counts.SongPlaylist != 3 {
		t.Fatalf("expected 3 playlist links, got %+v", counts)
	}

	playlists, err := store.ListPlaylistsForSong(ctx, "s1")
	if err != nil {
		t.Fatalf("list playlists for song: %v", err)
	}
	if len(playlists) != 2 {
		t.Fatalf("expected s1 in 2 playlists, got %d", len(playlists))
	}
}

func TestSavePlaylistValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		playlist domain.Playlist
		songs    []domain.SongWithArtists
	}{
		{
			name:     "playlist missing id",
			playlist: domain.Playlist{Name: "no id"},
		},
		{
			name:     "song missing name",
			playlist: domain.Playlist{SpotifyID: "p1", Name: "ok"},
			songs:    []domain.SongWithArtists{{Song: domain.Song{SpotifyID: "s1"}}},
		},
		{
			name:     "artist missing id",
			playlist: domain.Playlist{SpotifyID: "p1", Name: "ok"},
			songs: []domain.SongWithArtists{{
				Song:    domain.Song{SpotifyID: "s1", Name: "ok"},
				Artists: []domain.Artist{{Name: "no id"}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SavePlaylist(ctx, tt.playlist, tt.songs)
			if !errors.Is(err, domain.ValidationError{}) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpsertAudioFeatures(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPlaylist(t, store)

	features := domain.SentinelFeatures("s1")
	if err := store.UpsertAudioFeatures(ctx, features); err != nil {
		t.Fatalf("upsert features: %v", err)
	}

	got, err := store.GetAudioFeatures(ctx, "s1")
	if err != nil {
		t.Fatalf("get features: %v", err)
	}
	if got.Energy != domain.FeatureSentinel || got.Tempo != domain.FeatureSentinel {
		t.Fatalf("expected sentinel row, got %+v", got)
	}

	// A later fetch overwrites the sentinel row.
	features.Energy = 0.82
	features.Tempo = 120
	if err := store.UpsertAudioFeatures(ctx, features); err != nil {
		t.Fatalf("re-upsert features: %v", err)
	}
	got, err = store.GetAudioFeatures(ctx, "s1")
	if err != nil {
		t.Fatalf("get features: %v", err)
	}
	if got.Energy != 0.82 || got.Tempo != 120 {
		t.Fatalf("row not overwritten: %+v", got)
	}

	if _, err := store.GetAudioFeatures(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFeatureEnergy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPlaylist(t, store)

	if err := store.UpsertAudioFeatures(ctx, domain.SentinelFeatures("s1")); err != nil {
		t.Fatalf("upsert features: %v", err)
	}
	if err := store.UpdateFeatureEnergy(ctx, "s1", 0.4); err != nil {
		t.Fatalf("update energy: %v", err)
	}

	got, err := store.GetAudioFeatures(ctx, "s1")
	if err != nil {
		t.Fatalf("get features: %v", err)
	}
	if got.Energy != 0.4 {
		t.Fatalf("energy not updated: %+v", got)
	}
	if got.Valence != domain.FeatureSentinel {
		t.Fatalf("other descriptors touched: %+v", got)
	}
}

func TestLyricsResumeAndDedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedPlaylist(t, store)

	missing, err := store.ListSongsMissingLyrics(ctx)
	if err != nil {
		t.Fatalf("list missing: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("expected 2 songs missing lyrics, got %d", len(missing))
	}
	for _, song := range missing {
		if song.SpotifyID == "s1" && song.PrimaryArtist != "Artist One" {
			t.Fatalf("wrong primary artist for s1: %q", song.PrimaryArtist)
		}
	}

	rows := []domain.Lyrics{
		{GeniusURL: "https://genius.test/s1", SongSpotifyID: "s1", Language: "en", FileName: "aa.txt", Downloaded: true},
		{GeniusURL: "https://genius.test/s1-rom", SongSpotifyID: "s1", Language: "ko_rom", FileName: "bb.txt", Downloaded: true},
	}
	if err := store.SaveSongLyrics(ctx, rows); err != nil {
		t.Fatalf("save lyrics: %v", err)
	}

	// Processed songs drop out of the resume set.
	missing, err = store.ListSongsMissingLyrics(ctx)
	if err != nil {
		t.Fatalf("list missing: %v", err)
	}
	if len(missing) != 1 || missing[0].SpotifyID != "s2" {
		t.Fatalf("expected only s2 missing, got %+v", missing)
	}

	// Re-saving the same URLs changes nothing.
	if err := store.SaveSongLyrics(ctx, rows); err != nil {
		t.Fatalf("re-save lyrics: %v", err)
	}
	all, err := store.ListLyrics(ctx)
	if err != nil {
		t.Fatalf("list lyrics: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 lyrics rows, got %d", len(all))
	}

	forSong, err := store.ListLyricsForSong(ctx, "s1")
	if err != nil {
		t.Fatalf("list lyrics for song: %v", err)
	}
	if len(forSong) != 2 {
		t.Fatalf("expected 2 rows for s1, got %d", len(forSong))
	}
}

func TestRecordObject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordObject(ctx, "uuid-1", "Song", "spotify_id", "s1"); err != nil {
		t.Fatalf("record object: %v", err)
	}
	// Same identity again: no-op.
	if err := store.RecordObject(ctx, "uuid-1", "Song", "spotify_id", "s1"); err != nil {
		t.Fatalf("re-record object: %v", err)
	}
	// Same key under a new identity: booking is replaced, not rejected.
	if err := store.RecordObject(ctx, "uuid-2", "Song", "spotify_id", "s1"); err != nil {
		t.Fatalf("record changed object: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM pushed_objects").Scan(&count); err != nil {
		t.Fatalf("count pushed objects: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 booking, got %d", count)
	}

	var id string
	if err := store.db.QueryRow("SELECT uuid FROM pushed_objects WHERE key_value = 's1'").Scan(&id); err != nil {
		t.Fatalf("load booking: %v", err)
	}
	if id != "uuid-2" {
		t.Fatalf("booking not replaced: %s", id)
	}
}
