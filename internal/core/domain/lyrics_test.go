package domain

import (
	"errors"
	"testing"
)

func TestNormalizeLanguageCode(t *testing.T) {
	tests := []struct {
		name     string
		detected string
		label    string
		want     string
	}{
		{"plain translation keeps detected code", "es", "Español", "es"},
		{"romanization gets suffix", "ko", "Romanization", "ko_rom"},
		{"romanization match is case-insensitive", "ja", "romanization", "ja_rom"},
		{"empty label keeps detected code", "en", "", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLanguageCode(tt.detected, tt.label); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLyricsVectorID(t *testing.T) {
	l := Lyrics{FileName: "00deadbeef00cafe.txt"}
	if got := l.VectorID(); got != "00deadbeef00cafe" {
		t.Fatalf("got %q", got)
	}

	// No extension: the name is already the id.
	l = Lyrics{FileName: "raw"}
	if got := l.VectorID(); got != "raw" {
		t.Fatalf("got %q", got)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"playlist", Playlist{}.Validate()},
		{"song", Song{SpotifyID: "s1"}.Validate()},
		{"artist", Artist{SpotifyID: "a1"}.Validate()},
		{"lyrics", Lyrics{GeniusURL: "u", SongSpotifyID: "s1"}.Validate()},
		{"features", AudioFeatures{}.Validate()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("expected a validation error")
			}
			if !errors.Is(tt.err, ValidationError{}) {
				t.Fatalf("not a ValidationError: %v", tt.err)
			}
		})
	}

	valid := Lyrics{GeniusURL: "u", SongSpotifyID: "s1", FileName: "f.txt"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSentinelFeatures(t *testing.T) {
	f := SentinelFeatures("s1")
	if f.SongSpotifyID != "s1" {
		t.Fatalf("song id lost: %+v", f)
	}
	for name, v := range map[string]float64{
		"acousticness": f.Acousticness,
		"energy":       f.Energy,
		"key":          f.Key,
		"tempo":        f.Tempo,
		"valence":      f.Valence,
	} {
		if v != FeatureSentinel {
			t.Fatalf("%s not sentinel: %v", name, v)
		}
	}
}
