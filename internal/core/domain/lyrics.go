package domain

import (
	"strings"
	"time"
)

// Lyrics is one persisted lyrics entry. Keyed by source URL: a song
// legitimately has a primary entry plus several translations, each with its
// own URL. The text body lives in a content-addressed file; the row carries
// only the file name.
type Lyrics struct {
	GeniusURL     string
	SongSpotifyID string
	Language      string
	FileName      string
	Downloaded    bool
	DateAdded     time.Time
}

func (l Lyrics) Validate() error {
	if l.GeniusURL == "" {
		return ValidationError{Kind: "lyrics", Field: "genius_url"}
	}
	if l.SongSpotifyID == "" {
		return ValidationError{Kind: "lyrics", Field: "song_spotify_id"}
	}
	if l.FileName == "" {
		return ValidationError{Kind: "lyrics", Field: "file_name"}
	}
	return nil
}

// VectorID is the identifier the lyrics entry carries in the vector index:
// the content-addressed file name without its extension.
func (l Lyrics) VectorID() string {
	name := l.FileName
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	return name
}

// NormalizeLanguageCode applies the label special case: a translation item
// labeled "Romanization" is not a distinct language, so the detected code is
// suffixed with "_rom" instead of trusting the raw label.
func NormalizeLanguageCode(detectedCode, scrapedLabel string) string {
	if strings.EqualFold(scrapedLabel, "romanization") {
		return detectedCode + "_rom"
	}
	return detectedCode
}
