package ports

import "context"

// LyricsHit is a successful lyrics search result.
type LyricsHit struct {
	URL  string
	Body string
}

// Translation is one entry of a lyrics page's translation menu.
type Translation struct {
	URL   string
	Label string
}

// LyricsClient is the external lyrics source. Search is a fuzzy external
// match, not a guaranteed hit.
type LyricsClient interface {
	// SearchSong returns the best match for the song, or nil when the source
	// has no result. A hit with an empty body is possible (blank pages).
	SearchSong(ctx context.Context, name, artist string) (*LyricsHit, error)

	// FetchLyrics returns the lyrics body at the given page URL, or the
	// empty string for a blank page.
	FetchLyrics(ctx context.Context, url string) (string, error)

	// CrawlTranslations scrapes the lyrics page's translation menu. The
	// returned sequence is finite and may be empty.
	CrawlTranslations(ctx context.Context, url string) ([]Translation, error)
}

// Language is a detector result.
type Language struct {
	Name string
	Code string
}

// LanguageDetector classifies a text snippet. May fail with
// domain.ErrRateLimited on API throttling.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (Language, error)
}
