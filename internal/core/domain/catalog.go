package domain

import "time"

// Playlist is a playlist from the external catalog, keyed by its stable
// Spotify identifier. Name and description are refreshed on re-poll.
type Playlist struct {
	SpotifyID   string
	Name        string
	Description string
	DateAdded   time.Time
}

// Validate reports the first missing required field, if any.
func (p Playlist) Validate() error {
	if p.SpotifyID == "" {
		return ValidationError{Kind: "playlist", Field: "spotify_id"}
	}
	if p.Name == "" {
		return ValidationError{Kind: "playlist", Field: "name"}
	}
	return nil
}

// Song is a track from the external catalog.
type Song struct {
	SpotifyID   string
	Name        string
	ReleaseDate string
	PreviewURL  string
	DateAdded   time.Time
}

func (s Song) Validate() error {
	if s.SpotifyID == "" {
		return ValidationError{Kind: "song", Field: "spotify_id"}
	}
	if s.Name == "" {
		return ValidationError{Kind: "song", Field: "name"}
	}
	return nil
}

// Artist is a performing artist from the external catalog.
type Artist struct {
	SpotifyID string
	Name      string
}

func (a Artist) Validate() error {
	if a.SpotifyID == "" {
		return ValidationError{Kind: "artist", Field: "spotify_id"}
	}
	if a.Name == "" {
		return ValidationError{Kind: "artist", Field: "name"}
	}
	return nil
}

// SongWithArtists is a song together with its credited artists, as returned
// by a playlist listing. Artist order is source-defined and preserved.
type SongWithArtists struct {
	Song
	Artists []Artist
}

// SongWithArtist pairs a song with its primary artist name, the shape the
// lyrics search needs.
type SongWithArtist struct {
	Song
	PrimaryArtist string
}
