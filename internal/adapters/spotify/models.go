package spotify

// Wire representations of the trimmed Spotify Web API responses.

type pagedPlaylists struct {
	Items []wirePlaylist `json:"items"`
	Next  string         `json:"next"`
}

type wirePlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type pagedTracks struct {
	Items []trackItem `json:"items"`
	Next  string      `json:"next"`
}

type trackItem struct {
	Track wireTrack `json:"track"`
}

type wireTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url"`
	Album      struct {
		ReleaseDate string `json:"release_date"`
	} `json:"album"`
	Artists []wireArtist `json:"artists"`
}

type wireArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Descriptor fields are pointers so an omitted field is distinguishable from
// a zero value and can be filled with the sentinel.
type wireAudioFeatures struct {
	ID               string   `json:"id"`
	Acousticness     *float64 `json:"acousticness"`
	Danceability     *float64 `json:"danceability"`
	DurationMs       *float64 `json:"duration_ms"`
	Energy           *float64 `json:"energy"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Key              *float64 `json:"key"`
	Liveness         *float64 `json:"liveness"`
	Mode             *float64 `json:"mode"`
	Speechiness      *float64 `json:"speechiness"`
	Tempo            *float64 `json:"tempo"`
	Valence          *float64 `json:"valence"`
}
