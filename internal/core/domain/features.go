package domain

// FeatureSentinel fills descriptor fields the source omitted so a features
// row always carries the complete fixed schema.
const FeatureSentinel = -1

// AudioFeatures holds the numeric audio descriptors for one song. Each song
// has at most one row; it is absent until fetched.
type AudioFeatures struct {
	SongSpotifyID    string
	Acousticness     float64
	Danceability     float64
	DurationMs       float64
	Energy           float64
	Instrumentalness float64
	Key              float64
	Liveness         float64
	Mode             float64
	Speechiness      float64
	Tempo            float64
	Valence          float64
}

func (f AudioFeatures) Validate() error {
	if f.SongSpotifyID == "" {
		return ValidationError{Kind: "audio_features", Field: "song_spotify_id"}
	}
	return nil
}

// SentinelFeatures returns a row with every descriptor set to the sentinel,
// used when the source withholds the data entirely.
func SentinelFeatures(songSpotifyID string) AudioFeatures {
	return AudioFeatures{
		SongSpotifyID:    songSpotifyID,
		Acousticness:     FeatureSentinel,
		Danceability:     FeatureSentinel,
		DurationMs:       FeatureSentinel,
		Energy:           FeatureSentinel,
		Instrumentalness: FeatureSentinel,
		Key:              FeatureSentinel,
		Liveness:         FeatureSentinel,
		Mode:             FeatureSentinel,
		Speechiness:      FeatureSentinel,
		Tempo:            FeatureSentinel,
		Valence:          FeatureSentinel,
	}
}
