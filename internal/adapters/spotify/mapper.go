package spotify

import "github.com/onemusic/pipeline/internal/core/domain"

func (wp wirePlaylist) toDomain() domain.Playlist {
	return domain.Playlist{
		SpotifyID:   wp.ID,
		Name:        wp.Name,
		Description: wp.Description,
	}
}

func (wt wireTrack) toDomain() domain.SongWithArtists {
	artists := make([]domain.Artist, 0, len(wt.Artists))
	for _, wa := range wt.Artists {
		artists = append(artists, domain.Artist{
			SpotifyID: wa.ID,
			Name:      wa.Name,
		})
	}

	return domain.SongWithArtists{
		Song: domain.Song{
			SpotifyID:   wt.ID,
			Name:        wt.Name,
			ReleaseDate: wt.Album.ReleaseDate,
			PreviewURL:  wt.PreviewURL,
		},
		Artists: artists,
	}
}

func (wf wireAudioFeatures) toDomain(songID string) domain.AudioFeatures {
	fill := func(v *float64) float64 {
		if v == nil {
			return domain.FeatureSentinel
		}
		return *v
	}

	return domain.AudioFeatures{
		SongSpotifyID:    songID,
		Acousticness:     fill(wf.Acousticness),
		Danceability:     fill(wf.Danceability),
		DurationMs:       fill(wf.DurationMs),
		Energy:           fill(wf.Energy),
		Instrumentalness: fill(wf.Instrumentalness),
		Key:              fill(wf.Key),
		Liveness:         fill(wf.Liveness),
		Mode:             fill(wf.Mode),
		Speechiness:      fill(wf.Speechiness),
		Tempo:            fill(wf.Tempo),
		Valence:          fill(wf.Valence),
	}
}
