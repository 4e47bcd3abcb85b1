// Package spotify implements the catalog client against the Spotify Web API.
package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"
	tokenURL       = "https://accounts.spotify.com/api/token"

	// Trimmed response shape for playlist items, same fields the registry
	// persists.
	playlistItemFields = "items(track(id,name,preview_url,album(release_date),artists(id,name))),next"

	pageLimit = 50
)

// Client is an HTTP client for the Spotify catalog.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	log         zerolog.Logger
}

// compile-time interface assertion
var _ ports.CatalogClient = (*Client)(nil)

// NewClient constructs a catalog client using the client-credentials flow.
func NewClient(ctx context.Context, clientID, clientSecret string, log zerolog.Logger) *Client {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}

	return &Client{
		httpClient: cc.Client(ctx),
		baseURL:    defaultBaseURL,
		log:        log,
	}
}

// NewClientWithHTTP constructs a client against an arbitrary endpoint,
// used by tests.
func NewClientWithHTTP(httpClient *http.Client, baseURL string, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		log:        log,
	}
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("spotify adapter: %w", err)
	}

	resp, err := c.doRequestWithRetry(req)
	if err != nil {
		return fmt.Errorf("spotify adapter: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden, http.StatusNotFound:
		return domain.ErrNotFound
	default:
		return fmt.Errorf("spotify adapter: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("spotify adapter: decode error: %w", err)
	}

	return nil
}

// ListPlaylists walks all playlists of the given account, following the
// "next" cursor until exhausted. The walk is a single pass; restarting
// re-queries from page one.
func (c *Client) ListPlaylists(ctx context.Context, userID string, fn func(domain.Playlist) error) error {
	pageURL := fmt.Sprintf("%s/users/%s/playlists?limit=%d", c.baseURL, url.PathEscape(userID), pageLimit)

	for pageURL != "" {
		var page pagedPlaylists
		if err := c.getJSON(ctx, pageURL, &page); err != nil {
			return err
		}

		for _, wp := range page.Items {
			if err := fn(wp.toDomain()); err != nil {
				return err
			}
		}

		pageURL = page.Next
	}

	return nil
}

// ListPlaylistSongs returns the playlist's songs with credited artists, in
// source order.
func (c *Client) ListPlaylistSongs(ctx context.Context, playlistID string) ([]domain.SongWithArtists, error) {
	pageURL := fmt.Sprintf("%s/playlists/%s/tracks?limit=%d&fields=%s",
		c.baseURL, url.PathEscape(playlistID), pageLimit, url.QueryEscape(playlistItemFields))

	var songs []domain.SongWithArtists
	for pageURL != "" {
		var page pagedTracks
		if err := c.getJSON(ctx, pageURL, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			// Local tracks and removed episodes come back without an id.
			if item.Track.ID == "" {
				continue
			}
			songs = append(songs, item.Track.toDomain())
		}

		pageURL = page.Next
	}

	return songs, nil
}

// GetAudioFeatures fetches one song's numeric descriptors. Fields the source
// omitted come back filled with the sentinel so the row always has the
// complete fixed schema.
func (c *Client) GetAudioFeatures(ctx context.Context, songID string) (domain.AudioFeatures, error) {
	featuresURL := fmt.Sprintf("%s/audio-features/%s", c.baseURL, url.PathEscape(songID))

	var wf wireAudioFeatures
	if err := c.getJSON(ctx, featuresURL, &wf); err != nil {
		return domain.AudioFeatures{}, err
	}
	if wf.ID == "" {
		return domain.AudioFeatures{}, domain.ErrNotFound
	}

	return wf.toDomain(songID), nil
}
