// Package genius implements the lyrics source client: API search plus page
// scraping for lyrics bodies and translation menus.
package genius

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

const defaultAPIURL = "https://api.genius.com"

// Client talks to the Genius API for search and scrapes lyrics pages for
// bodies and translations.
type Client struct {
	api  *resty.Client
	page *resty.Client
	log  zerolog.Logger
}

// compile-time interface assertion
var _ ports.LyricsClient = (*Client)(nil)

// NewClient constructs a lyrics client with the given API token.
func NewClient(clientToken string, log zerolog.Logger) *Client {
	return &Client{
		api:  resty.New().SetBaseURL(defaultAPIURL).SetAuthToken(clientToken),
		page: resty.New(),
		log:  log,
	}
}

// NewClientWithURLs constructs a client against arbitrary endpoints, used by
// tests.
func NewClientWithURLs(apiURL string, clientToken string, log zerolog.Logger) *Client {
	return &Client{
		api:  resty.New().SetBaseURL(apiURL).SetAuthToken(clientToken),
		page: resty.New(),
		log:  log,
	}
}

type searchResponse struct {
	Response struct {
		Hits []struct {
			Result struct {
				URL string `json:"url"`
			} `json:"result"`
		} `json:"hits"`
	} `json:"response"`
}

// SearchSong queries the API by song and artist name and scrapes the first
// hit's lyrics body. A miss returns (nil, nil). The match is fuzzy: the
// first hit can itself be a translation page.
func (c *Client) SearchSong(ctx context.Context, name, artist string) (*ports.LyricsHit, error) {
	query := name
	if artist != "" {
		query = name + " " + artist
	}

	var result searchResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParam("q", query).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("genius adapter: search failed: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("genius adapter: search: %w", domain.ErrRateLimited)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("genius adapter: search status %d", resp.StatusCode())
	}

	if len(result.Response.Hits) == 0 {
		return nil, nil
	}

	hitURL := result.Response.Hits[0].Result.URL
	body, err := c.FetchLyrics(ctx, hitURL)
	if err != nil {
		return nil, err
	}

	return &ports.LyricsHit{URL: hitURL, Body: body}, nil
}

// FetchLyrics scrapes the lyrics body from a song page. Blank pages yield
// the empty string.
func (c *Client) FetchLyrics(ctx context.Context, pageURL string) (string, error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}

	return extractLyrics(doc), nil
}

// CrawlTranslations scrapes the page's translation menu. Pages without a
// menu yield an empty sequence.
func (c *Client) CrawlTranslations(ctx context.Context, pageURL string) ([]ports.Translation, error) {
	doc, err := c.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	return extractTranslations(doc), nil
}

func (c *Client) fetchDocument(ctx context.Context, pageURL string) (*html.Node, error) {
	resp, err := c.page.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("genius adapter: fetch %s: %w", pageURL, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("genius adapter: fetch %s: %w", pageURL, domain.ErrRateLimited)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("genius adapter: fetch %s: status %d", pageURL, resp.StatusCode())
	}

	doc, err := html.Parse(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("genius adapter: parse %s: %w", pageURL, err)
	}

	return doc, nil
}
