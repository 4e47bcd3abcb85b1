// Package cohere implements language detection and text embedding against
// the Cohere API.
package cohere

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

const defaultBaseURL = "https://api.cohere.ai"

// Client calls the Cohere REST API.
type Client struct {
	http  *resty.Client
	model string
	log   zerolog.Logger
}

// compile-time interface assertions
var (
	_ ports.LanguageDetector = (*Client)(nil)
	_ ports.Embedder         = (*Client)(nil)
)

// NewClient constructs a client with the given API key and embed model.
func NewClient(apiKey, embedModel string, log zerolog.Logger) *Client {
	return NewClientWithURL(defaultBaseURL, apiKey, embedModel, log)
}

// NewClientWithURL constructs a client against an arbitrary endpoint, used
// by tests.
func NewClientWithURL(baseURL, apiKey, embedModel string, log zerolog.Logger) *Client {
	return &Client{
		http:  resty.New().SetBaseURL(baseURL).SetAuthToken(apiKey),
		model: embedModel,
		log:   log,
	}
}

type detectRequest struct {
	Texts []string `json:"texts"`
}

type detectResponse struct {
	Results []struct {
		LanguageName string `json:"language_name"`
		LanguageCode string `json:"language_code"`
	} `json:"results"`
}

// DetectLanguage classifies a snippet of text. Throttling maps to
// domain.ErrRateLimited so callers can apply their retry policy.
func (c *Client) DetectLanguage(ctx context.Context, text string) (ports.Language, error) {
	var result detectResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(detectRequest{Texts: []string{text}}).
		SetResult(&result).
		Post("/v1/detect-language")
	if err != nil {
		return ports.Language{}, fmt.Errorf("cohere adapter: detect-language failed: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return ports.Language{}, fmt.Errorf("cohere adapter: detect-language: %w", domain.ErrRateLimited)
	}
	if resp.IsError() {
		return ports.Language{}, fmt.Errorf("cohere adapter: detect-language status %d", resp.StatusCode())
	}
	if len(result.Results) == 0 {
		return ports.Language{}, fmt.Errorf("cohere adapter: detect-language returned no results")
	}

	return ports.Language{
		Name: result.Results[0].LanguageName,
		Code: result.Results[0].LanguageCode,
	}, nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed computes one embedding per input text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var result embedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: c.model, Texts: texts}).
		SetResult(&result).
		Post("/v1/embed")
	if err != nil {
		return nil, fmt.Errorf("cohere adapter: embed failed: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("cohere adapter: embed: %w", domain.ErrRateLimited)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cohere adapter: embed status %d", resp.StatusCode())
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere adapter: embed returned %d embeddings for %d texts",
			len(result.Embeddings), len(texts))
	}

	return result.Embeddings, nil
}
