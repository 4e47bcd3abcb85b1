// Package pinecone implements the vector index against the Pinecone REST API.
package pinecone

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
)

// Client calls one Pinecone project: the controller API for index lifecycle
// and the index service for vector operations.
type Client struct {
	controller *resty.Client
	index      *resty.Client
	indexName  string
	dimension  int
	log        zerolog.Logger
}

// compile-time interface assertion
var _ ports.VectorIndex = (*Client)(nil)

// NewClient constructs a client for the named index in the given environment.
func NewClient(apiKey, environment, indexName string, dimension int, log zerolog.Logger) *Client {
	controllerURL := fmt.Sprintf("https://controller.%s.pinecone.io", environment)
	indexURL := fmt.Sprintf("https://%s.svc.%s.pinecone.io", indexName, environment)
	return NewClientWithURLs(controllerURL, indexURL, apiKey, indexName, dimension, log)
}

// NewClientWithURLs constructs a client against arbitrary endpoints, used by
// tests.
func NewClientWithURLs(controllerURL, indexURL, apiKey, indexName string, dimension int, log zerolog.Logger) *Client {
	return &Client{
		controller: resty.New().SetBaseURL(controllerURL).SetHeader("Api-Key", apiKey),
		index:      resty.New().SetBaseURL(indexURL).SetHeader("Api-Key", apiKey),
		indexName:  indexName,
		dimension:  dimension,
		log:        log,
	}
}

type createIndexRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

// EnsureIndex creates the index if it does not already exist. An existing
// index with the same name is accepted as-is.
func (c *Client) EnsureIndex(ctx context.Context) error {
	var names []string
	resp, err := c.controller.R().
		SetContext(ctx).
		SetResult(&names).
		Get("/databases")
	if err != nil {
		return fmt.Errorf("pinecone adapter: list indexes failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pinecone adapter: list indexes status %d", resp.StatusCode())
	}
	for _, name := range names {
		if name == c.indexName {
			return nil
		}
	}

	resp, err = c.controller.R().
		SetContext(ctx).
		SetBody(createIndexRequest{Name: c.indexName, Dimension: c.dimension, Metric: "cosine"}).
		Post("/databases")
	if err != nil {
		return fmt.Errorf("pinecone adapter: create index failed: %w", err)
	}
	// 409 means another run created it between the list and the create.
	if resp.IsError() && resp.StatusCode() != http.StatusConflict {
		return fmt.Errorf("pinecone adapter: create index status %d", resp.StatusCode())
	}

	c.log.Info().Str("index", c.indexName).Int("dimension", c.dimension).Msg("created vector index")
	return nil
}

type wireVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors []wireVector `json:"vectors"`
}

// Upsert writes the vectors in one call. Re-upserting an id overwrites its
// values and metadata.
func (c *Client) Upsert(ctx context.Context, vectors []ports.Vector) error {
	if len(vectors) == 0 {
		return nil
	}

	wire := make([]wireVector, 0, len(vectors))
	for _, v := range vectors {
		wire = append(wire, wireVector{ID: v.ID, Values: v.Values, Metadata: v.Metadata})
	}

	resp, err := c.index.R().
		SetContext(ctx).
		SetBody(upsertRequest{Vectors: wire}).
		Post("/vectors/upsert")
	if err != nil {
		return fmt.Errorf("pinecone adapter: upsert failed: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("pinecone adapter: upsert: %w", domain.ErrRateLimited)
	}
	if resp.IsError() {
		return fmt.Errorf("pinecone adapter: upsert status %d", resp.StatusCode())
	}

	return nil
}

type fetchResponse struct {
	Vectors map[string]wireVector `json:"vectors"`
}

// Fetch returns the stored vectors for the given ids. Unknown ids are
// silently absent from the result.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]ports.Vector, error) {
	req := c.index.R().SetContext(ctx)
	for _, id := range ids {
		req.QueryParam.Add("ids", id)
	}

	var result fetchResponse
	resp, err := req.SetResult(&result).Get("/vectors/fetch")
	if err != nil {
		return nil, fmt.Errorf("pinecone adapter: fetch failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pinecone adapter: fetch status %d", resp.StatusCode())
	}

	vectors := make([]ports.Vector, 0, len(result.Vectors))
	for _, id := range ids {
		wv, ok := result.Vectors[id]
		if !ok {
			continue
		}
		vectors = append(vectors, ports.Vector{ID: wv.ID, Values: wv.Values, Metadata: wv.Metadata})
	}

	return vectors, nil
}

type queryRequest struct {
	Vector          []float32         `json:"vector"`
	TopK            int               `json:"topK"`
	Filter          map[string]string `json:"filter,omitempty"`
	IncludeValues   bool              `json:"includeValues"`
	IncludeMetadata bool              `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID    string  `json:"id"`
		Score float32 `json:"score"`
	} `json:"matches"`
}

// Query returns up to topK nearest neighbours, best first. An optional
// metadata filter restricts candidates by exact match.
func (c *Client) Query(ctx context.Context, vector []float32, topK int, filter map[string]string) ([]ports.Match, error) {
	var result queryResponse
	resp, err := c.index.R().
		SetContext(ctx).
		SetBody(queryRequest{Vector: vector, TopK: topK, Filter: filter}).
		SetResult(&result).
		Post("/query")
	if err != nil {
		return nil, fmt.Errorf("pinecone adapter: query failed: %w", err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, fmt.Errorf("pinecone adapter: query: %w", domain.ErrRateLimited)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("pinecone adapter: query status %d", resp.StatusCode())
	}

	matches := make([]ports.Match, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, ports.Match{ID: m.ID, Score: m.Score})
	}

	return matches, nil
}
