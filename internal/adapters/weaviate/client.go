// Package weaviate implements the object/graph store against the Weaviate
// REST API.
package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
	"github.com/onemusic/pipeline/internal/core/ports"
	"github.com/onemusic/pipeline/internal/ratelimit"
)

// Client batches objects and cross-references into a Weaviate instance.
// AddObject and AddReference only queue; Flush commits objects before
// references so a committed reference never points at an uncommitted object.
type Client struct {
	http      *resty.Client
	schemaDir string
	batchSize int
	pacer     ratelimit.Pacer
	log       zerolog.Logger

	objects    []wireObject
	references []wireReference
}

// compile-time interface assertion
var _ ports.ObjectStore = (*Client)(nil)

// NewClient constructs a client for the instance at baseURL. Schema class
// definitions are read from JSON files under schemaDir.
func NewClient(baseURL, schemaDir string, batchSize int, objectsPerSecond float64, log zerolog.Logger) *Client {
	return &Client{
		http:      resty.New().SetBaseURL(strings.TrimRight(baseURL, "/")),
		schemaDir: schemaDir,
		batchSize: batchSize,
		pacer:     ratelimit.Pacer{TargetPerSecond: objectsPerSecond},
		log:       log,
	}
}

// EnsureSchema creates every class defined under the schema directory that
// the instance does not already have. Existing classes are left untouched.
func (c *Client) EnsureSchema(ctx context.Context) error {
	existing, err := c.listClasses(ctx)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(c.schemaDir)
	if err != nil {
		return fmt.Errorf("weaviate adapter: read schema dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(c.schemaDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("weaviate adapter: read schema file %s: %w", entry.Name(), err)
		}

		var class struct {
			Class string `json:"class"`
		}
		if err := json.Unmarshal(raw, &class); err != nil {
			return fmt.Errorf("weaviate adapter: parse schema file %s: %w", entry.Name(), err)
		}
		if existing[class.Class] {
			continue
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(raw).
			Post("/v1/schema")
		if err != nil {
			return fmt.Errorf("weaviate adapter: create class %s: %w", class.Class, err)
		}
		if resp.IsError() {
			return fmt.Errorf("weaviate adapter: create class %s: status %d", class.Class, resp.StatusCode())
		}

		c.log.Info().Str("class", class.Class).Msg("created schema class")
	}

	return nil
}

func (c *Client) listClasses(ctx context.Context) (map[string]bool, error) {
	var schema struct {
		Classes []struct {
			Class string `json:"class"`
		} `json:"classes"`
	}
	resp, err := c.http.R().SetContext(ctx).SetResult(&schema).Get("/v1/schema")
	if err != nil {
		return nil, fmt.Errorf("weaviate adapter: get schema: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("weaviate adapter: get schema: status %d", resp.StatusCode())
	}

	existing := make(map[string]bool, len(schema.Classes))
	for _, class := range schema.Classes {
		existing[class.Class] = true
	}
	return existing, nil
}

type wireObject struct {
	ID         string         `json:"id"`
	Class      string         `json:"class"`
	Properties map[string]any `json:"properties"`
}

type wireReference struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ObjectID derives a stable identity from a class name and its properties.
// The same class and properties always map to the same id, which is what
// makes re-pushing idempotent.
func ObjectID(className string, properties map[string]any) string {
	// json.Marshal sorts map keys, so the serialization is canonical.
	payload, err := json.Marshal(properties)
	if err != nil {
		payload = []byte(fmt.Sprintf("%v", properties))
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, append([]byte(className+":"), payload...)).String()
}

// AddObject queues an object for the next Flush and returns its identity.
func (c *Client) AddObject(className string, properties map[string]any) string {
	id := ObjectID(className, properties)
	c.objects = append(c.objects, wireObject{ID: id, Class: className, Properties: properties})
	return id
}

// Exists reports whether an object with the given identity has been
// committed.
func (c *Client) Exists(ctx context.Context, className, id string) (bool, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/objects/%s/%s", className, id))
	if err != nil {
		return false, fmt.Errorf("weaviate adapter: head object: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	case http.StatusTooManyRequests:
		return false, fmt.Errorf("weaviate adapter: head object: %w", domain.ErrRateLimited)
	default:
		return false, fmt.Errorf("weaviate adapter: head object: status %d", resp.StatusCode())
	}
}

// AddReference queues a cross-reference for the next Flush.
func (c *Client) AddReference(fromID, fromClass, property, toID, toClass string) {
	c.references = append(c.references, wireReference{
		From: fmt.Sprintf("weaviate://localhost/%s/%s/%s", fromClass, fromID, property),
		To:   fmt.Sprintf("weaviate://localhost/%s/%s", toClass, toID),
	})
}

// Discard drops all queued objects and references without committing them.
func (c *Client) Discard() {
	c.objects = c.objects[:0]
	c.references = c.references[:0]
}

// Flush commits all queued objects, then all queued references, in batches.
// The queues are cleared on success.
func (c *Client) Flush(ctx context.Context) error {
	for start := 0; start < len(c.objects); start += c.batchSize {
		end := min(start+c.batchSize, len(c.objects))
		if err := c.postBatch(ctx, "/v1/batch/objects", map[string]any{"objects": c.objects[start:end]}, end-start); err != nil {
			return err
		}
	}
	c.objects = c.objects[:0]

	for start := 0; start < len(c.references); start += c.batchSize {
		end := min(start+c.batchSize, len(c.references))
		if err := c.postBatch(ctx, "/v1/batch/references", c.references[start:end], end-start); err != nil {
			return err
		}
	}
	c.references = c.references[:0]

	return nil
}

func (c *Client) postBatch(ctx context.Context, path string, body any, size int) error {
	begin := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		return fmt.Errorf("weaviate adapter: batch %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return fmt.Errorf("weaviate adapter: batch %s: %w", path, domain.ErrRateLimited)
	}
	if resp.IsError() {
		return fmt.Errorf("weaviate adapter: batch %s: status %d", path, resp.StatusCode())
	}

	if wait := c.pacer.Pause(size, time.Since(begin)); wait > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil
}
