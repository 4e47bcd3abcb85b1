package pinecone

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/ports"
)

func newTestClient(controllerURL, indexURL string) *Client {
	return NewClientWithURLs(controllerURL, indexURL, "key", "one-music", 768, zerolog.Nop())
}

func TestEnsureIndex(t *testing.T) {
	tests := []struct {
		name       string
		existing   []string
		wantCreate bool
	}{
		{"creates missing index", []string{"other"}, true},
		{"keeps existing index", []string{"other", "one-music"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			controller := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodGet:
					_ = json.NewEncoder(w).Encode(tt.existing)
				case http.MethodPost:
					var req createIndexRequest
					_ = json.NewDecoder(r.Body).Decode(&req)
					if req.Name != "one-music" || req.Dimension != 768 || req.Metric != "cosine" {
						w.WriteHeader(http.StatusBadRequest)
						return
					}
					created = true
					w.WriteHeader(http.StatusCreated)
				}
			}))
			defer controller.Close()

			client := newTestClient(controller.URL, controller.URL)
			if err := client.EnsureIndex(t.Context()); err != nil {
				t.Fatalf("ensure index: %v", err)
			}
			if created != tt.wantCreate {
				t.Fatalf("created=%v, want %v", created, tt.wantCreate)
			}
		})
	}
}

func TestUpsertAndFetch(t *testing.T) {
	stored := map[string]wireVector{}
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vectors/upsert":
			var req upsertRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			for _, v := range req.Vectors {
				stored[v.ID] = v
			}
			fmt.Fprint(w, `{"upsertedCount":1}`)
		case "/vectors/fetch":
			resp := fetchResponse{Vectors: map[string]wireVector{}}
			for _, id := range r.URL.Query()["ids"] {
				if v, ok := stored[id]; ok {
					resp.Vectors[id] = v
				}
			}
			_ = json.NewEncoder(w).Encode(resp)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer index.Close()

	client := newTestClient(index.URL, index.URL)

	vectors := []ports.Vector{
		{ID: "aa", Values: []float32{0.1, 0.2}, Metadata: map[string]string{"language": "en"}},
		{ID: "bb", Values: []float32{0.3, 0.4}, Metadata: map[string]string{"language": "ko_rom"}},
	}
	if err := client.Upsert(t.Context(), vectors); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := client.Fetch(t.Context(), []string{"aa", "bb", "missing"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(got))
	}
	if got[0].ID != "aa" || got[0].Metadata["language"] != "en" {
		t.Fatalf("first vector: %+v", got[0])
	}
	if got[1].ID != "bb" || got[1].Values[1] != 0.4 {
		t.Fatalf("second vector: %+v", got[1])
	}
}

func TestQuery(t *testing.T) {
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.TopK != 2 || req.Filter["language"] != "en" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"matches":[{"id":"aa","score":0.99},{"id":"bb","score":0.42}]}`)
	}))
	defer index.Close()

	client := newTestClient(index.URL, index.URL)

	matches, err := client.Query(t.Context(), []float32{0.1}, 2, map[string]string{"language": "en"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 2 || matches[0].ID != "aa" || matches[0].Score != 0.99 {
		t.Fatalf("matches: %+v", matches)
	}
}
