package cohere

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/onemusic/pipeline/internal/core/domain"
)

func TestDetectLanguage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/detect-language" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var req detectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Texts) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"results":[{"language_name":"Korean","language_code":"ko"}]}`)
	}))
	defer ts.Close()

	client := NewClientWithURL(ts.URL, "key", "embed-multilingual-v2.0", zerolog.Nop())

	lang, err := client.DetectLanguage(t.Context(), "안녕하세요")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if lang.Code != "ko" || lang.Name != "Korean" {
		t.Fatalf("language: %+v", lang)
	}
}

func TestDetectLanguageRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewClientWithURL(ts.URL, "key", "embed-multilingual-v2.0", zerolog.Nop())

	_, err := client.DetectLanguage(t.Context(), "text")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestEmbed(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Model != "embed-multilingual-v2.0" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out := embedResponse{Embeddings: make([][]float32, len(req.Texts))}
		for i := range req.Texts {
			out.Embeddings[i] = []float32{float32(i), 0.5}
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer ts.Close()

	client := NewClientWithURL(ts.URL, "key", "embed-multilingual-v2.0", zerolog.Nop())

	embeddings, err := client.Embed(t.Context(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(embeddings) != 2 {
		t.Fatalf("expected 2 embeddings, got %d", len(embeddings))
	}
	if embeddings[1][0] != 1 {
		t.Fatalf("order not preserved: %+v", embeddings)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"embeddings":[[0.1]]}`)
	}))
	defer ts.Close()

	client := NewClientWithURL(ts.URL, "key", "embed-multilingual-v2.0", zerolog.Nop())

	if _, err := client.Embed(t.Context(), []string{"one", "two"}); err == nil {
		t.Fatal("expected a count mismatch error")
	}
}
