package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/domain"
	"github.com/book2ai/book2ai/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

// embeddingResponse mirrors the OpenAI-compatible API embedding response.
type embeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func newTestEmbedder(t *testing.T, handler http.HandlerFunc, batchSize int) *Embedder {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewEmbedder(&EmbedderConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL + "/v1",
		Model:        "test-model",
		MaxBatchSize: batchSize,
		Provider:     "test",
		Logger:       zap.NewNop(),
	})
}

func embeddingHandler(t *testing.T, requests *int) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		*requests++

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		var resp embeddingResponse
		resp.Object = "list"
		resp.Model = "test-model"
		// Return rows in reverse order; the client must place by index.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, struct {
				Object    string    `json:"object"`
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{"embedding", []float32{float32(i), float32(len(req.Input[i]))}, i})
		}
		resp.Usage.TotalTokens = 7

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestBatchEmbed_SplitsBatchesAndPreservesOrder(t *testing.T) {
	requests := 0
	e := newTestEmbedder(t, embeddingHandler(t, &requests), 2)

	texts := []string{"one", "two", "three"}
	vecs, err := e.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if requests != 2 {
		t.Errorf("expected 2 upstream requests for 3 texts with batch size 2, got %d", requests)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	// First element of each vector encodes its position within its batch.
	if vecs[0][0] != 0 || vecs[1][0] != 1 || vecs[2][0] != 0 {
		t.Errorf("vectors not placed by index: %v", vecs)
	}
}

func TestBatchEmbed_UpstreamError(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail": "rate limited"}`))
	}, 0)

	_, err := e.BatchEmbed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %T", err)
	}
	if ue.Status != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", ue.Status)
	}
	if ue.Op != "embedding" {
		t.Errorf("op = %q, want embedding", ue.Op)
	}
}

func TestBatchEmbed_ShortResponse(t *testing.T) {
	e := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[],"model":"test-model","usage":{}}`))
	}, 0)

	_, err := e.BatchEmbed(context.Background(), []string{"x"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream for short response, got %v", err)
	}
}
