package embcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/db"
)

type mockEmbedder struct {
	vecs  map[string][]float32
	err   error
	calls [][]string
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls = append(m.calls, texts)
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vecs[t]
	}
	return out, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data map[string][]byte
	sets int
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Set(_ context.Context, key string, value []byte) error {
	m.sets++
	m.data[key] = value
	return nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	return m.Set(context.Background(), key, value)
}

func TestBatchEmbed_MissThenHit(t *testing.T) {
	inner := &mockEmbedder{vecs: map[string][]float32{
		"alpha": {1, 2},
		"beta":  {3, 4},
	}}
	ms := newMockKVStore()
	ce := New(inner, ms, 0, nil, zap.NewNop())

	got, err := ce.BatchEmbed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0][0] != 1 || got[1][1] != 4 {
		t.Fatalf("unexpected vectors: %v", got)
	}
	if len(inner.calls) != 1 {
		t.Fatalf("expected 1 inner call, got %d", len(inner.calls))
	}

	// Second round is served entirely from cache.
	got, err = ce.BatchEmbed(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 1 {
		t.Errorf("expected no further inner calls, got %d", len(inner.calls))
	}
	if got[0][1] != 2 {
		t.Errorf("cached vector corrupted: %v", got[0])
	}
}

func TestBatchEmbed_PartialHitForwardsOnlyMisses(t *testing.T) {
	inner := &mockEmbedder{vecs: map[string][]float32{
		"cached": {9, 9},
		"fresh":  {5, 6},
	}}
	ms := newMockKVStore()
	ce := New(inner, ms, 0, nil, zap.NewNop())

	if _, err := ce.BatchEmbed(context.Background(), []string{"cached"}); err != nil {
		t.Fatalf("warm-up: %v", err)
	}

	got, err := ce.BatchEmbed(context.Background(), []string{"cached", "fresh"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := inner.calls[len(inner.calls)-1]
	if len(last) != 1 || last[0] != "fresh" {
		t.Errorf("expected only the miss forwarded, got %v", last)
	}
	if got[0][0] != 9 || got[1][0] != 5 {
		t.Errorf("order not preserved: %v", got)
	}
}

func TestBatchEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("boom")}
	ce := New(inner, newMockKVStore(), 0, nil, zap.NewNop())

	if _, err := ce.BatchEmbed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestVectorCodec_RoundTrip(t *testing.T) {
	in := []float32{0.25, -1.5, 3.75}
	out, err := bytesToVector(vectorToCacheBytes(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("codec mismatch at %d: %v != %v", i, in[i], out[i])
		}
	}
}

func TestBytesToVector_Malformed(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-multiple-of-4 data")
	}
}
