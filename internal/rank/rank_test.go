package rank

import (
	"math"
	"testing"
)

func TestCosine_SelfSimilarity(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	got := Cosine(v, v)
	if math.Abs(got-1.0) > 1e-6 {
		t.Errorf("self similarity = %v, want 1.0", got)
	}
}

func TestCosine_Symmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 7}
	if Cosine(a, b) != Cosine(b, a) {
		t.Errorf("cosine not symmetric: %v vs %v", Cosine(a, b), Cosine(b, a))
	}
}

func TestCosine_Orthogonal(t *testing.T) {
	got := Cosine([]float32{1, 0}, []float32{0, 1})
	if math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal similarity = %v, want 0", got)
	}
}

func TestCosine_ZeroVector(t *testing.T) {
	got := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3})
	if got != 0 {
		t.Errorf("zero-vector similarity = %v, want 0", got)
	}
}

func TestCosine_LengthMismatch(t *testing.T) {
	if got := Cosine([]float32{1, 2}, []float32{1, 2, 3}); got != 0 {
		t.Errorf("mismatched-length similarity = %v, want 0", got)
	}
}

func TestTopK_SortedAndBounded(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"a", "b", "c", "d"}
	vectors := [][]float32{
		{0, 1},       // orthogonal
		{1, 0},       // identical
		{1, 1},       // 45 degrees
		{-1, 0.0001}, // opposite
	}

	got := TopK(query, ids, vectors, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not non-increasing at %d: %v > %v", i, got[i].Score, got[i-1].Score)
		}
	}
	if got[0].ID != "b" || got[1].ID != "c" {
		t.Errorf("unexpected order: %v", got)
	}

	valid := map[string]bool{"a": true, "b": true, "c": true, "d": true}
	for _, r := range got {
		if !valid[r.ID] {
			t.Errorf("result id %q not drawn from input ids", r.ID)
		}
	}
}

func TestTopK_ClampedByCorpusSize(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"a", "b", "c"}
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}

	got := TopK(query, ids, vectors, 5)
	if len(got) != 3 {
		t.Errorf("expected 3 results for 3-chunk corpus with k=5, got %d", len(got))
	}
}

func TestTopK_ZeroQueryVector(t *testing.T) {
	query := []float32{0, 0}
	ids := []string{"a", "b"}
	vectors := [][]float32{{1, 0}, {0, 1}}

	got := TopK(query, ids, vectors, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	// All scores are 0; ties keep corpus order.
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("expected corpus order on ties, got %v", got)
	}
}

func TestTopK_IDVectorDrift(t *testing.T) {
	query := []float32{1, 0}
	ids := []string{"a", "b", "c"}
	vectors := [][]float32{{1, 0}, {0, 1}} // one row short

	got := TopK(query, ids, vectors, 8)
	if len(got) != 2 {
		t.Fatalf("expected overlapping prefix of 2, got %d", len(got))
	}
	for _, r := range got {
		if r.ID == "c" {
			t.Error("id without a vector must not be scored")
		}
	}
}

func TestTopK_Empty(t *testing.T) {
	if got := TopK([]float32{1}, nil, nil, 5); got != nil {
		t.Errorf("expected nil for empty corpus, got %v", got)
	}
	if got := TopK([]float32{1}, []string{"a"}, [][]float32{{1}}, 0); got != nil {
		t.Errorf("expected nil for k=0, got %v", got)
	}
}
