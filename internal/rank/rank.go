// Package rank implements cosine-similarity top-k selection over
// pre-computed chunk embeddings.
package rank

import (
	"math"
	"sort"

	"github.com/book2ai/book2ai/internal/domain"
)

// epsilon guards the cosine denominator against all-zero vectors.
const epsilon = 1e-9

// Cosine computes the cosine similarity between two vectors.
// Vectors of different lengths score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}

// TopK scores every candidate vector against the query and returns the k
// best (id, score) pairs, descending by score. Ties keep corpus order.
// When ids and vectors have drifted out of sync only the overlapping
// prefix is considered.
func TopK(query []float32, ids []string, vectors [][]float32, k int) []domain.ScoredChunk {
	n := len(ids)
	if len(vectors) < n {
		n = len(vectors)
	}
	if n == 0 || k <= 0 {
		return nil
	}

	scored := make([]domain.ScoredChunk, n)
	for i := 0; i < n; i++ {
		scored[i] = domain.ScoredChunk{ID: ids[i], Score: Cosine(query, vectors[i])}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
