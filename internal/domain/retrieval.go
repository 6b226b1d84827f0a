package domain

// ScoredChunk is a (chunk id, similarity score) pair from top-k retrieval.
type ScoredChunk struct {
	ID    string
	Score float64
}

// QAMatch is the best-matching curated Q&A entry for a query.
type QAMatch struct {
	Index int
	Score float64
}

// Source is a cited chunk in the final answer.
type Source struct {
	ID    string  `json:"id"`
	Page  int     `json:"page,omitempty"`
	Score float64 `json:"score,omitempty"`
	Text  string  `json:"text,omitempty"`
}
