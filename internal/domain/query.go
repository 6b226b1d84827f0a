package domain

import "strings"

// Result-count bounds for chunk retrieval.
const (
	MinTopK     = 3
	MaxTopK     = 8
	DefaultTopK = 5
)

// Query is a user's free-text question against a pack.
type Query struct {
	Question string
	PackID   string
	TopK     int
}

// NewQuery validates the question and clamps the result count to [MinTopK, MaxTopK].
// A topK of 0 selects DefaultTopK.
func NewQuery(question, packID string, topK int) (Query, error) {
	if strings.TrimSpace(question) == "" {
		return Query{}, ErrEmptyQuestion
	}
	switch {
	case topK == 0:
		topK = DefaultTopK
	case topK < MinTopK:
		topK = MinTopK
	case topK > MaxTopK:
		topK = MaxTopK
	}
	return Query{Question: question, PackID: packID, TopK: topK}, nil
}
