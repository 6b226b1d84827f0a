package answer

import (
	"context"
	"fmt"

	"github.com/book2ai/book2ai/internal/domain"
	"github.com/book2ai/book2ai/internal/rank"
)

// qaMatch finds the best-matching curated Q&A entry for the query
// vector. The pack's question vectors are computed once and cached on
// the pack source; the cost is amortized across requests.
//
// Returns ok=false when the pack has no Q&A entries.
func (s *Service) qaMatch(ctx context.Context, pack *domain.Pack, qvec []float32) (domain.QAMatch, bool, error) {
	if len(pack.QA) == 0 {
		return domain.QAMatch{}, false, nil
	}

	vecs, ok := s.packs.QAEmbeddings(pack.ID)
	if !ok {
		questions := make([]string, len(pack.QA))
		for i, qa := range pack.QA {
			questions[i] = qa.Question
		}

		var err error
		vecs, err = s.embed.BatchEmbed(ctx, questions)
		if err != nil {
			return domain.QAMatch{}, false, fmt.Errorf("embed qa questions: %w", err)
		}
		s.packs.SetQAEmbeddings(pack.ID, vecs)
	}

	// Iterate only the overlapping prefix in case a stale cache entry
	// disagrees with the qa list length.
	n := len(pack.QA)
	if len(vecs) < n {
		n = len(vecs)
	}

	best := domain.QAMatch{Index: -1}
	for i := 0; i < n; i++ {
		score := rank.Cosine(qvec, vecs[i])
		if best.Index == -1 || score > best.Score {
			best = domain.QAMatch{Index: i, Score: score}
		}
	}
	if best.Index == -1 {
		return domain.QAMatch{}, false, nil
	}
	return best, true, nil
}
