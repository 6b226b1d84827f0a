package answer

import (
	"context"

	"github.com/book2ai/book2ai/internal/domain"
)

// PackSource loads packs and holds the lazily computed Q&A question
// vectors alongside them.
type PackSource interface {
	Load(ctx context.Context, id string) (*domain.Pack, error)
	QAEmbeddings(id string) ([][]float32, bool)
	SetQAEmbeddings(id string, vectors [][]float32)
}

// Embedder vectorizes texts, one vector per input in order.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates the final answer from an assembled prompt.
type Completer interface {
	Stream(ctx context.Context, prompt string) (domain.TokenStream, error)
	Complete(ctx context.Context, prompt string) (string, error)
}
