package domain

import "context"

// BatchEmbedder vectorizes texts in a single provider call, one vector
// per input in the same order.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// TokenStream yields completion text deltas as they arrive.
// Recv returns io.EOF when the upstream stream is exhausted.
type TokenStream interface {
	Recv() (string, error)
	Close() error
}

// Completer generates an answer from an assembled prompt, either as a
// live token stream or as a single string.
type Completer interface {
	Stream(ctx context.Context, prompt string) (TokenStream, error)
	Complete(ctx context.Context, prompt string) (string, error)
}
