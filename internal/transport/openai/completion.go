package openai

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/domain"
)

const systemPrompt = "You are a careful assistant answering questions about a book. " +
	"Use only the sources provided in the user message."

// Completer generates answers via the OpenAI-compatible chat API.
type Completer struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// CompleterConfig holds the completion provider settings.
type CompleterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible completion provider.
func NewCompleter(cfg *CompleterConfig) *Completer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Completer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		logger:      cfg.Logger,
	}
}

func (c *Completer) request(prompt string, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      stream,
	}
}

// Stream starts a streamed completion and returns the live token stream.
func (c *Completer) Stream(ctx context.Context, prompt string) (domain.TokenStream, error) {
	s, err := c.client.CreateChatCompletionStream(ctx, c.request(prompt, true))
	if err != nil {
		return nil, parseAPIError("completion", err)
	}
	return &tokenStream{inner: s}, nil
}

// Complete runs a non-streaming completion and returns the full answer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(prompt, false))
	if err != nil {
		return "", parseAPIError("completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewUpstreamError("completion", 0, "empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// tokenStream adapts the SDK stream to domain.TokenStream.
type tokenStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next text delta, io.EOF at the end of the stream.
// Frames without choices yield an empty delta; the relay skips those.
func (t *tokenStream) Recv() (string, error) {
	resp, err := t.inner.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (t *tokenStream) Close() error {
	return t.inner.Close()
}
