// Package answer orchestrates the retrieval-and-streaming pipeline:
// embed the question, try the curated Q&A short-circuit, rank chunks,
// assemble a grounded prompt, and stream the completion to the client.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/domain"
	"github.com/book2ai/book2ai/internal/metrics"
	"github.com/book2ai/book2ai/internal/rank"
	"github.com/book2ai/book2ai/internal/stream"
)

// Options tune the pipeline. Zero values select the defaults.
type Options struct {
	QAThreshold    float64       // curated match confidence floor
	MaxChunkChars  int           // per-chunk prompt budget
	WindowRunes    int           // simulated stream window size
	WindowInterval time.Duration // simulated stream pacing
}

func (o *Options) applyDefaults() {
	if o.QAThreshold <= 0 {
		o.QAThreshold = 0.88
	}
	if o.MaxChunkChars <= 0 {
		o.MaxChunkChars = 2000
	}
	if o.WindowRunes <= 0 {
		o.WindowRunes = 48
	}
	if o.WindowInterval <= 0 {
		o.WindowInterval = 30 * time.Millisecond
	}
}

// Service runs the answer pipeline. Stateless per request; the only
// shared state is the injected pack cache.
type Service struct {
	packs     PackSource
	embed     Embedder
	completer Completer
	opts      Options
	logger    *zap.Logger
}

// New creates an answer service.
func New(packs PackSource, embed Embedder, completer Completer, opts Options, logger *zap.Logger) *Service {
	opts.applyDefaults()
	return &Service{
		packs:     packs,
		embed:     embed,
		completer: completer,
		opts:      opts,
		logger:    logger,
	}
}

// plan is the prepared request: either a curated answer ready to emit,
// or an assembled prompt with its retrieved sources.
type plan struct {
	curated string
	prompt  string
	sources []domain.Source
}

// Answer runs the full lifecycle and emits frames into sink.
//
// Errors before the first frame are returned without opening the stream
// so the transport can produce a clean error response. Once frames have
// been sent, failures surface as a terminal error frame instead.
func (s *Service) Answer(ctx context.Context, q domain.Query, sink stream.Sink) error {
	start := time.Now()

	p, err := s.prepare(ctx, q)
	if err != nil {
		metrics.AnswersTotal.WithLabelValues(q.PackID, "error").Inc()
		return err
	}

	outcome := "generated"
	var src domain.TokenStream
	if p.curated != "" {
		outcome = "curated"
		src = stream.NewStatic(p.curated, s.opts.WindowRunes, s.opts.WindowInterval)
	} else {
		src, err = s.completer.Stream(ctx, p.prompt)
		if err != nil {
			metrics.AnswersTotal.WithLabelValues(q.PackID, "error").Inc()
			return err
		}
	}

	if err := sink.Send(domain.MetaEvent(q.Question)); err != nil {
		_ = src.Close()
		return err
	}

	err = stream.Relay(ctx, src, sink, p.sources, s.logger)
	if err != nil {
		outcome = "error"
	}
	metrics.AnswersTotal.WithLabelValues(q.PackID, outcome).Inc()
	metrics.AnswerDuration.WithLabelValues(q.PackID).Observe(time.Since(start).Seconds())

	s.logger.Info("answered",
		zap.String("pack", q.PackID),
		zap.String("outcome", outcome),
		zap.Int("sources", len(p.sources)),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

// AnswerSync runs the same pipeline without streaming and returns the
// complete answer with its sources.
func (s *Service) AnswerSync(ctx context.Context, q domain.Query) (string, []domain.Source, error) {
	start := time.Now()

	p, err := s.prepare(ctx, q)
	if err != nil {
		metrics.AnswersTotal.WithLabelValues(q.PackID, "error").Inc()
		return "", nil, err
	}

	if p.curated != "" {
		metrics.AnswersTotal.WithLabelValues(q.PackID, "curated").Inc()
		metrics.AnswerDuration.WithLabelValues(q.PackID).Observe(time.Since(start).Seconds())
		return p.curated, p.sources, nil
	}

	text, err := s.completer.Complete(ctx, p.prompt)
	if err != nil {
		metrics.AnswersTotal.WithLabelValues(q.PackID, "error").Inc()
		return "", nil, err
	}

	metrics.AnswersTotal.WithLabelValues(q.PackID, "generated").Inc()
	metrics.AnswerDuration.WithLabelValues(q.PackID).Observe(time.Since(start).Seconds())
	return text, p.sources, nil
}

// prepare runs the network-free-to-fail-fast part of the state machine:
// validate, load pack, embed query, Q&A short-circuit, chunk retrieval,
// prompt assembly.
func (s *Service) prepare(ctx context.Context, q domain.Query) (plan, error) {
	if strings.TrimSpace(q.Question) == "" {
		return plan{}, domain.ErrEmptyQuestion
	}

	pack, err := s.packs.Load(ctx, q.PackID)
	if err != nil {
		return plan{}, fmt.Errorf("load pack: %w", err)
	}
	if pack.Embeddings.Len() == 0 {
		return plan{}, fmt.Errorf("%w: %q", domain.ErrPackEmpty, q.PackID)
	}

	qvecs, err := s.embed.BatchEmbed(ctx, []string{q.Question})
	if err != nil {
		return plan{}, fmt.Errorf("embed question: %w", err)
	}
	if len(qvecs) == 0 {
		return plan{}, domain.NewUpstreamError("embedding", 0, "no vector for question")
	}
	qvec := qvecs[0]

	match, ok, err := s.qaMatch(ctx, pack, qvec)
	if err != nil {
		return plan{}, err
	}
	if ok && match.Score >= s.opts.QAThreshold {
		return s.curatedPlan(pack, match), nil
	}

	return s.retrievalPlan(q, pack, qvec)
}

// curatedPlan short-circuits generation with the matched authoritative
// answer, annotated with the match confidence, citing its source chunk.
func (s *Service) curatedPlan(pack *domain.Pack, match domain.QAMatch) plan {
	qa := pack.QA[match.Index]

	source := domain.Source{ID: qa.ChunkID, Score: match.Score}
	if c, ok := pack.ChunkByID(qa.ChunkID); ok {
		source.Page = c.Page
		source.Text = c.Text
	}

	s.logger.Debug("qa short-circuit",
		zap.String("pack", pack.ID),
		zap.String("qa_id", qa.ID),
		zap.Float64("score", match.Score),
	)

	return plan{
		curated: fmt.Sprintf("%s\n\n(curated answer, confidence %.2f)", qa.Answer, match.Score),
		sources: []domain.Source{source},
	}
}

// retrievalPlan ranks the pack's chunks, resolves the winners, and
// assembles the grounded prompt. Ids that no longer resolve to a chunk
// are dropped silently; corpus and embedding artifacts can drift.
func (s *Service) retrievalPlan(q domain.Query, pack *domain.Pack, qvec []float32) (plan, error) {
	top := rank.TopK(qvec, pack.Embeddings.IDs, pack.Embeddings.Vectors, q.TopK)

	chunks := make([]domain.Chunk, 0, len(top))
	sources := make([]domain.Source, 0, len(top))
	for _, sc := range top {
		c, ok := pack.ChunkByID(sc.ID)
		if !ok {
			s.logger.Warn("ranked id has no chunk",
				zap.String("pack", pack.ID), zap.String("id", sc.ID))
			continue
		}
		chunks = append(chunks, c)
		sources = append(sources, domain.Source{
			ID:    c.ID,
			Page:  c.Page,
			Score: sc.Score,
			Text:  c.Text,
		})
	}
	if len(chunks) == 0 {
		return plan{}, fmt.Errorf("%w: no ranked id resolves to a chunk", domain.ErrPackEmpty)
	}

	return plan{
		prompt:  buildPrompt(q.Question, chunks, s.opts.MaxChunkChars),
		sources: sources,
	}, nil
}
