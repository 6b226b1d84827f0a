package stream

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/domain"
	"github.com/book2ai/book2ai/internal/metrics"
)

// Relay pumps text deltas from src into sink until the stream ends,
// then emits exactly one terminal frame:
//   - a done frame with the full source list on io.EOF,
//   - an error frame on an upstream failure mid-stream.
//
// Malformed individual upstream frames are logged and skipped; one bad
// frame must not discard an otherwise-good answer. Context cancellation
// stops upstream reads without draining; the source is always closed.
func Relay(
	ctx context.Context,
	src domain.TokenStream,
	sink Sink,
	sources []domain.Source,
	logger *zap.Logger,
) error {
	defer func() { _ = src.Close() }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		delta, err := src.Recv()
		switch {
		case errors.Is(err, io.EOF):
			return sink.Send(domain.DoneEvent(sources))
		case err != nil:
			if ctx.Err() != nil {
				// Client cancelled mid-read; nothing left to deliver.
				return ctx.Err()
			}
			if isFrameError(err) {
				metrics.StreamFrameErrorsTotal.Inc()
				logger.Warn("skipping malformed upstream frame", zap.Error(err))
				continue
			}
			_ = sink.Send(domain.ErrorEvent("answer stream interrupted"))
			return err
		}

		if delta == "" {
			continue
		}
		if err := sink.Send(domain.ChunkEvent(delta)); err != nil {
			// Client is gone: stop reading upstream instead of draining.
			return err
		}
	}
}

// isFrameError reports whether err is an isolated malformed-frame
// failure rather than a broken stream.
func isFrameError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
