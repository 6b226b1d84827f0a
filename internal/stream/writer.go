// Package stream frames incremental answer events as newline-delimited
// JSON and relays upstream token streams to a client sink.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/book2ai/book2ai/internal/domain"
	"github.com/book2ai/book2ai/internal/metrics"
)

// Sink receives framed events. Send returns an error when the client is
// gone; the relay then stops reading from upstream.
type Sink interface {
	Send(ev domain.Event) error
}

// ContentType is the response content type of the event stream.
const ContentType = "application/x-ndjson"

// Writer frames events as newline-delimited JSON on an HTTP response.
// Headers are written lazily on the first frame so that failures before
// any output can still produce a clean error response.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
	header  func()
	started bool
}

// NewWriter wraps an HTTP response. Each frame is flushed immediately
// so the client sees deltas as they are produced.
func NewWriter(w http.ResponseWriter) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{
		w:       w,
		flusher: flusher,
		header: func() {
			w.Header().Set("Content-Type", ContentType)
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
		},
	}
}

// Started reports whether any frame has been written.
func (w *Writer) Started() bool { return w.started }

// Send writes one frame followed by a newline and flushes.
func (w *Writer) Send(ev domain.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	if !w.started {
		w.started = true
		if w.header != nil {
			w.header()
		}
	}

	if _, err := w.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}

	metrics.StreamFramesTotal.WithLabelValues(string(ev.Type)).Inc()
	return nil
}
