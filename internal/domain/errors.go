package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuestion signals an empty or whitespace-only question.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrPackNotFound signals a missing content pack.
	ErrPackNotFound = errors.New("pack not found")
	// ErrPackEmpty signals a pack with no usable embeddings.
	ErrPackEmpty = errors.New("pack has no embeddings")
	// ErrUpstream signals a failed embedding or completion provider call.
	ErrUpstream = errors.New("upstream provider error")
)

// UpstreamError wraps ErrUpstream with the provider call context:
// which operation failed, the HTTP status, and the response body.
type UpstreamError struct {
	Op     string // "embedding" or "completion"
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s API error %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s request failed: %s", e.Op, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }

// NewUpstreamError creates an upstream provider error.
func NewUpstreamError(op string, status int, body string) error {
	return &UpstreamError{Op: op, Status: status, Body: body}
}
