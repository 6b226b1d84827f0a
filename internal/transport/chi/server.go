// Package chi exposes the answer service over HTTP: a streaming answer
// endpoint, pack listing, health, and Prometheus metrics.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/domain"
	logpkg "github.com/book2ai/book2ai/internal/logger"
	"github.com/book2ai/book2ai/internal/stream"
	answeruc "github.com/book2ai/book2ai/internal/usecase/answer"
	healthuc "github.com/book2ai/book2ai/internal/usecase/health"
)

// Error codes returned in JSON error responses.
const (
	codeBadRequest    = "bad_request"
	codeEmptyQuestion = "empty_question"
	codePackNotFound  = "pack_not_found"
	codePackEmpty     = "pack_empty"
	codeUpstreamError = "upstream_error"
	codeInternalError = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// PackLister lists the pack ids the store knows about.
type PackLister interface {
	List() ([]string, error)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	answer        *answeruc.Service
	packs         PackLister
	health        *healthuc.Service
	defaultPack   string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	answer *answeruc.Service,
	packs PackLister,
	health *healthuc.Service,
	defaultPack string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		answer:      answer,
		packs:       packs,
		health:      health,
		defaultPack: defaultPack,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuestion, http.StatusBadRequest, codeEmptyQuestion),
		sentinelHandler(domain.ErrPackNotFound, http.StatusNotFound, codePackNotFound),
		sentinelHandler(domain.ErrPackEmpty, http.StatusUnprocessableEntity, codePackEmpty),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, codeUpstreamError),
	}
	return s
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/api/v1/answer", s.Answer)
	r.Post("/api/v1/answer", s.Answer)
	r.Get("/api/v1/packs", s.ListPacks)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// answerRequest is the normalized answer request. GET query parameters
// and the POST JSON body accept the same field aliases.
type answerRequest struct {
	Question string
	Pack     string
	TopK     int
	Stream   bool
}

type answerBody struct {
	Q           string `json:"q"`
	Question    string `json:"question"`
	Pack        string `json:"pack"`
	K           int    `json:"k"`
	TopK        int    `json:"top_k"`
	ResultCount int    `json:"resultCount"`
	Stream      *bool  `json:"stream"`
}

func (b answerBody) normalize(defaultPack string) answerRequest {
	req := answerRequest{
		Question: b.Q,
		Pack:     b.Pack,
		TopK:     b.K,
		Stream:   true,
	}
	if req.Question == "" {
		req.Question = b.Question
	}
	if req.TopK == 0 {
		req.TopK = b.TopK
	}
	if req.TopK == 0 {
		req.TopK = b.ResultCount
	}
	if req.Pack == "" {
		req.Pack = defaultPack
	}
	if b.Stream != nil {
		req.Stream = *b.Stream
	}
	return req
}

func (s *Server) parseAnswerRequest(r *http.Request) (answerRequest, error) {
	if r.Method == http.MethodPost {
		var body answerBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return answerRequest{}, err
		}
		return body.normalize(s.defaultPack), nil
	}

	q := r.URL.Query()
	body := answerBody{
		Q:        q.Get("q"),
		Question: q.Get("question"),
		Pack:     q.Get("pack"),
	}
	for _, key := range []string{"k", "top_k", "resultCount"} {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return answerRequest{}, errors.New("parameter " + key + " must be an integer")
			}
			body.K = n
			break
		}
	}
	if v := q.Get("stream"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return answerRequest{}, errors.New("parameter stream must be a boolean")
		}
		body.Stream = &b
	}
	return body.normalize(s.defaultPack), nil
}

// Answer handles GET and POST /api/v1/answer.
//
// By default the response is a newline-delimited JSON event stream.
// With stream=false the full answer is returned as a single JSON body.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseAnswerRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request: "+err.Error())
		return
	}

	query, err := domain.NewQuery(req.Question, req.Pack, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if !req.Stream {
		text, sources, err := s.answer.AnswerSync(r.Context(), query)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		if sources == nil {
			sources = []domain.Source{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"answer":  text,
			"sources": sources,
		})
		return
	}

	sink := stream.NewWriter(w)
	if err := s.answer.Answer(r.Context(), query, sink); err != nil {
		// Before the first frame the response is still untouched and
		// can carry a normal error body. After that the stream owns
		// the connection and the failure was already framed.
		if !sink.Started() {
			s.handleDomainError(w, err)
			return
		}
		logpkg.FromContext(r.Context()).Warn("answer stream ended with error", zap.Error(err))
	}
}

// ListPacks handles GET /api/v1/packs.
func (s *Server) ListPacks(w http.ResponseWriter, r *http.Request) {
	ids, err := s.packs.List()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"packs":   ids,
		"default": s.defaultPack,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuestion,
		domain.ErrPackNotFound,
		domain.ErrPackEmpty,
		domain.ErrUpstream,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
