// Package server is the thin HTTP layer over the interview engine. It
// delegates to the resolver and token codec without embedding interview
// logic so transport concerns remain isolated.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rendis/intake/internal/interp"
	"github.com/rendis/intake/internal/loader"
	"github.com/rendis/intake/internal/token"
	"github.com/rendis/intake/pkg/schema"
)

// Server wires the definition registry, resolver and state codec behind
// the public routes.
type Server struct {
	logger   *slog.Logger
	registry *loader.Registry
	resolver *interp.Resolver
	codec    *token.Codec
}

// New creates a Server.
func New(logger *slog.Logger, registry *loader.Registry, resolver *interp.Resolver, codec *token.Codec) *Server {
	return &Server{
		logger:   logger,
		registry: registry,
		resolver: resolver,
		codec:    codec,
	}
}

// Router builds the route tree with request-id, logging and recovery
// middleware applied to every endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(recoverer(s.logger))
	r.Use(requestLogger(s.logger))

	r.Post("/interviews/{interviewID}", s.handleStart)
	r.Post("/update-interview", s.handleUpdate)
	r.Get("/healthz", s.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"interviews": s.registry.IDs(),
	})
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	QuestionID string         `json:"question_id,omitempty"`
	FieldPath  string         `json:"field_path,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// writeError translates InterviewError codes to HTTP statuses and emits a
// consistent JSON error envelope. Authoring errors stay opaque 500s so
// definition internals never leak to callers.
func writeError(w http.ResponseWriter, err error) {
	ie, ok := err.(*schema.InterviewError)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{
			Error: errorBody{Code: "INTERNAL", Message: "internal server error"},
		})
		return
	}

	var status int
	switch ie.Code {
	case schema.ErrCodeNotFound:
		status = http.StatusNotFound
	case schema.ErrCodeConflict:
		status = http.StatusConflict
	case schema.ErrCodeIntegrity:
		status = http.StatusUnauthorized
	case schema.ErrCodeField, schema.ErrCodeUnmet:
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}

	body := errorBody{Code: ie.Code, Message: ie.Message}
	if status != http.StatusInternalServerError {
		body.QuestionID = ie.QuestionID
		body.FieldPath = ie.FieldPath
		body.Details = ie.Details
	} else {
		body.Message = "internal server error"
	}
	writeJSON(w, status, errorEnvelope{Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{
		Error: errorBody{Code: "BAD_REQUEST", Message: message},
	})
}
