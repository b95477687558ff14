package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rendis/intake/internal/interp"
	"github.com/rendis/intake/internal/logging"
	"github.com/rendis/intake/internal/token"
	"github.com/rendis/intake/pkg/schema"
)

type startRequest struct {
	// Context carries caller-supplied ambient data (e.g. the event being
	// registered for); Data carries initial answer values. Both seed the
	// interview context, Data keys winning on overlap.
	Context map[string]any `json:"context"`
	Data    map[string]any `json:"data"`
}

type updateRequest struct {
	State     string         `json:"state"`
	Responses map[string]any `json:"responses"`
}

// handleStart begins an interview: it replays an empty history against the
// seeded context and returns the first question (or immediate completion)
// with a fresh state token.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	interviewID := chi.URLParam(r, "interviewID")
	ctx := logging.WithInterviewID(r.Context(), interviewID)

	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(w, "request body is not valid JSON")
		return
	}

	def, ok := s.registry.Get(interviewID)
	if !ok {
		writeError(w, schema.NewErrorf(schema.ErrCodeNotFound, "unknown interview %q", interviewID))
		return
	}

	seed := mergeSeed(req.Context, req.Data)
	out, err := s.resolver.Resolve(def, nil, seed)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve failed", "error", err.Error())
		writeError(w, err)
		return
	}

	s.logger.InfoContext(ctx, "interview started", "phase", string(out.Phase))
	s.respond(w, ctx, interviewID, seed, out)
}

// handleUpdate advances an interview: it verifies the echoed state token,
// replays its history to find the current question, appends the submitted
// responses as that question's answer, and replays again.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "request body is not valid JSON")
		return
	}
	if req.State == "" {
		badRequest(w, "state token is required")
		return
	}

	st, err := s.codec.Decode(req.State)
	if err != nil {
		s.logger.WarnContext(r.Context(), "state token rejected", "error", err.Error())
		writeError(w, err)
		return
	}
	ctx := logging.WithInterviewID(r.Context(), st.Interview)

	def, ok := s.registry.Get(st.Interview)
	if !ok {
		writeError(w, schema.NewErrorf(schema.ErrCodeNotFound, "unknown interview %q", st.Interview))
		return
	}

	cur, err := s.resolver.Resolve(def, st.History, st.Seed)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve failed", "error", err.Error())
		writeError(w, err)
		return
	}

	if cur.Phase == interp.PhaseCompleted {
		if len(req.Responses) > 0 {
			writeError(w, schema.NewError(schema.ErrCodeConflict, "interview is already completed"))
			return
		}
		s.respond(w, ctx, st.Interview, st.Seed, cur)
		return
	}

	// An update without responses is a resume: re-present the current
	// question with a refreshed token.
	if req.Responses == nil {
		s.respond(w, ctx, st.Interview, st.Seed, cur)
		return
	}

	ctx = logging.WithQuestionID(ctx, cur.QuestionID)
	history := cur.Effective.Append(schema.AnswerRecord{
		Question: cur.QuestionID,
		Values:   req.Responses,
	})

	out, err := s.resolver.Resolve(def, history, st.Seed)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve failed", "error", err.Error())
		writeError(w, err)
		return
	}

	if len(out.FieldErrors) > 0 || len(out.Unmet) > 0 {
		s.logger.InfoContext(ctx, "answer rejected",
			"field_errors", len(out.FieldErrors), "unmet", len(out.Unmet))
	}
	s.respond(w, ctx, st.Interview, st.Seed, out)
}

// respond encodes the refreshed state token and writes the step result.
// Rejected answers (field errors or an unmet checkpoint) re-present the
// question with 422; everything else is 200.
func (s *Server) respond(w http.ResponseWriter, ctx context.Context, interview string, seed map[string]any, out *interp.Outcome) {
	signed, err := s.codec.Encode(&token.State{
		Interview: interview,
		Seed:      seed,
		History:   out.Effective,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "token encode failed", "error", err.Error())
		writeError(w, err)
		return
	}

	result := &schema.StepResult{
		State:       signed,
		Completed:   out.Phase == interp.PhaseCompleted,
		Question:    out.Question,
		Unmet:       out.Unmet,
		FieldErrors: out.FieldErrors,
		Result:      out.Context,
	}

	status := http.StatusOK
	if len(out.FieldErrors) > 0 || len(out.Unmet) > 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// mergeSeed flattens the start request into one seed document. Data keys
// win over Context keys so explicit initial answers take precedence.
func mergeSeed(context, data map[string]any) map[string]any {
	if context == nil && data == nil {
		return nil
	}
	seed := make(map[string]any, len(context)+len(data))
	for k, v := range context {
		seed[k] = v
	}
	for k, v := range data {
		seed[k] = v
	}
	return seed
}
