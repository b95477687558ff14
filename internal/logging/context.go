package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	interviewIDKey
	questionIDKey
)

// WithRequestID returns a context with the request ID set.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithInterviewID returns a context with the interview ID set.
func WithInterviewID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, interviewIDKey, id)
}

// WithQuestionID returns a context with the question ID set.
func WithQuestionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, questionIDKey, id)
}

// RequestID extracts the request ID from the context, or "" if absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// InterviewID extracts the interview ID from the context, or "" if absent.
func InterviewID(ctx context.Context) string {
	v, _ := ctx.Value(interviewIDKey).(string)
	return v
}

// QuestionID extracts the question ID from the context, or "" if absent.
func QuestionID(ctx context.Context) string {
	v, _ := ctx.Value(questionIDKey).(string)
	return v
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := RequestID(ctx); v != "" {
		r.AddAttrs(slog.String("request_id", v))
	}
	if v := InterviewID(ctx); v != "" {
		r.AddAttrs(slog.String("interview_id", v))
	}
	if v := QuestionID(ctx); v != "" {
		r.AddAttrs(slog.String("question_id", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
