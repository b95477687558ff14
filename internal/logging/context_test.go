package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextKeys(t *testing.T) {
	ctx := context.Background()

	// Initially empty.
	assert.Equal(t, "", RequestID(ctx))
	assert.Equal(t, "", InterviewID(ctx))
	assert.Equal(t, "", QuestionID(ctx))

	// Set values.
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithInterviewID(ctx, "registration")
	ctx = WithQuestionID(ctx, "email")

	// Round-trip.
	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Equal(t, "registration", InterviewID(ctx))
	assert.Equal(t, "email", QuestionID(ctx))
}

func TestCorrelationHandlerPartialIDs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewCorrelationHandler(inner))

	ctx := WithRequestID(context.Background(), "req-only")
	logger.InfoContext(ctx, "partial")

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-only"`)
	assert.NotContains(t, output, "interview_id")
	assert.NotContains(t, output, "question_id")
}

func TestCorrelationHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := NewCorrelationHandler(inner)
	logger := slog.New(handler.WithAttrs([]slog.Attr{slog.String("component", "resolver")}))

	ctx := WithRequestID(context.Background(), "req-attr")
	logger.InfoContext(ctx, "with attrs")

	output := buf.String()
	assert.Contains(t, output, `"request_id":"req-attr"`)
	assert.Contains(t, output, `"component":"resolver"`)
}

func TestCorrelationHandlerWithGroup(t *testing.T) {
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	handler := NewCorrelationHandler(inner)
	logger := slog.New(handler.WithGroup("api"))

	ctx := WithRequestID(context.Background(), "req-grp")
	logger.InfoContext(ctx, "grouped", "key", "val")

	output := buf.String()
	assert.Contains(t, output, "req-grp")
	assert.Contains(t, output, "grouped")
}
