package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if runID := RunIDFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("run.id", runID))
	}
	if doc := DocumentFromContext(ctx); doc != "" {
		fields = append(fields, zap.String("document", doc))
	}

	return fields
}

type runCtxKey struct{}
type documentCtxKey struct{}

// WithRunID tags ctx with the identifier of the current run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runCtxKey{}, runID)
}

// RunIDFromContext returns the run identifier, or "".
func RunIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(runCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// WithDocument tags ctx with the document being processed.
func WithDocument(ctx context.Context, document string) context.Context {
	return context.WithValue(ctx, documentCtxKey{}, document)
}

// DocumentFromContext returns the document name, or "".
func DocumentFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(documentCtxKey{}).(string); ok {
		return s
	}
	return ""
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}
