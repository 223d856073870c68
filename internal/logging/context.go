package logging

import (
	"context"
	"log/slog"

	"ytdb/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for batch run identifiers.
	FieldRunID = "run_id"
	// FieldContentID is the standardized structured logging key for content identifiers.
	FieldContentID = "content_id"
	// FieldTarget is the standardized structured logging key for the fetched asset kind.
	FieldTarget = "target"
	// FieldProgress holds "position/total" for per-item batch lines.
	FieldProgress = "progress"
	// FieldEventType tags a log line with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if rid, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	if id, ok := services.ContentIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldContentID, id))
	}
	if target, ok := services.TargetFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTarget, target))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
