package services

import "context"

type contextKey string

const (
	runIDKey     contextKey = "run_id"
	contentIDKey contextKey = "content_id"
	targetKey    contextKey = "target"
)

// WithRunID annotates context with the identifier of the current batch run.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the batch run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithContentID annotates context with the content identifier being processed.
func WithContentID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, contentIDKey, id)
}

// ContentIDFromContext returns the content identifier if present.
func ContentIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(contentIDKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithTarget annotates context with the asset kind being fetched.
func WithTarget(ctx context.Context, target string) context.Context {
	if target == "" {
		return ctx
	}
	return context.WithValue(ctx, targetKey, target)
}

// TargetFromContext returns the asset kind if present.
func TargetFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(targetKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}
