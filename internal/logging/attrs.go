package logging

import (
	"context"
	"log/slog"
	"slices"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Args converts attrs into the variadic form accepted by slog.Logger methods.
func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger yields a
// no-op logger.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

const (
	defaultErrorHint = "check logs for details"
	defaultImpact    = "item was not stored"
)

// WarnWithContext logs a warning that always carries event_type, error_hint
// and impact; missing fields get defaults.
func WarnWithContext(ctx context.Context, logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logEvent(ctx, logger, slog.LevelWarn, msg, eventType, true, attrs)
}

// ErrorWithContext logs an error that always carries event_type and error_hint.
func ErrorWithContext(ctx context.Context, logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	logEvent(ctx, logger, slog.LevelError, msg, eventType, false, attrs)
}

func logEvent(ctx context.Context, logger *slog.Logger, level slog.Level, msg, eventType string, withImpact bool, attrs []Attr) {
	if logger == nil {
		return
	}
	defaults := []Attr{
		String(FieldEventType, eventType),
		String(FieldErrorHint, defaultErrorHint),
	}
	if withImpact {
		defaults = append(defaults, String(FieldImpact, defaultImpact))
	}
	for _, def := range defaults {
		if !slices.ContainsFunc(attrs, func(a Attr) bool { return a.Key == def.Key }) {
			attrs = append(attrs, def)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	WithContext(ctx, logger).LogAttrs(ctx, level, msg, attrs...)
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
