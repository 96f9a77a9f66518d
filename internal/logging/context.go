package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithContext stores the logger on the context for downstream handlers.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored on the context, or a no-op logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return NewNop()
	}
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return NewNop()
}
