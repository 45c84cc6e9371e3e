package logutil

import (
	"context"

	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/pkg/log"
)

type requestIDKey struct{}

// FromContext returns the logger stored in ctx, or the process default.
func FromContext(ctx context.Context) *zap.Logger {
	return log.FromContext(ctx)
}

// WithLogger attaches a logger to ctx.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return log.WithLogger(ctx, l)
}

// WithRequestID attaches a request id to ctx for later retrieval by
// GetRequestID; LogError tags logged errors with it.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request id stashed in ctx, if any.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
