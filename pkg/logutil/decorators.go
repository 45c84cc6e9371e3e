package logutil

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
)

// LogMethodWithResult wraps fn with a debug entry line and a
// completion line carrying its duration and, on failure, its error —
// the coordinator's two public operations are logged this way instead
// of hand-writing entry/exit logging at every call site.
func LogMethodWithResult[T any](ctx context.Context, operation string, fn func() (T, error)) (T, error) {
	logger := FromContext(ctx)
	start := time.Now()

	logger.Debug("method entry", zap.String("operation", operation))

	result, err := fn()
	duration := time.Since(start)

	if err != nil {
		logger.Error("method failed",
			zap.String("operation", operation),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
	} else {
		logger.Debug("method completed",
			zap.String("operation", operation),
			zap.Duration("duration", duration),
		)
	}

	return result, err
}

// LogError logs an error at Error level, tagging it with the request
// id stashed in ctx (if any) and any request_id/cause details carried
// by a domain error.
func LogError(ctx context.Context, msg string, err error, fields ...zap.Field) {
	logger := FromContext(ctx)

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	fields = append(fields, zap.Error(err))

	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		if requestID, ok := domainErr.Details["request_id"]; ok {
			fields = append(fields, zap.Any("error_request_id", requestID))
		}
		if cause, ok := domainErr.Details["cause"]; ok {
			fields = append(fields, zap.Any("error_cause", cause))
		}
	}

	logger.Error(msg, fields...)
}
