// Package middleware holds the small set of chi middlewares the demo
// HTTP host stacks on every route: panic recovery and structured
// request logging.
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/pkg/errors"
	"github.com/bugielektrik/orchestra-pay/pkg/httputil"
	"github.com/bugielektrik/orchestra-pay/pkg/logutil"
	"github.com/bugielektrik/orchestra-pay/pkg/server/response"
)

// ErrorHandler recovers from a handler panic and renders it as a
// 500 through the same response envelope a returned error would use.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = errors.ErrInternal
					}
					logger.Error("panic recovered",
						zap.Any("error", rec),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)
					RespondError(w, r, errors.ErrInternal.Wrap(err))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondError writes err through the response envelope, logging it
// at Error level, with a message derived from its HTTP status, via the
// request-scoped logger RequestLogger attached to the context.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.GetHTTPStatus(err)

	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Int("status", status),
	}
	msg := "request rejected"
	if httputil.IsServerError(status) {
		msg = "request failed"
	}
	logutil.LogError(r.Context(), msg, err, fields...)

	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		response.Error(w, r, status, domainErr.Code, domainErr.Message, domainErr.Details)
		return
	}
	response.Error(w, r, status, "INTERNAL_ERROR", err.Error(), nil)
}
