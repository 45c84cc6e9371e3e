package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/bugielektrik/orchestra-pay/pkg/logutil"
)

// RequestLogger logs one structured line per request: method, path,
// status, duration, and the chi request id for correlation. It also
// attaches a request-scoped logger (pre-tagged with the request id)
// to the context, so handlers and the coordinator log with the same
// correlation id via logutil.FromContext instead of the bare logger.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			requestID := middleware.GetReqID(r.Context())
			scoped := logger.With(zap.String("requestId", requestID))
			ctx := logutil.WithLogger(r.Context(), scoped)
			ctx = logutil.WithRequestID(ctx, requestID)

			next.ServeHTTP(ww, r.WithContext(ctx))

			scoped.Info("request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
