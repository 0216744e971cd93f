package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/zsiec/mockingress/internal/errors"
	"github.com/zsiec/mockingress/internal/logger"
	"github.com/zsiec/mockingress/internal/metrics"
)

// requestIDMiddleware makes sure every request and response carries an
// X-Request-ID for log correlation. A collector-supplied ID is kept.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := logger.EnsureRequestID(r)
		w.Header().Set(logger.RequestIDHeader, requestID)

		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records count and latency per route template.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := routeLabel(r)

		rw := logger.NewResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		metrics.RecordRequest(path, rw.StatusCode(), duration.Seconds())

		logger.FromContext(r.Context()).WithFields(logger.Fields{
			"status":      rw.StatusCode(),
			"duration_ms": float64(duration.Microseconds()) / 1000,
			"bytes":       rw.BytesWritten(),
		}).Debug("Request completed")
	})
}

// rateLimitMiddleware answers 429 once the configured ingress rate is
// exceeded. Without a limit it is a pass-through.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			metrics.IncrementRateLimited()
			w.Header().Set("Retry-After", "1")
			s.errorHandler.HandleError(w, r, errors.NewRateLimitError("ingress rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// routeLabel keeps metric label cardinality bounded.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
