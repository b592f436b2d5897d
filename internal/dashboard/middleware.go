package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/datar-psa/summeval/internal/logger"
	"github.com/datar-psa/summeval/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID returns the id assigned to the request carried by ctx
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware assigns request ids, logs requests and records their latency
type LoggingMiddleware struct {
	log       *logger.Logger
	recorder  *metrics.Recorder
	skipPaths map[string]bool
}

// NewLoggingMiddleware creates the middleware. Health and scrape paths are not logged.
func NewLoggingMiddleware(log *logger.Logger, recorder *metrics.Recorder) *LoggingMiddleware {
	return &LoggingMiddleware{
		log:      log,
		recorder: recorder,
		skipPaths: map[string]bool{
			"/healthz":     true,
			"/readyz":      true,
			"/metrics":     true,
			"/favicon.ico": true,
		},
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware wraps next
func (m *LoggingMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.recorder.ObserveRequest(r.Method, route, rec.status, duration)

		if m.skipPaths[r.URL.Path] {
			return
		}
		m.log.Info("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
