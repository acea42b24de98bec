package server

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// sessionHeader carries the unlock session token issued by /api/lock/unlock.
const sessionHeader = "X-Session-Token"

// withRequestLogging logs each request with method, path, status, and
// duration.
func withRequestLogging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// lockGate rejects requests while the application is locked, unless the
// request carries a valid unlock session token. Lock-screen endpoints are
// mounted outside this gate.
func (h *CredentialHandler) lockGate(sessions *Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locked, err := h.Credentials.IsLocked()
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if locked && !sessions.Valid(r.Header.Get(sessionHeader)) {
				http.Error(w, "application is locked", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
