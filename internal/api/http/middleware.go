package http

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/oshokin/panic-alert/internal/logger"
)

const (
	// requestIDHeader carries the request id in both directions.
	requestIDHeader = "X-Request-ID"
	// consolePasswordHeader carries the console password.
	consolePasswordHeader = "X-Console-Password"
	// maxRequestIDLength caps client supplied request ids.
	maxRequestIDLength = 64
)

var errNoHijacker = errors.New("upstream ResponseWriter does not implement http.Hijacker")

// requestID reuses a sane X-Request-ID or generates one, and puts a request scoped logger in the context.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)

		ctx := logger.WithFields(r.Context(), "request_id", id, "remote", clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs every request after it completes.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		logger.DebugKV(
			r.Context(),
			"HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}

// consoleGate requires the console password when a bcrypt hash is configured.
// An empty hash leaves the console routes open.
func consoleGate(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(hash) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			password := r.Header.Get(consolePasswordHeader)
			if password == "" {
				if _, basic, ok := r.BasicAuth(); ok {
					password = basic
				}
			}

			if password == "" || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
				logger.WarnKV(r.Context(), "Console access denied", "path", r.URL.Path)
				writeError(w, http.StatusUnauthorized, "console password required")

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter records the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status and forwards it.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker, required for websocket upgrades.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}

	return nil, nil, errNoHijacker
}

// Flush implements http.Flusher.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
