package api

import (
	"context"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tarushsinha/ATHOS/internal/auth"
	"github.com/tarushsinha/ATHOS/internal/logging"
	"github.com/tarushsinha/ATHOS/internal/observability"
)

// RequestIDHeader carries the request correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (s *statusWriter) WriteHeader(statusCode int) {
	if !s.wroteHeader {
		s.statusCode = statusCode
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(statusCode)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

// PanicRecovery turns a handler panic into a 500 response.
func PanicRecovery() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := newStatusWriter(w)
			defer func() {
				if rec := recover(); rec != nil {
					logging.FromContext(r.Context()).Errorf("http: panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
					observability.RecordHTTPPanic()
					if !sw.wroteHeader {
						writeError(sw, http.StatusInternalServerError, "server_error", "internal error")
					}
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

type userSlotKey struct{}

// LogRequest assigns the request id and logs request_complete once the handler returns.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			var userID int64
			ctx := logging.WithRequestID(r.Context(), requestID)
			ctx = context.WithValue(ctx, userSlotKey{}, &userID)

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			fields := log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.statusCode,
				"duration_ms": time.Since(begin).Milliseconds(),
			}
			if userID != 0 {
				fields["user_id"] = userID
			}
			logging.FromContext(ctx).WithFields(fields).Info("request_complete")
		})
	}
}

// CaptureUser records the authenticated user for LogRequest. It runs after authentication.
func CaptureUser() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := auth.UserIDFromContext(r.Context()); ok {
				if slot, ok := r.Context().Value(userSlotKey{}).(*int64); ok {
					*slot = userID
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestMetrics counts requests by method and status and observes their duration.
func RequestMetrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			sw := newStatusWriter(w)

			next.ServeHTTP(sw, r)

			observability.RecordHTTPRequest(r.Method, sw.statusCode, time.Since(begin))
		})
	}
}

// Cors admits the allowed origins and answers preflight requests. Requests without an
// Origin header are not browser cross-origin calls and pass through.
func Cors(allowedOrigins []string) func(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !allowed[origin] && !allowed["*"] {
				logging.FromContext(r.Context()).Warnf("CORS: origin not allowed for path [%s] and origin [%s]", r.URL.Path, origin)
				writeError(w, http.StatusForbidden, "forbidden", "origin not allowed")
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Timezone, X-Request-ID")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DrainAndCloseRequest drains and closes the request body so the connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
