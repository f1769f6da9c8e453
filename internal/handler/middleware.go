package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/ClareAI/astra-voice-admin/internal/session"
	"github.com/ClareAI/astra-voice-admin/pkg/logger"
	"github.com/ClareAI/astra-voice-admin/pkg/pubsub"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// requestIDHeader carries the per-request correlation id.
const requestIDHeader = "X-Request-ID"

// LoggingMiddleware logs HTTP requests for API endpoints
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Info(r.Context(), "api request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// ValidationMiddleware rejects write requests whose body is not JSON.
func ValidationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
				http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack lets websocket upgrades pass through the logging wrappers.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer %T cannot be hijacked", rw.ResponseWriter)
	}
	rw.statusCode = http.StatusSwitchingProtocols
	return h.Hijack()
}

// CORSMiddleware adds CORS headers for the allowed origins. "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := allowOrigin(allowedOrigins, r.Header.Get("Origin")); origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func allowOrigin(allowed []string, origin string) string {
	for _, o := range allowed {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware tags each request with an id and carries it on the context logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithFields(r.Context(), zap.String("request_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GlobalLoggingMiddleware logs all HTTP requests (not just API)
func GlobalLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Debug(r.Context(), "http request",
			zap.String("method", r.Method),
			zap.String("path", r.RequestURI),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// SessionChecker decides whether the operator session admits a request path.
type SessionChecker interface {
	Check(ctx context.Context, path string) session.Decision
}

// GuardMiddleware gates protected routes on the operator session. While the
// session is still being verified the request waits up to wait for the result.
// Unauthenticated browser requests are redirected to the login page with the
// requested path preserved; API callers get a 401 carrying the same redirect.
func GuardMiddleware(sessions SessionChecker, wait time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), wait)
			decision := sessions.Check(ctx, r.URL.RequestURI())
			cancel()

			switch {
			case decision.Allow:
				next.ServeHTTP(w, r)
			case decision.State == session.Verifying:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Session verification in progress", http.StatusServiceUnavailable)
			default:
				logger.Debug(r.Context(), "unauthenticated request",
					zap.String("path", r.URL.Path),
					zap.String("redirect", decision.Redirect),
				)
				sendUnauthorizedResponse(w, r, decision.Redirect)
			}
		})
	}
}

// isHTMLRequest checks if the request accepts HTML content
func isHTMLRequest(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// sendUnauthorizedResponse redirects browsers and answers API callers with JSON.
func sendUnauthorizedResponse(w http.ResponseWriter, r *http.Request, redirect string) {
	if isHTMLRequest(r) {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":    "unauthenticated",
		"redirect": redirect,
	})
}

// AuditPublisher records admin actions.
type AuditPublisher interface {
	PublishAudit(ctx context.Context, ev pubsub.AuditEvent)
}

// AuditMiddleware publishes every successful write through the console API,
// tagged with the route template and the signed-in operator.
func AuditMiddleware(pub AuditPublisher, sessions SessionService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}

			operator := ""
			if p := sessions.Status().Profile; p != nil {
				operator = p.Email
			}
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			if wrapped.statusCode < 200 || wrapped.statusCode >= 300 {
				return
			}
			action := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					action = tpl
				}
			}
			pub.PublishAudit(r.Context(), pubsub.AuditEvent{
				Action:    strings.ToLower(r.Method) + " " + action,
				Method:    r.Method,
				Path:      r.URL.RequestURI(),
				Status:    wrapped.statusCode,
				Operator:  operator,
				RequestID: w.Header().Get(requestIDHeader),
			})
		})
	}
}
