package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/scheduler"
)

// Authenticator resolves credentials into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, params application.AuthenticateParams) (scheduler.Principal, error)
}

const basicRealm = `Basic realm="company-calendar", charset="UTF-8"`

// RequireBasicAuth resolves the Authorization header once per request and
// stores the principal in the request context. Requests without valid
// credentials never reach next.
func RequireBasicAuth(authenticator Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", basicRealm)
				responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: msgNotAuthenticated})
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), application.AuthenticateParams{
				Email:    email,
				Password: password,
			})
			if err != nil {
				if errors.Is(err, application.ErrInvalidCredentials) {
					w.Header().Set("WWW-Authenticate", basicRealm)
					responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{Message: msgInvalidCredentials})
					return
				}
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "authentication failed", "error", err, "error_kind", application.ErrorKind(err))
				responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: msgInternal})
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			if logger := LoggerFromContext(ctx); logger != nil {
				ctx = ContextWithLogger(ctx, logger.With("principal_id", principal.UserID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger assigns each request a sequential id and logs its start and
// completion.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	var counter atomic.Uint64

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := counter.Add(1)
			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			logger.InfoContext(ctx, "request started")
			next.ServeHTTP(rec, r.WithContext(ctx))
			logger.InfoContext(ctx, "request completed", "status", rec.status, "duration", time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(status int) {
	if !s.wroteHeader {
		s.status = status
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}
