package http

import (
	"context"
	"log/slog"

	"github.com/example/company-calendar/internal/logging"
	"github.com/example/company-calendar/internal/scheduler"
)

type contextKey string

const (
	principalContextKey  contextKey = "principal"
	resourceIDContextKey contextKey = "resource_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal scheduler.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (scheduler.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(scheduler.Principal)
	return principal, ok
}

// ContextWithResourceID injects the identifier resolved from the request path.
func ContextWithResourceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, resourceIDContextKey, id)
}

// ResourceIDFromContext extracts an identifier previously associated with the context.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resourceIDContextKey).(string)
	return id, ok
}

// ContextWithLogger attaches a request-scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request-scoped logger, nil when absent.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}
