package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/company-calendar/internal/application"
)

// handlerBase carries what every handler needs to log and respond.
type handlerBase struct {
	name      string
	responder responder
	logger    *slog.Logger
}

func newHandlerBase(name string, logger *slog.Logger) handlerBase {
	if logger == nil {
		logger = slog.Default()
	}
	return handlerBase{name: name, responder: newResponder(logger), logger: logger}
}

// log prefers the request-scoped logger so request ids follow handler output.
func (b handlerBase) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = b.logger
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"handler", b.name}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return logger.With(append(pairs, attrs...)...)
}

// fail writes the mapped response for err. Unexpected errors are logged by
// the responder with the request logger.
func (b handlerBase) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	if kind := application.ErrorKind(err); kind != "unexpected" {
		logger.WarnContext(ctx, msg, "error", err, "error_kind", kind)
	}
	b.responder.handleServiceError(ctx, w, err)
}

func (b handlerBase) badRequest(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.WarnContext(ctx, "failed to decode request", "error", err, "error_kind", "bad_request")
	b.responder.writeError(ctx, w, http.StatusBadRequest, msgBadRequest)
}
