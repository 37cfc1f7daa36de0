package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/example/company-calendar/internal/application"
)

const (
	msgBadRequest         = "Malformed request."
	msgNotAuthenticated   = "Authentication credentials were not provided."
	msgInvalidCredentials = "Invalid email or password."
	msgForbidden          = "You do not have permission to perform this action."
	msgNotFound           = "Not found."
	msgInvalidInput       = "Invalid input."
	msgInternal           = "A server error occurred."
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto status codes. Validation
// errors are checked first so that joined errors keep their field details.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, msgInternal)
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
			Message: msgInvalidInput,
			Errors:  vErr.FieldErrors,
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeError(ctx, w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, application.ErrUnauthorized):
		r.writeError(ctx, w, http.StatusForbidden, msgForbidden)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, msgNotFound)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", application.ErrorKind(err))
		r.writeError(ctx, w, http.StatusInternalServerError, msgInternal)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("decode request body: trailing data")
	}
	return nil
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
