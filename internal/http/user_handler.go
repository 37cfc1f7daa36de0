package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/scheduler"
)

type userService interface {
	SignUp(ctx context.Context, params application.RegisterUserParams) (application.User, error)
	Me(ctx context.Context, principal scheduler.Principal) (application.User, error)
	UpdateTimezone(ctx context.Context, params application.UpdateTimezoneParams) (application.User, error)
	DeleteAccount(ctx context.Context, principal scheduler.Principal) error
}

type UserHandler struct {
	handlerBase
	service userService
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	return &UserHandler{handlerBase: newHandlerBase("UserHandler", logger), service: service}
}

// Register creates an account in a new company. It runs without
// authentication.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Register")

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, logger, err)
		return
	}

	user, err := h.service.SignUp(r.Context(), application.RegisterUserParams{
		Email:     req.Email,
		Password:  req.Password,
		CompanyID: req.CompanyID,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "signup failed", err)
		return
	}

	logger.With("user_id", user.ID, "company_id", user.CompanyID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Me", "principal_id", principal.UserID)

	user, err := h.service.Me(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, logger, "profile lookup failed", err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID)

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, logger, err)
		return
	}

	user, err := h.service.UpdateTimezone(r.Context(), application.UpdateTimezoneParams{
		Principal: principal,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "profile update failed", err)
		return
	}

	logger.With("timezone", user.Timezone).InfoContext(r.Context(), "profile updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID)

	if err := h.service.DeleteAccount(r.Context(), principal); err != nil {
		h.fail(r.Context(), w, logger, "account deletion failed", err)
		return
	}

	logger.InfoContext(r.Context(), "account deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	CompanyID string `json:"company_id"`
	Timezone  string `json:"timezone"`
}

type profileRequest struct {
	Timezone string `json:"timezone"`
}

type userDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CompanyID string `json:"company_id"`
	Timezone  string `json:"timezone"`
	CreatedAt string `json:"created_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Email:     user.Email,
		CompanyID: user.CompanyID,
		Timezone:  user.Timezone,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
