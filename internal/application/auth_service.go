package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/scheduler"
)

// CredentialStore exposes the account lookup required by the auth service.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (persistence.User, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService turns credentials into a principal.
type AuthService struct {
	credentials    CredentialStore
	verifyPassword PasswordVerifier
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, verify PasswordVerifier) *AuthService {
	return NewAuthServiceWithLogger(credentials, verify, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(credentials CredentialStore, verify PasswordVerifier, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	return &AuthService{
		credentials:    credentials,
		verifyPassword: verify,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates an email and password and resolves the account into
// a principal carrying its company and loaded timezone. A stored timezone
// that cannot be loaded is reported as an internal error, not as bad
// credentials.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (principal scheduler.Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "authentication failed", "")
			return
		}
		logger.DebugContext(ctx, "authentication succeeded", "user_id", principal.UserID)
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.credentials.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
			return
		}
		err = fmt.Errorf("load credentials: %w", err)
		return
	}

	if verr := s.verifyPassword(user.PasswordHash, params.Password); verr != nil {
		err = ErrInvalidCredentials
		return
	}

	principal, err = scheduler.NewPrincipal(user.ID, user.CompanyID, user.Timezone)
	if err != nil {
		err = fmt.Errorf("resolve principal for user %s: %w", user.ID, err)
		return
	}
	return
}
