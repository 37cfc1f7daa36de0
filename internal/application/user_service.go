package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/scheduler"
)

const msgSignupCompany = "Signup always creates a new company."

// DefaultTimezone is assigned at signup when neither the caller nor the
// configuration names one.
const DefaultTimezone = "UTC"

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	UpdateTimezone(ctx context.Context, id, timezone string, updatedAt time.Time) error
	DeleteUser(ctx context.Context, id string) error
}

// UserService orchestrates validation and persistence for accounts.
type UserService struct {
	users           UserRepository
	hashPassword    PasswordHasher
	idGenerator     func() string
	now             func() time.Time
	defaultTimezone string
	logger          *slog.Logger
}

// NewUserService wires dependencies for the user service. An empty
// defaultTimezone selects DefaultTimezone.
func NewUserService(users UserRepository, hasher PasswordHasher, idGenerator func() string, now func() time.Time, defaultTimezone string) *UserService {
	return NewUserServiceWithLogger(users, hasher, idGenerator, now, defaultTimezone, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a specified logger.
func NewUserServiceWithLogger(users UserRepository, hasher PasswordHasher, idGenerator func() string, now func() time.Time, defaultTimezone string, logger *slog.Logger) *UserService {
	if hasher == nil {
		hasher = HashPassword
	}
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if strings.TrimSpace(defaultTimezone) == "" {
		defaultTimezone = DefaultTimezone
	}
	return &UserService{
		users:           users,
		hashPassword:    hasher,
		idGenerator:     idGenerator,
		now:             now,
		defaultTimezone: strings.TrimSpace(defaultTimezone),
		logger:          defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates an account. A missing company id starts a new company.
// Callers must have checked that the account may join CompanyID.
func (s *UserService) Register(ctx context.Context, params RegisterUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "Register")
	defer func() {
		logOutcome(ctx, logger, err, "signup rejected", "user registered", "user_id", user.ID, "company_id", user.CompanyID)
	}()

	input, vErr := s.validateRegistration(params)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	hash, err := s.hashPassword(params.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	record := persistence.User{
		ID:           s.idGenerator(),
		Email:        input.Email,
		PasswordHash: hash,
		CompanyID:    input.CompanyID,
		Timezone:     input.Timezone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if record.CompanyID == "" {
		record.CompanyID = uuid.NewString()
	}

	if err := s.users.CreateUser(ctx, record); err != nil {
		return User{}, mapUserRepoError(err)
	}
	return toUser(record), nil
}

// SignUp is the self-service form of Register. It always starts a new
// company and rejects a caller-supplied company id.
func (s *UserService) SignUp(ctx context.Context, params RegisterUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if strings.TrimSpace(params.CompanyID) != "" {
		vErr := &ValidationError{}
		vErr.add("company_id", msgSignupCompany)
		s.loggerWith(ctx, "SignUp").WarnContext(ctx, "signup named an existing company", "error_kind", ErrorKind(vErr))
		return User{}, vErr
	}
	return s.Register(ctx, params)
}

func (s *UserService) validateRegistration(params RegisterUserParams) (RegisterUserParams, *ValidationError) {
	vErr := &ValidationError{}
	input := RegisterUserParams{
		Email:     strings.ToLower(strings.TrimSpace(params.Email)),
		CompanyID: strings.TrimSpace(params.CompanyID),
		Timezone:  strings.TrimSpace(params.Timezone),
	}

	if input.Email == "" {
		vErr.add("email", msgRequired)
	} else if !isValidEmail(input.Email) {
		vErr.add("email", msgInvalidEmail)
	}

	if params.Password == "" {
		vErr.add("password", msgRequired)
	} else if len([]rune(params.Password)) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("Ensure this field has at least %d characters.", MinPasswordLength))
	}

	if input.CompanyID != "" {
		parsed, err := uuid.Parse(input.CompanyID)
		if err != nil {
			vErr.add("company_id", "Must be a valid UUID.")
		} else {
			input.CompanyID = parsed.String()
		}
	}

	if input.Timezone == "" {
		input.Timezone = s.defaultTimezone
	}
	if _, err := scheduler.LoadLocation(input.Timezone); err != nil {
		vErr.add("timezone", fmt.Sprintf("%q is not a valid choice.", input.Timezone))
	}

	return input, vErr
}

// Me returns the principal's own account.
func (s *UserService) Me(ctx context.Context, principal scheduler.Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	record, err := s.users.GetUser(ctx, principal.UserID)
	if err != nil {
		return User{}, mapUserRepoError(err)
	}
	return toUser(record), nil
}

// UpdateTimezone changes the timezone of the principal's account. The new
// zone applies from the next request on.
func (s *UserService) UpdateTimezone(ctx context.Context, params UpdateTimezoneParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "UpdateTimezone", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "timezone update rejected", "timezone updated", "timezone", user.Timezone)
	}()

	timezone := strings.TrimSpace(params.Timezone)
	if _, err := scheduler.LoadLocation(timezone); err != nil {
		vErr := &ValidationError{}
		if timezone == "" {
			vErr.add("timezone", msgRequired)
		} else {
			vErr.add("timezone", fmt.Sprintf("%q is not a valid choice.", timezone))
		}
		return User{}, vErr
	}

	if err := s.users.UpdateTimezone(ctx, params.Principal.UserID, timezone, s.now().UTC()); err != nil {
		return User{}, mapUserRepoError(err)
	}
	return s.Me(ctx, params.Principal)
}

// DeleteAccount removes the principal's account. Owned events go with it;
// managed rooms and participations are released.
func (s *UserService) DeleteAccount(ctx context.Context, principal scheduler.Principal) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteAccount", "principal_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "account deletion failed", "account deleted")
	}()

	return mapUserRepoError(s.users.DeleteUser(ctx, principal.UserID))
}

func toUser(record persistence.User) User {
	return User{
		ID:        record.ID,
		Email:     record.Email,
		CompanyID: record.CompanyID,
		Timezone:  record.Timezone,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		vErr := &ValidationError{}
		vErr.add("email", "A user with that email already exists.")
		return errors.Join(ErrAlreadyExists, vErr)
	}
	return fmt.Errorf("user repository: %w", err)
}
