package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/company-calendar/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const selectUserColumns = `SELECT id, email, password_hash, company_id, timezone, created_at, updated_at FROM users`

// CreateUser inserts a new user. Emails are stored normalized and are unique
// across all companies.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || user.PasswordHash == "" || user.CompanyID == "" {
		return persistence.ErrConstraintViolation
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	if user.Timezone == "" {
		user.Timezone = "UTC"
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, company_id, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		normalizeEmail(user.Email),
		user.PasswordHash,
		user.CompanyID,
		user.Timezone,
		formatTimestamp(user.CreatedAt),
		formatTimestamp(user.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, selectUserColumns+` WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email address
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, selectUserColumns+` WHERE email = ?`, email)
}

// UpdateTimezone changes the stored IANA timezone of a user
func (r *UserRepository) UpdateTimezone(ctx context.Context, id, timezone string, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE users SET timezone = ?, updated_at = ? WHERE id = ?`,
		timezone, formatTimestamp(updatedAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// DeleteUser removes a user. Owned events and participant links are removed
// by cascade; managed rooms are kept without a manager.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (persistence.User, error) {
	var (
		user                     persistence.User
		createdAtStr, updatedStr string
	)
	err := r.helper.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.CompanyID,
		&user.Timezone,
		&createdAtStr,
		&updatedStr,
	)
	if err != nil {
		mapped := r.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapped
	}

	if user.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTimestamp("updated_at", updatedStr); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(result rowsAffecter) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// normalizeEmail normalizes email addresses for consistent storage and lookup
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
