package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tourbase/tourbase/internal/model"
	"github.com/tourbase/tourbase/internal/query"
)

// Common errors for user repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, name, email, photo, role, password_changed_at, active, created_at`

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, email, photo, role, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.Role,
		user.PasswordHash,
		user.Active,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their ID. The password hash is not
// loaded; use GetUserByEmailWithPassword for credential checks.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.Active,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by their email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user model.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.Active,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByEmailWithPassword retrieves a user by email including the
// password hash. Used only by the login and password-rotation paths.
func (r *Repository) GetUserByEmailWithPassword(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, name, email, photo, role, password_hash, password_changed_at, active, created_at
		FROM users
		WHERE email = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordHash,
		&user.PasswordChangedAt,
		&user.Active,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetUserByIDWithPassword retrieves a user by ID including the password
// hash. Used by the authenticated password-rotation path.
func (r *Repository) GetUserByIDWithPassword(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, name, email, photo, role, password_hash, password_changed_at, active, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordHash,
		&user.PasswordChangedAt,
		&user.Active,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// UpdateUserPassword stores a new password hash and advances the
// password-change watermark, retroactively invalidating every
// previously issued token. The reset ticket, if any, is cleared in the
// same statement so no partial state survives.
func (r *Repository) UpdateUserPassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = $3,
		    reset_token_hash = NULL,
		    reset_token_expires_at = NULL
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, passwordHash, changedAt)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// SetResetTicket stores the hash and expiry of a password-reset
// ticket, replacing any previous ticket for the user.
func (r *Repository) SetResetTicket(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires_at = $3
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to set reset ticket: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ClearResetTicket removes the user's password-reset ticket.
func (r *Repository) ClearResetTicket(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET reset_token_hash = NULL, reset_token_expires_at = NULL
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to clear reset ticket: %w", err)
	}

	return nil
}

// GetUserByResetTicket retrieves the user holding a non-expired reset
// ticket with the given hash.
func (r *Repository) GetUserByResetTicket(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE reset_token_hash = $1 AND reset_token_expires_at > $2
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.PasswordChangedAt,
		&user.Active,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset ticket: %w", err)
	}

	return &user, nil
}

// UpdateUserProfile updates the mutable profile fields (name, email,
// photo). Password and role changes go through their dedicated paths.
func (r *Repository) UpdateUserProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, photo = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.Photo)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdateUserRole changes an account's authorization role.
func (r *Repository) UpdateUserRole(ctx context.Context, id string, role model.Role) error {
	query := `UPDATE users SET role = $2 WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// DeactivateUser soft-deletes an account. Inactive users fail every
// subsequent authentication.
func (r *Repository) DeactivateUser(ctx context.Context, id string) error {
	query := `UPDATE users SET active = false WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListUsers executes a list spec against the users collection.
// Inactive accounts are excluded with an explicit fixed condition
// rather than an implicit hook.
func (r *Repository) ListUsers(ctx context.Context, spec *query.Spec) ([]query.Document, error) {
	return r.list(ctx, userTranslator, spec, query.Cond{Column: "active", Op: query.OpEq, Value: true})
}
