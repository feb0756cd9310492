package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/farmily/fhs/models"
	"github.com/farmily/fhs/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

const userColumns = `id, username, password_hash, email, phone, roles, created_at, updated_at`

// UserRepository implements the repositories.UserRepository interface
type UserRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB, logger *zap.Logger) repositories.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		nullString(user.Email),
		nullString(user.Phone),
		rolesArg(user.Roles),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %q: %w", user.Username, repositories.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug("user created", zap.String("id", user.ID.String()), zap.String("username", user.Username))
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// FindBySubject retrieves a user by username
func (r *UserRepository) FindBySubject(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanOne(ctx, query, username)
}

// FindBySubjectForUpdate retrieves a user by username and locks the row until
// the transaction in ctx ends. Outside a transaction the lock is released
// as soon as the statement completes.
func (r *UserRepository) FindBySubjectForUpdate(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 FOR UPDATE`
	return r.scanOne(ctx, query, username)
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2,
		    updated_at = $3
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	r.logger.Debug("password updated", zap.String("id", id.String()))
	return nil
}

// UpdateRoles replaces the role list of a user
func (r *UserRepository) UpdateRoles(ctx context.Context, username string, roles []string) error {
	query := `
		UPDATE users
		SET roles = $2,
		    updated_at = $3
		WHERE username = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, username, rolesArg(roles), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update roles: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	r.logger.Debug("roles updated", zap.String("username", username), zap.Strings("roles", roles))
	return nil
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if err := expectAffected(result); err != nil {
		return err
	}

	r.logger.Debug("user deleted", zap.String("id", id.String()))
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	executor := GetExecutor(ctx, r.db)

	var (
		user  models.User
		email sql.NullString
		phone sql.NullString
		roles pq.StringArray
	)
	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&email,
		&phone,
		&roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Email = email.String
	user.Phone = phone.String
	// A NULL column scans to a nil array, which keeps "no role data"
	// distinct from an explicit empty list.
	if roles != nil {
		user.Roles = []string(roles)
	}
	return &user, nil
}

func expectAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// rolesArg stores nil as NULL and an empty list as '{}'
func rolesArg(roles []string) interface{} {
	if roles == nil {
		return nil
	}
	return pq.Array(roles)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
