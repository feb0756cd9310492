package repositories

import (
	"context"

	"github.com/farmily/fhs/models"
	"github.com/google/uuid"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicate if the username is taken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindBySubject retrieves a user by username, the subject carried in tokens
	FindBySubject(ctx context.Context, username string) (*models.User, error)

	// FindBySubjectForUpdate is FindBySubject that locks the row for the
	// surrounding transaction
	FindBySubjectForUpdate(ctx context.Context, username string) (*models.User, error)

	// UpdatePassword replaces the stored password hash
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// UpdateRoles replaces the role list. A nil list clears role data.
	UpdateRoles(ctx context.Context, username string, roles []string) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories holds all repository instances
type Repositories struct {
	Users UserRepository
}
