package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/models"
	"github.com/farmily/fhs/repositories"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

var userRowColumns = []string{"id", "username", "password_hash", "email", "phone", "roles", "created_at", "updated_at"}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts with nullable columns", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		user := models.NewUser("alice", "$2a$10$hash", "", "555-0100", nil)

		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, "alice", "$2a$10$hash", nil, "555-0100", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stores explicit roles as an array", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		user := models.NewUser("root", "h", "root@example.com", "", []string{"ADMIN"})

		mock.ExpectExec("INSERT INTO users").
			WithArgs(user.ID, "root", "h", "root@example.com", nil, pq.Array([]string{"ADMIN"}), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("INSERT INTO users").
			WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

		err := repo.Create(ctx, models.NewUser("alice", "h", "", "", nil))
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})

	t.Run("other driver error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, models.NewUser("alice", "h", "", "", nil))
		require.Error(t, err)
		assert.NotErrorIs(t, err, repositories.ErrDuplicate)
		assert.Contains(t, err.Error(), "failed to create user")
	})
}

func TestUserRepository_FindBySubject(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		rolesCell interface{}
		wantRoles []string
		wantData  bool
	}{
		{"null roles", nil, nil, false},
		{"empty roles", "{}", []string{}, true},
		{"admin", "{ADMIN}", []string{"ADMIN"}, true},
		{"several", "{AUTHENTICATED,ADMIN}", []string{"AUTHENTICATED", "ADMIN"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db, zap.NewNop())

			rows := sqlmock.NewRows(userRowColumns).
				AddRow(id.String(), "alice", "hash", "alice@example.com", nil, tt.rolesCell, now, now)
			mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("alice").WillReturnRows(rows)

			user, err := repo.FindBySubject(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, id, user.ID)
			assert.Equal(t, "alice@example.com", user.Email)
			assert.Empty(t, user.Phone)
			assert.Equal(t, tt.wantRoles, user.Roles)
			assert.Equal(t, tt.wantData, user.HasRoleData())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("missing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(`FROM users WHERE username = \$1`).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		user, err := repo.FindBySubject(ctx, "ghost")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, err, auth.ErrNotFound)
	})

	t.Run("query failure is not a miss", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(`FROM users WHERE username = \$1`).WillReturnError(errors.New("boom"))

		_, err := repo.FindBySubject(ctx, "alice")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(id.String(), "bob", "h", nil, nil, nil, now, now))

	user, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "bob", user.Username)
	assert.Nil(t, user.Roles)
}

func TestUserRepository_Mutations(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("update password", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE users").WithArgs(id, "new-hash", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdatePassword(ctx, id, "new-hash"))
	})

	t.Run("update password for missing user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdatePassword(ctx, id, "h"), repositories.ErrNotFound)
	})

	t.Run("clear roles", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE users").WithArgs("alice", nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRoles(ctx, "alice", nil))
	})

	t.Run("grant admin", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("UPDATE users").WithArgs("alice", pq.Array([]string{"ADMIN"}), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateRoles(ctx, "alice", []string{"ADMIN"}))
	})

	t.Run("delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, repo.Delete(ctx, id))

		mock.ExpectExec("DELETE FROM users").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, repo.Delete(ctx, id), repositories.ErrNotFound)
	})
}

func TestTransactionManager_InTransaction(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now()

	t.Run("repository calls join the transaction and commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectQuery(`WHERE username = \$1 FOR UPDATE`).WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(id.String(), "alice", "old", nil, nil, nil, now, now))
		mock.ExpectExec("UPDATE users").WithArgs(id, "new", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.InTransaction(ctx, func(txCtx context.Context, _ repositories.Transaction) error {
			_, inTx := GetTransactionFromContext(txCtx)
			assert.True(t, inTx)

			user, err := repo.FindBySubjectForUpdate(txCtx, "alice")
			if err != nil {
				return err
			}
			return repo.UpdatePassword(txCtx, user.ID, "new")
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())
		failure := errors.New("nope")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.InTransaction(ctx, func(context.Context, repositories.Transaction) error {
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())

		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err := tm.InTransaction(ctx, func(context.Context, repositories.Transaction) error {
			called = true
			return nil
		})
		assert.Error(t, err)
		assert.False(t, called)
	})

	t.Run("plain context uses the pool", func(t *testing.T) {
		_, inTx := GetTransactionFromContext(ctx)
		assert.False(t, inTx)
	})
}

func TestDB_Migrate(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh database", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := db.Migrate(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(migrations), applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already current", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(len(migrations))))

		applied, err := db.Migrate(ctx)
		require.NoError(t, err)
		assert.Zero(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed migration rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT COALESCE").WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))
		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		applied, err := db.Migrate(ctx)
		assert.Error(t, err)
		assert.Zero(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDB_HealthCheck(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	assert.NoError(t, db.HealthCheck(context.Background()))

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("down"))
	assert.Error(t, db.HealthCheck(context.Background()))
}
