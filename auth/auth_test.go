package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/farmily/fhs/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserLookup is a mock implementation of UserLookup
type MockUserLookup struct {
	mock.Mock
}

func (m *MockUserLookup) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestIdentity_HasRole(t *testing.T) {
	id := &Identity{Subject: "alice", Roles: []string{"USER", RoleAdmin}}

	assert.True(t, id.HasRole("ADMIN"))
	assert.True(t, id.HasRole("USER"))
	assert.False(t, id.HasRole("admin"))
	assert.False(t, id.HasRole(""))

	var nilID *Identity
	assert.False(t, nilID.HasRole(RoleAdmin))
	assert.False(t, (&Identity{Subject: "bob", Roles: []string{}}).HasRole(RoleAdmin))
}

func TestIdentityContext(t *testing.T) {
	t.Run("empty context has no identity", func(t *testing.T) {
		assert.Nil(t, IdentityFromContext(context.Background()))
		assert.Empty(t, SubjectFromContext(context.Background()))
	})

	t.Run("round trip", func(t *testing.T) {
		id := &Identity{Subject: "alice", Roles: DefaultRoles()}
		ctx := WithIdentity(context.Background(), id)

		assert.Same(t, id, IdentityFromContext(ctx))
		assert.Equal(t, "alice", SubjectFromContext(ctx))
	})

	t.Run("nil identity is not bound", func(t *testing.T) {
		ctx := WithIdentity(context.Background(), nil)
		assert.Nil(t, IdentityFromContext(ctx))
	})
}

func TestBcryptVerifier(t *testing.T) {
	v := NewBcryptVerifier(bcrypt.MinCost)

	hash, err := v.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	t.Run("matching password", func(t *testing.T) {
		assert.True(t, v.Verify("correct horse", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.False(t, v.Verify("battery staple", hash))
		assert.False(t, v.Verify("", hash))
	})

	t.Run("garbage stored hash", func(t *testing.T) {
		assert.False(t, v.Verify("correct horse", "not-a-hash"))
		assert.False(t, v.Verify("correct horse", ""))
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, NewBcryptVerifier(0).Cost())
		assert.Equal(t, bcrypt.DefaultCost, NewBcryptVerifier(99).Cost())
		assert.Equal(t, 12, NewBcryptVerifier(12).Cost())
	})

	t.Run("password longer than 72 bytes is rejected", func(t *testing.T) {
		long := make([]byte, 73)
		for i := range long {
			long[i] = 'a'
		}
		_, err := v.Hash(string(long))
		assert.Error(t, err)
	})
}

func TestResolver_Resolve(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	tests := []struct {
		name      string
		user      *models.User
		err       error
		wantRoles []string
		wantErr   error
	}{
		{
			name:      "explicit roles used verbatim",
			user:      &models.User{Username: "root", Roles: []string{"ADMIN", "USER"}},
			wantRoles: []string{"ADMIN", "USER"},
		},
		{
			name:      "explicitly empty roles stay empty",
			user:      &models.User{Username: "nobody", Roles: []string{}},
			wantRoles: []string{},
		},
		{
			name:      "missing role data gets defaults",
			user:      &models.User{Username: "alice"},
			wantRoles: []string{"AUTHENTICATED"},
		},
		{
			name:    "unknown user",
			err:     ErrNotFound,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserLookup)
			subject := "alice"
			if tt.user != nil {
				subject = tt.user.Username
				users.On("FindBySubject", mock.Anything, subject).Return(tt.user, nil)
			} else {
				users.On("FindBySubject", mock.Anything, subject).Return(nil, tt.err)
			}

			id, err := NewResolver(users, logger).Resolve(ctx, subject)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, subject, id.Subject)
				assert.Equal(t, tt.wantRoles, id.Roles)
			}
			users.AssertExpectations(t)
		})
	}

	t.Run("store failure is not reported as not found", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("FindBySubject", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

		id, err := NewResolver(users, logger).Resolve(ctx, "alice")
		assert.Nil(t, id)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("resolved roles do not alias the record", func(t *testing.T) {
		user := &models.User{Username: "root", Roles: []string{"ADMIN"}}
		users := new(MockUserLookup)
		users.On("FindBySubject", mock.Anything, "root").Return(user, nil)

		id, err := NewResolver(users, logger).Resolve(ctx, "root")
		require.NoError(t, err)

		user.Roles[0] = "USER"
		assert.Equal(t, []string{"ADMIN"}, id.Roles)
	})
}

func TestAuthenticator_AuthenticateCredentials(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	verifier := NewBcryptVerifier(bcrypt.MinCost)

	hash, err := verifier.Hash("s3cret-pass")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("FindBySubject", mock.Anything, "alice").
			Return(&models.User{Username: "alice", PasswordHash: hash}, nil)

		id, err := NewAuthenticator(users, verifier, logger).AuthenticateCredentials(ctx, "alice", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "alice", id.Subject)
		assert.Equal(t, DefaultRoles(), id.Roles)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("FindBySubject", mock.Anything, "alice").
			Return(&models.User{Username: "alice", PasswordHash: hash}, nil)

		id, err := NewAuthenticator(users, verifier, logger).AuthenticateCredentials(ctx, "alice", "nope")
		assert.Nil(t, id)
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("unknown user returns the same error", func(t *testing.T) {
		users := new(MockUserLookup)
		users.On("FindBySubject", mock.Anything, "ghost").Return(nil, ErrNotFound)

		id, err := NewAuthenticator(users, verifier, logger).AuthenticateCredentials(ctx, "ghost", "s3cret-pass")
		assert.Nil(t, id)
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("store failure is propagated", func(t *testing.T) {
		storeErr := errors.New("timeout")
		users := new(MockUserLookup)
		users.On("FindBySubject", mock.Anything, "alice").Return(nil, storeErr)

		_, err := NewAuthenticator(users, verifier, logger).AuthenticateCredentials(ctx, "alice", "s3cret-pass")
		assert.ErrorIs(t, err, storeErr)
		assert.False(t, errors.Is(err, ErrBadCredentials))
	})
}
