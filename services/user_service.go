package services

import (
	"context"
	"errors"
	"time"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/internal/observability"
	"github.com/farmily/fhs/models"
	"github.com/farmily/fhs/repositories"
	"go.uber.org/zap"
)

// MaxPasswordBytes is the longest password bcrypt will hash
const MaxPasswordBytes = 72

// PasswordHasher hashes new passwords and verifies presented ones
type PasswordHasher interface {
	auth.CredentialVerifier
	Hash(secret string) (string, error)
}

// TokenIssuer signs session tokens for a subject
type TokenIssuer interface {
	IssueDefault(subject string) (string, error)
	Expiry(token string) (time.Time, error)
}

// CredentialsAuthenticator checks a username and password pair
type CredentialsAuthenticator interface {
	AuthenticateCredentials(ctx context.Context, username, password string) (*auth.Identity, error)
}

// Session is what a successful login or registration hands back
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Profile is the caller's view of their own account
type Profile struct {
	Username string
	Roles    []string
}

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Username string
	Password string
	Email    string
	Phone    string
}

// UserService implements the account operations behind the HTTP API
type UserService struct {
	users   repositories.UserRepository
	txMgr   repositories.TransactionManager
	authn   CredentialsAuthenticator
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	users repositories.UserRepository,
	txMgr repositories.TransactionManager,
	authn CredentialsAuthenticator,
	hasher PasswordHasher,
	tokens TokenIssuer,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:   users,
		txMgr:   txMgr,
		authn:   authn,
		hasher:  hasher,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}
}

// Register creates an account and logs it in. New accounts carry no role
// data, so they resolve to the default roles.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if len(in.Password) > MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.Username, hash, in.Email, in.Phone, nil)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, WrapInternal("failed to create user", err)
	}

	s.logger.Info("user registered", zap.String("username", user.Username))
	return s.session(user.Username)
}

// Login verifies credentials and issues a token. Unknown users and wrong
// passwords produce the same error.
func (s *UserService) Login(ctx context.Context, username, password string) (*Session, error) {
	id, err := s.authn.AuthenticateCredentials(ctx, username, password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) {
			s.metrics.RecordLogin("rejected")
			return nil, ErrInvalidCredentials
		}
		s.metrics.RecordLogin("error")
		return nil, WrapInternal("failed to authenticate", err)
	}

	sess, err := s.session(id.Subject)
	if err != nil {
		s.metrics.RecordLogin("error")
		return nil, err
	}

	s.metrics.RecordLogin("success")
	s.logger.Info("user logged in", zap.String("username", id.Subject))
	return sess, nil
}

// Profile returns the bound identity's account view
func (s *UserService) Profile(_ context.Context, id *auth.Identity) (*Profile, error) {
	if id == nil {
		return nil, ErrUnauthorized
	}
	return &Profile{
		Username: id.Subject,
		Roles:    append([]string(nil), id.Roles...),
	}, nil
}

// DeleteAccount removes the caller's account. Tokens already issued stay
// signature-valid but stop resolving to an identity.
func (s *UserService) DeleteAccount(ctx context.Context, username string) error {
	user, err := s.users.FindBySubject(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return WrapInternal("failed to look up user", err)
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return WrapInternal("failed to delete user", err)
	}

	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}

// ChangePassword replaces the caller's password after checking the current
// one. The row is locked for the duration so concurrent changes serialize.
func (s *UserService) ChangePassword(ctx context.Context, username, current, next string) error {
	if len(next) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	err := WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		user, err := s.users.FindBySubjectForUpdate(ctx, username)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrUserNotFound
			}
			return WrapInternal("failed to look up user", err)
		}

		if !s.hasher.Verify(current, user.PasswordHash) {
			return ErrWrongPassword
		}

		hash, err := s.hasher.Hash(next)
		if err != nil {
			return WrapInternal("failed to hash password", err)
		}

		if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return WrapInternal("failed to update password", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("password changed", zap.String("username", username))
	return nil
}

func (s *UserService) session(username string) (*Session, error) {
	tok, err := s.tokens.IssueDefault(username)
	if err != nil {
		return nil, WrapInternal("failed to issue token", err)
	}
	exp, err := s.tokens.Expiry(tok)
	if err != nil {
		return nil, WrapInternal("failed to read token expiry", err)
	}
	return &Session{Token: tok, Username: username, ExpiresAt: exp}, nil
}
