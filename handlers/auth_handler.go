package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/middleware"
	"github.com/farmily/fhs/services"
	"github.com/farmily/fhs/utils"
	"go.uber.org/zap"
)

// AccountService defines the account operations the handlers call
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.Session, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	Profile(ctx context.Context, id *auth.Identity) (*services.Profile, error)
	DeleteAccount(ctx context.Context, username string) error
	ChangePassword(ctx context.Context, username, current, next string) error
}

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,max=50"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login
type TokenResponse struct {
	Token     string     `json:"token"`
	Username  string     `json:"username"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// AuthHandler handles the public /api/auth endpoints
type AuthHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(accounts AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	sess, err := h.accounts.Register(ctx, services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.logger.Debug("registration failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, TokenResponse{
		Token:    sess.Token,
		Username: sess.Username,
	})
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	sess, err := h.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.Debug("login failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	exp := sess.ExpiresAt.UTC()
	_ = utils.WriteOK(w, TokenResponse{
		Token:     sess.Token,
		Username:  sess.Username,
		ExpiresAt: &exp,
	})
}

// HandleLogout handles POST /api/auth/logout
// Tokens are not tracked server-side, so the client discards its own.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	utils.WriteNoContent(w)
}
