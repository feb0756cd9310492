package handlers

import (
	"fmt"
	"net/http"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/services"
	"github.com/farmily/fhs/utils"
	"go.uber.org/zap"
)

// ChangePasswordRequest represents a password change for the caller
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

// ProfileResponse represents the caller's profile
type ProfileResponse struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// UserHandler handles the authenticated /api/user endpoints
type UserHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(accounts AccountService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// HandleProfile handles GET /api/user/profile
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.accounts.Profile(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteMessage(w,
		ProfileResponse{Username: profile.Username, Roles: profile.Roles},
		fmt.Sprintf("Hello, %s! This is your profile.", profile.Username))
}

// HandleDelete handles DELETE /api/user/delete
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), subject); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteMessage(w, nil, "Account deleted")
}

// HandleChangePassword handles PUT /api/user/change-password
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	subject := auth.SubjectFromContext(r.Context())
	if subject == "" {
		HandleServiceError(w, services.ErrUnauthorized, h.logger)
		return
	}

	var req ChangePasswordRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteMessage(w, nil, "Password updated")
}
