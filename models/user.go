package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account stored in the user table
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        string    `json:"email,omitempty" db:"email"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	// Roles is nil when the record carries no role data at all, which is
	// different from an explicitly empty list.
	Roles     []string  `json:"roles" db:"roles"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance
func NewUser(username, passwordHash, email, phone string, roles []string) *User {
	now := time.Now()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Phone:        phone,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasRoleData reports whether the record carries a role list, even an empty one
func (u *User) HasRoleData() bool {
	return u.Roles != nil
}
