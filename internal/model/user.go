package model

import (
	"errors"
	"time"
)

// User represents an account in the system.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          *string   `db:"email" json:"email,omitempty"`
	PasswordHashed *string   `db:"password_hashed" json:"-"` // "-" hides from JSON output
	DisplayName    *string   `db:"display_name" json:"display_name"`
	AvatarURL      *string   `db:"avatar_url" json:"avatar_url"`
	AvatarKey      *string   `db:"avatar_key" json:"-"`
	HeaderURL      *string   `db:"header_url" json:"header_url"`
	Bio            *string   `db:"bio" json:"bio"`
	EmailVerified  bool      `db:"email_verified" json:"email_verified"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UserSummary is the light projection used in follower and bookmark lists.
type UserSummary struct {
	ID          int64   `db:"id" json:"id"`
	Username    string  `db:"username" json:"username"`
	DisplayName *string `db:"display_name" json:"display_name"`
	AvatarURL   *string `db:"avatar_url" json:"avatar_url"`
}

// RegisterRequest represents the data needed to register a new user.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the mutable profile fields. Nil means "leave as is".
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	HeaderURL   *string `json:"header_url"`
}

// PasswordResetRequest asks for a reset mail to be sent.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm sets a new password using a mailed reset token.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// VerifyEmailRequest confirms ownership of the registered email address.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameExists is returned when attempting to create a user with a taken username
	ErrUsernameExists = errors.New("username already exists")

	// ErrEmailExists is returned when attempting to create a user with a taken email
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")
)
