package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tabi-backend/internal/model"
	"tabi-backend/internal/repository"
)

// UserService handles business logic for user accounts and profiles.
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new user account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, fmt.Errorf("password is required")
	}

	// Check if username already exists
	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameExists
	}

	exists, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashed := string(hashedPassword)

	user := &model.User{
		Username:       username,
		Email:          &email,
		PasswordHashed: &hashed,
	}
	if req.DisplayName != "" {
		displayName := req.DisplayName
		user.DisplayName = &displayName
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		// Don't reveal whether the email exists or not
		return nil, model.ErrInvalidCredentials
	}

	// Accounts created without a password (e.g. seeded) cannot log in.
	if user.PasswordHashed == nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHashed), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername retrieves a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// GetByEmail retrieves a user by email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// List returns user summaries for the public directory.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}

// UpdateProfile mutates the caller's display name, bio, or header image.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return s.repo.UpdateProfile(ctx, userID, req)
}

// UpdateAvatar stores the new avatar location on the user row.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int64, avatarURL, avatarKey string) error {
	return s.repo.UpdateAvatar(ctx, userID, avatarURL, avatarKey)
}

// ResetPassword sets a new password for the account owning email. The caller
// must have validated the reset token first.
func (s *UserService) ResetPassword(ctx context.Context, email, newPassword string) (*model.User, error) {
	if strings.TrimSpace(newPassword) == "" {
		return nil, fmt.Errorf("password is required")
	}

	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail marks the account owning email as verified.
func (s *UserService) VerifyEmail(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	return s.repo.MarkEmailVerified(ctx, user.ID)
}
