package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tabi-backend/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hashed, display_name, avatar_url, avatar_key, header_url, bio, email_verified, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hashed, display_name, avatar_url, avatar_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email_verified, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHashed,
		user.DisplayName,
		user.AvatarURL,
		user.AvatarKey,
	).Scan(&user.ID, &user.EmailVerified, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	var users []model.UserSummary
	err := r.db.SelectContext(ctx, &users, `
		SELECT id, username, display_name, avatar_url
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
		    bio          = COALESCE($3, bio),
		    header_url   = COALESCE($4, header_url),
		    updated_at   = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id, req.DisplayName, req.Bio, req.HeaderURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id int64, avatarURL, avatarKey string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET avatar_url = $2, avatar_key = $3, updated_at = NOW() WHERE id = $1
	`, id, avatarURL, avatarKey)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hashed = $2, updated_at = NOW() WHERE id = $1
	`, id, passwordHashed)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
