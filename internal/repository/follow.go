package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tabi-backend/internal/model"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) FollowRepository {
	return &followRepository{db: db}
}

// Add inserts the edge; a duplicate insert is swallowed.
func (r *followRepository) Add(ctx context.Context, followerID, followeeID int64) error {
	query := `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, followee_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

// Remove deletes the edge; a missing row is a no-op.
func (r *followRepository) Remove(ctx context.Context, followerID, followeeID int64) error {
	query := `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`
	if _, err := r.db.ExecContext(ctx, query, followerID, followeeID); err != nil {
		return fmt.Errorf("failed to delete follow: %w", err)
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check follow existence: %w", err)
	}
	return exists, nil
}

// GetFollowers retrieves users who follow the specified user, newest first.
func (r *followRepository) GetFollowers(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT u.id, u.username, u.display_name, u.avatar_url
		FROM follows f
		JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return users, nil
}

// GetFollowing retrieves users that the specified user follows, newest first.
func (r *followRepository) GetFollowing(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	users := []model.UserSummary{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT u.id, u.username, u.display_name, u.avatar_url
		FROM follows f
		JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return users, nil
}
