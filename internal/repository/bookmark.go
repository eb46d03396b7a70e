package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tabi-backend/internal/model"
)

type bookmarkRepository struct {
	db *sqlx.DB
}

func NewBookmarkRepository(db *sqlx.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Add inserts the edge; a duplicate insert is swallowed.
func (r *bookmarkRepository) Add(ctx context.Context, userID, itineraryID int64) error {
	query := `
		INSERT INTO bookmarks (user_id, itinerary_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, itinerary_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, itineraryID); err != nil {
		return fmt.Errorf("failed to create bookmark: %w", err)
	}
	return nil
}

// Remove deletes the edge; a missing row is a no-op.
func (r *bookmarkRepository) Remove(ctx context.Context, userID, itineraryID int64) error {
	query := `DELETE FROM bookmarks WHERE user_id = $1 AND itinerary_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, itineraryID); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

func (r *bookmarkRepository) Exists(ctx context.Context, userID, itineraryID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = $1 AND itinerary_id = $2)`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, itineraryID)
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark existence: %w", err)
	}
	return exists, nil
}

// ListForUser returns the bookmarked itineraries, newest bookmark first.
func (r *bookmarkRepository) ListForUser(ctx context.Context, userID int64) ([]model.Itinerary, error) {
	itins := []model.Itinerary{}
	err := r.db.SelectContext(ctx, &itins, `
		SELECT i.id, i.title, i.slug, i.description, i.visibility, i.creator_id,
		       i.parent_id, i.tags, i.created_at, i.updated_at
		FROM bookmarks b
		JOIN itineraries i ON i.id = b.itinerary_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	return itins, nil
}
