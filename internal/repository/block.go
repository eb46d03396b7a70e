package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tabi-backend/internal/model"
)

type blockRepository struct {
	db *sqlx.DB
}

func NewBlockRepository(db *sqlx.DB) BlockRepository {
	return &blockRepository{db: db}
}

const blockColumns = `id, day_group_id, position, type, content`

func (r *blockRepository) ListByDayGroup(ctx context.Context, dayGroupID int64) ([]model.ItineraryBlock, error) {
	blocks := []model.ItineraryBlock{}
	err := r.db.SelectContext(ctx, &blocks, `
		SELECT `+blockColumns+`
		FROM itinerary_blocks
		WHERE day_group_id = $1
		ORDER BY position, id
	`, dayGroupID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}

func (r *blockRepository) GetByID(ctx context.Context, id int64) (*model.ItineraryBlock, error) {
	var block model.ItineraryBlock
	err := r.db.GetContext(ctx, &block,
		`SELECT `+blockColumns+` FROM itinerary_blocks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get block: %w", err)
	}
	return &block, nil
}

// Append inserts a block; a zero position means max(position)+1. A racing
// append with an explicit position trips the (day_group_id, position)
// uniqueness constraint and surfaces as ErrOrderConflict so the caller can
// retry.
func (r *blockRepository) Append(ctx context.Context, dayGroupID int64, blockType, content string, position int) (*model.ItineraryBlock, error) {
	var block model.ItineraryBlock
	var err error
	if position > 0 {
		err = r.db.GetContext(ctx, &block, `
			INSERT INTO itinerary_blocks (day_group_id, position, type, content)
			VALUES ($1, $2, $3, $4)
			RETURNING `+blockColumns, dayGroupID, position, blockType, content)
	} else {
		err = r.db.GetContext(ctx, &block, `
			INSERT INTO itinerary_blocks (day_group_id, position, type, content)
			VALUES ($1,
				(SELECT COALESCE(MAX(position), 0) + 1 FROM itinerary_blocks WHERE day_group_id = $1),
				$2, $3)
			RETURNING `+blockColumns, dayGroupID, blockType, content)
	}
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, model.ErrOrderConflict
		}
		return nil, fmt.Errorf("insert block: %w", err)
	}
	return &block, nil
}

func (r *blockRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM itinerary_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrBlockNotFound
	}
	return nil
}
