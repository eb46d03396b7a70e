package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tabi-backend/internal/model"
)

type dayGroupRepository struct {
	db *sqlx.DB
}

func NewDayGroupRepository(db *sqlx.DB) DayGroupRepository {
	return &dayGroupRepository{db: db}
}

const dayGroupColumns = `id, itinerary_id, date, title, position`

// lockItinerary serializes structural day-group mutations per itinerary.
// The advisory lock is transaction-scoped and released at commit/rollback.
func lockItinerary(ctx context.Context, tx *sqlx.Tx, itineraryID int64) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, itineraryID); err != nil {
		return fmt.Errorf("lock itinerary %d: %w", itineraryID, err)
	}
	return nil
}

func (r *dayGroupRepository) ListByItinerary(ctx context.Context, itineraryID int64) ([]model.DayGroup, error) {
	days := []model.DayGroup{}
	err := r.db.SelectContext(ctx, &days, `
		SELECT `+dayGroupColumns+`
		FROM day_groups
		WHERE itinerary_id = $1
		ORDER BY position, id
	`, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("list day groups: %w", err)
	}
	return days, nil
}

func (r *dayGroupRepository) GetByID(ctx context.Context, id int64) (*model.DayGroup, error) {
	var day model.DayGroup
	err := r.db.GetContext(ctx, &day,
		`SELECT `+dayGroupColumns+` FROM day_groups WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrDayGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get day group: %w", err)
	}
	return &day, nil
}

// Append inserts at max(position)+1. The advisory lock closes the
// read-then-insert race: two concurrent appends cannot observe the same max.
func (r *dayGroupRepository) Append(ctx context.Context, itineraryID int64, date time.Time, title *string) (*model.DayGroup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockItinerary(ctx, tx, itineraryID); err != nil {
		return nil, err
	}

	var day model.DayGroup
	err = tx.GetContext(ctx, &day, `
		INSERT INTO day_groups (itinerary_id, date, title, position)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM day_groups WHERE itinerary_id = $1))
		RETURNING `+dayGroupColumns, itineraryID, date, title)
	if err != nil {
		return nil, fmt.Errorf("insert day group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &day, nil
}

// Update mutates date/title only; the position is untouched.
func (r *dayGroupRepository) Update(ctx context.Context, id int64, req *model.UpdateDayGroupRequest) (*model.DayGroup, error) {
	query := `
		UPDATE day_groups
		SET date  = COALESCE($2, date),
		    title = COALESCE($3, title)
		WHERE id = $1
		RETURNING ` + dayGroupColumns
	var day model.DayGroup
	err := r.db.GetContext(ctx, &day, query, id, req.Date, req.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrDayGroupNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update day group: %w", err)
	}
	return &day, nil
}

// Delete removes the day group and its blocks in one transaction. Remaining
// groups keep their positions; gaps are tolerated until the next reorder.
func (r *dayGroupRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM itinerary_blocks WHERE day_group_id = $1`, id); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM day_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete day group: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrDayGroupNotFound
	}

	return tx.Commit()
}

// Reorder validates that ids is exactly the set of the itinerary's day
// groups, then assigns position 1..N in the supplied sequence. This is the
// only operation that guarantees a dense ordering.
func (r *dayGroupRepository) Reorder(ctx context.Context, itineraryID int64, ids []int64) ([]model.DayGroup, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockItinerary(ctx, tx, itineraryID); err != nil {
		return nil, err
	}

	var existingIDs []int64
	err = tx.SelectContext(ctx, &existingIDs,
		`SELECT id FROM day_groups WHERE itinerary_id = $1`, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("get existing day groups: %w", err)
	}

	if !sameIDSet(ids, existingIDs) {
		return nil, model.ErrIDSetMismatch
	}

	for index, dayID := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE day_groups SET position = $2 WHERE id = $1`, dayID, index+1); err != nil {
			return nil, fmt.Errorf("set position for day group %d: %w", dayID, err)
		}
	}

	days := []model.DayGroup{}
	err = tx.SelectContext(ctx, &days, `
		SELECT `+dayGroupColumns+`
		FROM day_groups
		WHERE itinerary_id = $1
		ORDER BY position
	`, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("list reordered day groups: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return days, nil
}

// sameIDSet reports whether a and b contain exactly the same IDs. Duplicates
// in a count as a mismatch.
func sameIDSet(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int64]struct{}, len(a))
	for _, id := range a {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	for _, id := range b {
		if _, ok := seen[id]; !ok {
			return false
		}
	}
	return true
}
