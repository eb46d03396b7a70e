package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tabi-backend/internal/model"
)

type itineraryRepository struct {
	db *sqlx.DB
}

func NewItineraryRepository(db *sqlx.DB) ItineraryRepository {
	return &itineraryRepository{db: db}
}

const itineraryColumns = `id, title, slug, description, visibility, creator_id, parent_id, tags, created_at, updated_at`

// Create inserts the itinerary and seeds its first day group in one
// transaction; a constraint failure on either row rolls back both.
func (r *itineraryRepository) Create(ctx context.Context, itin *model.Itinerary, seedDay *model.DayGroup) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO itineraries (title, slug, description, visibility, creator_id, parent_id, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query,
		itin.Title,
		itin.Slug,
		itin.Description,
		itin.Visibility,
		itin.CreatorID,
		itin.ParentID,
		itin.Tags,
	).Scan(&itin.ID, &itin.CreatedAt, &itin.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrTitleExists
		}
		return fmt.Errorf("insert itinerary: %w", err)
	}

	seedDay.ItineraryID = itin.ID
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO day_groups (itinerary_id, date, title, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, seedDay.ItineraryID, seedDay.Date, seedDay.Title, seedDay.Position).Scan(&seedDay.ID)
	if err != nil {
		return fmt.Errorf("insert seed day group: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	itin.Days = []model.DayGroup{*seedDay}
	return nil
}

func (r *itineraryRepository) GetByID(ctx context.Context, id int64) (*model.Itinerary, error) {
	var itin model.Itinerary
	err := r.db.GetContext(ctx, &itin,
		`SELECT `+itineraryColumns+` FROM itineraries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrItineraryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get itinerary: %w", err)
	}
	return &itin, nil
}

// GetHydrated loads the itinerary plus its day groups and their blocks,
// each level in ascending position order.
func (r *itineraryRepository) GetHydrated(ctx context.Context, id int64) (*model.Itinerary, error) {
	itin, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	days := []model.DayGroup{}
	err = r.db.SelectContext(ctx, &days, `
		SELECT id, itinerary_id, date, title, position
		FROM day_groups
		WHERE itinerary_id = $1
		ORDER BY position, id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get day groups: %w", err)
	}

	if len(days) > 0 {
		dayIDs := make([]int64, len(days))
		for i, d := range days {
			dayIDs[i] = d.ID
		}

		var blocks []model.ItineraryBlock
		err = r.db.SelectContext(ctx, &blocks, `
			SELECT id, day_group_id, position, type, content
			FROM itinerary_blocks
			WHERE day_group_id = ANY($1)
			ORDER BY day_group_id, position, id
		`, pq.Array(dayIDs))
		if err != nil {
			return nil, fmt.Errorf("get blocks: %w", err)
		}

		byDay := make(map[int64][]model.ItineraryBlock, len(days))
		for _, b := range blocks {
			byDay[b.DayGroupID] = append(byDay[b.DayGroupID], b)
		}
		for i := range days {
			days[i].Blocks = byDay[days[i].ID]
		}
	}

	itin.Days = days
	return itin, nil
}

func (r *itineraryRepository) GetBySlug(ctx context.Context, creatorID int64, slug string) (*model.Itinerary, error) {
	var itin model.Itinerary
	err := r.db.GetContext(ctx, &itin,
		`SELECT `+itineraryColumns+` FROM itineraries WHERE creator_id = $1 AND slug = $2`,
		creatorID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrItineraryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get itinerary by slug: %w", err)
	}
	return &itin, nil
}

// List returns public itineraries, optionally filtered by tags (must contain
// all) and a case-insensitive title/description search.
func (r *itineraryRepository) List(ctx context.Context, req *model.ListItinerariesRequest) ([]model.Itinerary, error) {
	query := `SELECT ` + itineraryColumns + ` FROM itineraries WHERE visibility = 'public'`
	args := []interface{}{}

	if len(req.Tags) > 0 {
		args = append(args, pq.Array(req.Tags))
		query += fmt.Sprintf(" AND tags @> $%d", len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	args = append(args, req.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, req.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	var itins []model.Itinerary
	if err := r.db.SelectContext(ctx, &itins, query, args...); err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	return itins, nil
}

func (r *itineraryRepository) ListByCreator(ctx context.Context, creatorID int64, includePrivate bool) ([]model.Itinerary, error) {
	query := `SELECT ` + itineraryColumns + ` FROM itineraries WHERE creator_id = $1`
	if !includePrivate {
		query += ` AND visibility = 'public'`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var itins []model.Itinerary
	if err := r.db.SelectContext(ctx, &itins, query, creatorID); err != nil {
		return nil, fmt.Errorf("list itineraries by creator: %w", err)
	}
	return itins, nil
}

// Update mutates only the supplied fields. The slug is intentionally stable
// across renames; links already shared keep working.
func (r *itineraryRepository) Update(ctx context.Context, id int64, req *model.UpdateItineraryRequest) (*model.Itinerary, error) {
	var tags interface{}
	if req.Tags != nil {
		tags = pq.Array(*req.Tags)
	}

	query := `
		UPDATE itineraries
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    visibility  = COALESCE($4, visibility),
		    tags        = COALESCE($5, tags),
		    updated_at  = NOW()
		WHERE id = $1
		RETURNING ` + itineraryColumns
	var itin model.Itinerary
	err := r.db.GetContext(ctx, &itin, query, id, req.Title, req.Description, req.Visibility, tags)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrItineraryNotFound
	}
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, model.ErrTitleExists
		}
		return nil, fmt.Errorf("update itinerary: %w", err)
	}
	return &itin, nil
}

// Delete removes the itinerary with an explicit child cascade (blocks, day
// groups, bookmarks) so the behavior does not depend on FK configuration.
// Forks keep existing; their parent pointer is cleared.
func (r *itineraryRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM itinerary_blocks
		WHERE day_group_id IN (SELECT id FROM day_groups WHERE itinerary_id = $1)
	`, id); err != nil {
		return fmt.Errorf("delete blocks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM day_groups WHERE itinerary_id = $1`, id); err != nil {
		return fmt.Errorf("delete day groups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks WHERE itinerary_id = $1`, id); err != nil {
		return fmt.Errorf("delete bookmarks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE itineraries SET parent_id = NULL WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("detach forks: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM itineraries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete itinerary: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrItineraryNotFound
	}

	return tx.Commit()
}

// Fork deep-copies src (which must be hydrated) under the new owner. The
// whole copy commits as one unit; a failure partway leaves no partial fork.
func (r *itineraryRepository) Fork(ctx context.Context, src *model.Itinerary, newCreatorID int64, title, slug string) (*model.Itinerary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Tags copied by value so the fork never aliases the original's list.
	tags := make(pq.StringArray, len(src.Tags))
	copy(tags, src.Tags)

	forked := model.Itinerary{
		Title:       title,
		Slug:        slug,
		Description: src.Description,
		Visibility:  src.Visibility,
		CreatorID:   newCreatorID,
		ParentID:    &src.ID,
		Tags:        tags,
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO itineraries (title, slug, description, visibility, creator_id, parent_id, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, forked.Title, forked.Slug, forked.Description, forked.Visibility,
		forked.CreatorID, forked.ParentID, forked.Tags,
	).Scan(&forked.ID, &forked.CreatedAt, &forked.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, model.ErrTitleExists
		}
		return nil, fmt.Errorf("insert forked itinerary: %w", err)
	}

	forked.Days = make([]model.DayGroup, 0, len(src.Days))
	for _, day := range src.Days {
		newDay := model.DayGroup{
			ItineraryID: forked.ID,
			Date:        day.Date,
			Title:       day.Title,
			Position:    day.Position,
		}
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO day_groups (itinerary_id, date, title, position)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, newDay.ItineraryID, newDay.Date, newDay.Title, newDay.Position).Scan(&newDay.ID)
		if err != nil {
			return nil, fmt.Errorf("copy day group %d: %w", day.ID, err)
		}

		newDay.Blocks = make([]model.ItineraryBlock, 0, len(day.Blocks))
		for _, block := range day.Blocks {
			newBlock := model.ItineraryBlock{
				DayGroupID: newDay.ID,
				Position:   block.Position,
				Type:       block.Type,
				Content:    block.Content,
			}
			err = tx.QueryRowxContext(ctx, `
				INSERT INTO itinerary_blocks (day_group_id, position, type, content)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, newBlock.DayGroupID, newBlock.Position, newBlock.Type, newBlock.Content).Scan(&newBlock.ID)
			if err != nil {
				return nil, fmt.Errorf("copy block %d: %w", block.ID, err)
			}
			newDay.Blocks = append(newDay.Blocks, newBlock)
		}
		forked.Days = append(forked.Days, newDay)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &forked, nil
}

func (r *itineraryRepository) GetCreatorID(ctx context.Context, id int64) (int64, error) {
	var creatorID int64
	err := r.db.GetContext(ctx, &creatorID,
		`SELECT creator_id FROM itineraries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrItineraryNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get creator: %w", err)
	}
	return creatorID, nil
}

func (r *itineraryRepository) SlugExists(ctx context.Context, creatorID int64, slug string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM itineraries WHERE creator_id = $1 AND slug = $2)`,
		creatorID, slug)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (r *itineraryRepository) TitleExists(ctx context.Context, creatorID int64, title string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM itineraries WHERE creator_id = $1 AND title = $2)`,
		creatorID, title)
	if err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return exists, nil
}
