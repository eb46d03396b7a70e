package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Visibility values for an itinerary.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Itinerary is a shareable travel plan composed of ordered day groups.
// ParentID records fork lineage; only the up-pointer is stored.
type Itinerary struct {
	ID          int64          `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Slug        string         `db:"slug" json:"slug"`
	Description string         `db:"description" json:"description"`
	Visibility  string         `db:"visibility" json:"visibility"`
	CreatorID   int64          `db:"creator_id" json:"creator_id"`
	ParentID    *int64         `db:"parent_id" json:"parent_id,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	// Joined fields (not columns of the itineraries table)
	Days []DayGroup `json:"days,omitempty"`
}

// DayGroup is a calendar-dated subdivision of an itinerary. Position is
// 1-based; dense only right after a reorder.
type DayGroup struct {
	ID          int64     `db:"id" json:"id"`
	ItineraryID int64     `db:"itinerary_id" json:"itinerary_id"`
	Date        time.Time `db:"date" json:"date"`
	Title       *string   `db:"title" json:"title"`
	Position    int       `db:"position" json:"order"`

	Blocks []ItineraryBlock `json:"blocks,omitempty"`
}

// ItineraryBlock is one piece of content inside a day group. Content is
// opaque: free text, an image URL, or "lat,lon" for map blocks.
type ItineraryBlock struct {
	ID         int64  `db:"id" json:"id"`
	DayGroupID int64  `db:"day_group_id" json:"day_group_id"`
	Position   int    `db:"position" json:"order"`
	Type       string `db:"type" json:"type"`
	Content    string `db:"content" json:"content"`
}

// Canonical block types.
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image"
	BlockTypeMap   = "map"
)

// NormalizeBlockType lowercases the client-supplied type and folds the
// legacy "photo" value into "image". Returns false for unknown types.
func NormalizeBlockType(raw string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "photo" {
		t = BlockTypeImage
	}
	switch t {
	case BlockTypeText, BlockTypeImage, BlockTypeMap:
		return t, true
	}
	return "", false
}

// CreateItineraryRequest is the request body for creating an itinerary.
type CreateItineraryRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Visibility  string   `json:"visibility"`
	Tags        []string `json:"tags"`
}

// UpdateItineraryRequest carries partial updates; nil fields stay untouched.
type UpdateItineraryRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Visibility  *string   `json:"visibility"`
	Tags        *[]string `json:"tags"`
}

// ListItinerariesRequest holds the public listing filters.
type ListItinerariesRequest struct {
	Tags   []string
	Search string
	Limit  int
	Offset int
}

// CreateDayGroupRequest is the request body for appending a day group.
// Position is assigned server-side; a supplied value is ignored.
type CreateDayGroupRequest struct {
	Date  time.Time `json:"date"`
	Title *string   `json:"title"`
}

// UpdateDayGroupRequest mutates date/title only; ordering is untouched.
type UpdateDayGroupRequest struct {
	Date  *time.Time `json:"date"`
	Title *string    `json:"title"`
}

// ReorderDayGroupsRequest is the full new sequence of day-group IDs.
type ReorderDayGroupsRequest struct {
	IDs []int64 `json:"ids"`
}

// UnmarshalJSON accepts the body either as a bare JSON array of IDs or as
// an object with an "ids" field.
func (r *ReorderDayGroupsRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(data, &r.IDs)
	}
	var wrapper struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	r.IDs = wrapper.IDs
	return nil
}

// CreateBlockRequest is the request body for appending a block. Order is
// assigned server-side when omitted (zero).
type CreateBlockRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Order   int    `json:"order"`
}

var (
	ErrItineraryNotFound = errors.New("itinerary not found")
	ErrDayGroupNotFound  = errors.New("day group not found")
	ErrBlockNotFound     = errors.New("block not found")
	ErrTitleExists       = errors.New("itinerary title already exists for this user")
	ErrSlugExhausted     = errors.New("could not find a free slug")
	ErrOrderConflict     = errors.New("ordering conflict")
	ErrIDSetMismatch     = errors.New("provided IDs do not match existing day groups")
	ErrInvalidBlockType  = errors.New("invalid block type")
	ErrInvalidVisibility = errors.New("invalid visibility")
)
