package model

import (
	"errors"
	"time"
)

// Follow is a user-to-user edge. Insert and delete are idempotent.
type Follow struct {
	FollowerID int64     `db:"follower_id" json:"follower_id"`
	FolloweeID int64     `db:"followee_id" json:"followee_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Bookmark is a user-to-itinerary edge. Insert and delete are idempotent.
type Bookmark struct {
	UserID      int64     `db:"user_id" json:"user_id"`
	ItineraryID int64     `db:"itinerary_id" json:"itinerary_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
)
