package repository

import (
	"context"
	"time"

	"tabi-backend/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]model.UserSummary, error)
	UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error)
	UpdateAvatar(ctx context.Context, id int64, avatarURL, avatarKey string) error
	UpdatePassword(ctx context.Context, id int64, passwordHashed string) error
	MarkEmailVerified(ctx context.Context, id int64) error
}

type ItineraryRepository interface {
	// Create inserts the itinerary and its seed day group in one transaction.
	Create(ctx context.Context, itin *model.Itinerary, seedDay *model.DayGroup) error
	GetByID(ctx context.Context, id int64) (*model.Itinerary, error)
	// GetHydrated returns the itinerary with days (and their blocks) in order.
	GetHydrated(ctx context.Context, id int64) (*model.Itinerary, error)
	GetBySlug(ctx context.Context, creatorID int64, slug string) (*model.Itinerary, error)
	List(ctx context.Context, req *model.ListItinerariesRequest) ([]model.Itinerary, error)
	ListByCreator(ctx context.Context, creatorID int64, includePrivate bool) ([]model.Itinerary, error)
	Update(ctx context.Context, id int64, req *model.UpdateItineraryRequest) (*model.Itinerary, error)
	// Delete removes the itinerary and, explicitly, its day groups and blocks.
	Delete(ctx context.Context, id int64) error
	// Fork deep-copies a hydrated source itinerary under the given title,
	// slug, and owner as a single all-or-nothing transaction.
	Fork(ctx context.Context, src *model.Itinerary, newCreatorID int64, title, slug string) (*model.Itinerary, error)
	GetCreatorID(ctx context.Context, id int64) (int64, error)
	SlugExists(ctx context.Context, creatorID int64, slug string) (bool, error)
	TitleExists(ctx context.Context, creatorID int64, title string) (bool, error)
}

type DayGroupRepository interface {
	ListByItinerary(ctx context.Context, itineraryID int64) ([]model.DayGroup, error)
	GetByID(ctx context.Context, id int64) (*model.DayGroup, error)
	// Append inserts a day group at max(position)+1, serialized per
	// itinerary with an advisory lock.
	Append(ctx context.Context, itineraryID int64, date time.Time, title *string) (*model.DayGroup, error)
	Update(ctx context.Context, id int64, req *model.UpdateDayGroupRequest) (*model.DayGroup, error)
	// Delete removes the day group and its blocks; remaining groups are not
	// renumbered.
	Delete(ctx context.Context, id int64) error
	// Reorder assigns position 1..N following ids and returns the groups in
	// the new order. The id set must exactly match the itinerary's groups.
	Reorder(ctx context.Context, itineraryID int64, ids []int64) ([]model.DayGroup, error)
}

type BlockRepository interface {
	ListByDayGroup(ctx context.Context, dayGroupID int64) ([]model.ItineraryBlock, error)
	GetByID(ctx context.Context, id int64) (*model.ItineraryBlock, error)
	// Append inserts a block; position 0 means assign max(position)+1.
	Append(ctx context.Context, dayGroupID int64, blockType, content string, position int) (*model.ItineraryBlock, error)
	Delete(ctx context.Context, id int64) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	// DeleteAllForUser hard-deletes every token row (used after password
	// change; refresh tokens carry no other referential data).
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type BookmarkRepository interface {
	// Add is idempotent; a duplicate insert is swallowed.
	Add(ctx context.Context, userID, itineraryID int64) error
	// Remove is idempotent; a missing row is a no-op.
	Remove(ctx context.Context, userID, itineraryID int64) error
	Exists(ctx context.Context, userID, itineraryID int64) (bool, error)
	ListForUser(ctx context.Context, userID int64) ([]model.Itinerary, error)
}

type FollowRepository interface {
	// Add is idempotent; a duplicate insert is swallowed.
	Add(ctx context.Context, followerID, followeeID int64) error
	// Remove is idempotent; a missing row is a no-op.
	Remove(ctx context.Context, followerID, followeeID int64) error
	Exists(ctx context.Context, followerID, followeeID int64) (bool, error)
	GetFollowers(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
	GetFollowing(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error)
}
