package service

import (
	"context"

	"tabi-backend/internal/model"
	"tabi-backend/internal/repository"
)

// SocialService handles the follow and bookmark edges. Both edge types are
// idempotent: adding twice or removing a missing edge succeeds quietly.
type SocialService struct {
	followRepo   repository.FollowRepository
	bookmarkRepo repository.BookmarkRepository
	userRepo     repository.UserRepository
	itins        *ItineraryService
}

func NewSocialService(
	followRepo repository.FollowRepository,
	bookmarkRepo repository.BookmarkRepository,
	userRepo repository.UserRepository,
	itins *ItineraryService,
) *SocialService {
	return &SocialService{
		followRepo:   followRepo,
		bookmarkRepo: bookmarkRepo,
		userRepo:     userRepo,
		itins:        itins,
	}
}

// Follow adds a follow edge toward followeeID.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID int64) error {
	if followerID == followeeID {
		return model.ErrCannotFollowSelf
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return err
	}
	return s.followRepo.Add(ctx, followerID, followeeID)
}

// Unfollow removes a follow edge.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID int64) error {
	return s.followRepo.Remove(ctx, followerID, followeeID)
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followeeID int64) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

// GetFollowers retrieves users who follow the specified user.
func (s *SocialService) GetFollowers(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.GetFollowers(ctx, userID, clampLimit(limit))
}

// GetFollowing retrieves users that the specified user follows.
func (s *SocialService) GetFollowing(ctx context.Context, userID int64, limit int) ([]model.UserSummary, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.followRepo.GetFollowing(ctx, userID, clampLimit(limit))
}

// Bookmark saves an itinerary the caller can view. Private itineraries of
// other users report not-found, same as reading them.
func (s *SocialService) Bookmark(ctx context.Context, caller Caller, itineraryID int64) error {
	if _, err := s.itins.Get(ctx, itineraryID, &caller); err != nil {
		return err
	}
	return s.bookmarkRepo.Add(ctx, caller.UserID, itineraryID)
}

// Unbookmark removes a bookmark edge.
func (s *SocialService) Unbookmark(ctx context.Context, userID, itineraryID int64) error {
	return s.bookmarkRepo.Remove(ctx, userID, itineraryID)
}

func (s *SocialService) IsBookmarked(ctx context.Context, userID, itineraryID int64) (bool, error) {
	return s.bookmarkRepo.Exists(ctx, userID, itineraryID)
}

// ListBookmarks returns the caller's bookmarked itineraries, newest first.
func (s *SocialService) ListBookmarks(ctx context.Context, userID int64) ([]model.Itinerary, error) {
	return s.bookmarkRepo.ListForUser(ctx, userID)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
