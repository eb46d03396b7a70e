package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"tabi-backend/internal/cache"
	"tabi-backend/internal/model"
	"tabi-backend/internal/repository"
)

// slugAttempts bounds the uniquification loop for slugs and fork titles.
const slugAttempts = 1000

// Caller identifies the authenticated user performing an operation. Admin
// callers pass ownership guards on any itinerary.
type Caller struct {
	UserID int64
	Admin  bool
}

// ItineraryService handles business logic for itineraries, including slug
// assignment, fork deep copies, and the hydrated-read cache.
type ItineraryService struct {
	repo  repository.ItineraryRepository
	cache cache.ItineraryCache
}

func NewItineraryService(repo repository.ItineraryRepository, itinCache cache.ItineraryCache) *ItineraryService {
	return &ItineraryService{repo: repo, cache: itinCache}
}

// Create inserts a new itinerary seeded with a single "Day 1" group.
func (s *ItineraryService) Create(ctx context.Context, creatorID int64, req *model.CreateItineraryRequest) (*model.Itinerary, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}
	if visibility != model.VisibilityPublic && visibility != model.VisibilityPrivate {
		return nil, model.ErrInvalidVisibility
	}

	newSlug, err := s.uniqueSlug(ctx, creatorID, title)
	if err != nil {
		return nil, err
	}

	itin := &model.Itinerary{
		Title:       title,
		Slug:        newSlug,
		Description: req.Description,
		Visibility:  visibility,
		CreatorID:   creatorID,
		Tags:        req.Tags,
	}
	if itin.Tags == nil {
		itin.Tags = []string{}
	}

	seedTitle := "Day 1"
	seedDay := &model.DayGroup{
		Date:     time.Now().UTC().Truncate(24 * time.Hour),
		Title:    &seedTitle,
		Position: 1,
	}

	if err := s.repo.Create(ctx, itin, seedDay); err != nil {
		return nil, err
	}

	itin.Days = []model.DayGroup{*seedDay}
	return itin, nil
}

// Get returns the fully hydrated itinerary. Private itineraries are visible
// only to their creator (or an admin); everyone else sees not-found.
func (s *ItineraryService) Get(ctx context.Context, id int64, viewer *Caller) (*model.Itinerary, error) {
	itin, err := s.cache.Get(ctx, id)
	if err != nil {
		// A cache failure degrades to a database read.
		log.Printf("itinerary cache get failed for %d: %v", id, err)
		itin = nil
	}

	if itin == nil {
		itin, err = s.repo.GetHydrated(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, itin); err != nil {
			log.Printf("itinerary cache set failed for %d: %v", id, err)
		}
	}

	if !s.canView(itin, viewer) {
		return nil, model.ErrItineraryNotFound
	}
	return itin, nil
}

// GetBySlug resolves an itinerary by creator and slug, then applies the same
// visibility gate as Get.
func (s *ItineraryService) GetBySlug(ctx context.Context, creatorID int64, itinSlug string, viewer *Caller) (*model.Itinerary, error) {
	itin, err := s.repo.GetBySlug(ctx, creatorID, itinSlug)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, itin.ID, viewer)
}

// List returns public itineraries matching the filters.
func (s *ItineraryService) List(ctx context.Context, req *model.ListItinerariesRequest) ([]model.Itinerary, error) {
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}
	return s.repo.List(ctx, req)
}

// ListByCreator returns a user's itineraries. Private ones are included only
// when the viewer is that user or an admin.
func (s *ItineraryService) ListByCreator(ctx context.Context, creatorID int64, viewer *Caller) ([]model.Itinerary, error) {
	includePrivate := viewer != nil && (viewer.UserID == creatorID || viewer.Admin)
	return s.repo.ListByCreator(ctx, creatorID, includePrivate)
}

// Update applies a partial update. Renaming the title does not change the
// slug, so shared links stay stable.
func (s *ItineraryService) Update(ctx context.Context, id int64, caller Caller, req *model.UpdateItineraryRequest) (*model.Itinerary, error) {
	if err := s.requireOwner(ctx, id, caller); err != nil {
		return nil, err
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	if req.Visibility != nil &&
		*req.Visibility != model.VisibilityPublic && *req.Visibility != model.VisibilityPrivate {
		return nil, model.ErrInvalidVisibility
	}

	itin, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return itin, nil
}

// Delete removes the itinerary together with its day groups and blocks.
// Forks of it survive with their lineage pointer cleared.
func (s *ItineraryService) Delete(ctx context.Context, id int64, caller Caller) error {
	if err := s.requireOwner(ctx, id, caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Fork deep-copies an itinerary the caller can view into the caller's own
// collection. The copy is private, records the source as its parent, and
// gets a "(forked)" title uniquified among the caller's itineraries.
func (s *ItineraryService) Fork(ctx context.Context, srcID int64, caller Caller) (*model.Itinerary, error) {
	src, err := s.repo.GetHydrated(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if !s.canView(src, &caller) {
		return nil, model.ErrItineraryNotFound
	}

	title, err := s.uniqueForkTitle(ctx, caller.UserID, src.Title)
	if err != nil {
		return nil, err
	}
	newSlug, err := s.uniqueSlug(ctx, caller.UserID, title)
	if err != nil {
		return nil, err
	}

	return s.repo.Fork(ctx, src, caller.UserID, title, newSlug)
}

// Invalidate drops the hydrated cache entry; day group and block services
// call this after every structural mutation.
func (s *ItineraryService) Invalidate(ctx context.Context, itineraryID int64) {
	s.invalidate(ctx, itineraryID)
}

// RequireOwner exposes the ownership guard to sibling services working on
// nested resources.
func (s *ItineraryService) RequireOwner(ctx context.Context, itineraryID int64, caller Caller) error {
	return s.requireOwner(ctx, itineraryID, caller)
}

func (s *ItineraryService) canView(itin *model.Itinerary, viewer *Caller) bool {
	if itin.Visibility == model.VisibilityPublic {
		return true
	}
	return viewer != nil && (viewer.UserID == itin.CreatorID || viewer.Admin)
}

// requireOwner checks the caller owns the itinerary. A mismatch reports
// not-found rather than forbidden, so probing for private IDs learns nothing.
func (s *ItineraryService) requireOwner(ctx context.Context, itineraryID int64, caller Caller) error {
	creatorID, err := s.repo.GetCreatorID(ctx, itineraryID)
	if err != nil {
		return err
	}
	if creatorID != caller.UserID && !caller.Admin {
		return model.ErrItineraryNotFound
	}
	return nil
}

func (s *ItineraryService) invalidate(ctx context.Context, itineraryID int64) {
	if err := s.cache.Invalidate(ctx, itineraryID); err != nil {
		log.Printf("itinerary cache invalidate failed for %d: %v", itineraryID, err)
	}
}

// uniqueSlug slugifies the title and appends -1, -2, ... until the slug is
// free within the creator's namespace.
func (s *ItineraryService) uniqueSlug(ctx context.Context, creatorID int64, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "itinerary"
	}

	candidate := base
	for i := 1; i <= slugAttempts; i++ {
		exists, err := s.repo.SlugExists(ctx, creatorID, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", model.ErrSlugExhausted
}

// uniqueForkTitle appends "(forked)", then "(forked 2)", "(forked 3)", ...
// until the title is free within the new owner's collection.
func (s *ItineraryService) uniqueForkTitle(ctx context.Context, creatorID int64, srcTitle string) (string, error) {
	candidate := srcTitle + " (forked)"
	for i := 2; i <= slugAttempts; i++ {
		exists, err := s.repo.TitleExists(ctx, creatorID, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check title: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s (forked %d)", srcTitle, i)
	}
	return "", model.ErrSlugExhausted
}
