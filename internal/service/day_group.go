package service

import (
	"context"
	"time"

	"tabi-backend/internal/model"
	"tabi-backend/internal/repository"
)

// DayGroupService handles business logic for day groups: append-only
// positioning, date/title edits, and full-sequence reorders.
type DayGroupService struct {
	repo  repository.DayGroupRepository
	itins *ItineraryService
}

func NewDayGroupService(repo repository.DayGroupRepository, itins *ItineraryService) *DayGroupService {
	return &DayGroupService{repo: repo, itins: itins}
}

// List returns the itinerary's day groups in position order, subject to the
// itinerary's visibility gate. The result is never nil: an itinerary whose
// last day group was deleted lists as an empty array.
func (s *DayGroupService) List(ctx context.Context, itineraryID int64, viewer *Caller) ([]model.DayGroup, error) {
	itin, err := s.itins.Get(ctx, itineraryID, viewer)
	if err != nil {
		return nil, err
	}
	if itin.Days == nil {
		// A cached entry drops an empty day list on the JSON round trip;
		// read the authoritative list from the database.
		return s.repo.ListByItinerary(ctx, itineraryID)
	}
	return itin.Days, nil
}

// Create appends a day group at the end of the itinerary.
func (s *DayGroupService) Create(ctx context.Context, itineraryID int64, caller Caller, req *model.CreateDayGroupRequest) (*model.DayGroup, error) {
	if err := s.itins.RequireOwner(ctx, itineraryID, caller); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	group, err := s.repo.Append(ctx, itineraryID, date, req.Title)
	if err != nil {
		return nil, err
	}
	s.itins.Invalidate(ctx, itineraryID)
	return group, nil
}

// Update mutates a day group's date or title. Its position never changes
// here; that is Reorder's job.
func (s *DayGroupService) Update(ctx context.Context, itineraryID, dayGroupID int64, caller Caller, req *model.UpdateDayGroupRequest) (*model.DayGroup, error) {
	if _, err := s.authorize(ctx, itineraryID, dayGroupID, caller); err != nil {
		return nil, err
	}

	group, err := s.repo.Update(ctx, dayGroupID, req)
	if err != nil {
		return nil, err
	}
	s.itins.Invalidate(ctx, itineraryID)
	return group, nil
}

// Delete removes a day group and all of its blocks. Remaining groups keep
// their positions; relative order is preserved without renumbering.
func (s *DayGroupService) Delete(ctx context.Context, itineraryID, dayGroupID int64, caller Caller) error {
	if _, err := s.authorize(ctx, itineraryID, dayGroupID, caller); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, dayGroupID); err != nil {
		return err
	}
	s.itins.Invalidate(ctx, itineraryID)
	return nil
}

// Reorder replaces the itinerary's day sequence with ids, assigning dense
// positions 1..N. The id set must match the existing groups exactly.
func (s *DayGroupService) Reorder(ctx context.Context, itineraryID int64, caller Caller, ids []int64) ([]model.DayGroup, error) {
	if err := s.itins.RequireOwner(ctx, itineraryID, caller); err != nil {
		return nil, err
	}

	groups, err := s.repo.Reorder(ctx, itineraryID, ids)
	if err != nil {
		return nil, err
	}
	s.itins.Invalidate(ctx, itineraryID)
	return groups, nil
}

// authorize loads the day group, checks it belongs to the itinerary in the
// URL, and checks the caller owns that itinerary. A group reached through
// the wrong itinerary reports not-found.
func (s *DayGroupService) authorize(ctx context.Context, itineraryID, dayGroupID int64, caller Caller) (*model.DayGroup, error) {
	group, err := s.repo.GetByID(ctx, dayGroupID)
	if err != nil {
		return nil, err
	}
	if group.ItineraryID != itineraryID {
		return nil, model.ErrDayGroupNotFound
	}
	if err := s.itins.RequireOwner(ctx, itineraryID, caller); err != nil {
		return nil, err
	}
	return group, nil
}
