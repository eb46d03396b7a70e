package service

import (
	"context"
	"fmt"
	"strings"

	"tabi-backend/internal/model"
	"tabi-backend/internal/repository"
)

// BlockService handles business logic for content blocks inside day groups.
type BlockService struct {
	repo    repository.BlockRepository
	dayRepo repository.DayGroupRepository
	itins   *ItineraryService
}

func NewBlockService(repo repository.BlockRepository, dayRepo repository.DayGroupRepository, itins *ItineraryService) *BlockService {
	return &BlockService{repo: repo, dayRepo: dayRepo, itins: itins}
}

// List returns the day group's blocks in position order, subject to the
// owning itinerary's visibility gate.
func (s *BlockService) List(ctx context.Context, itineraryID, dayGroupID int64, viewer *Caller) ([]model.ItineraryBlock, error) {
	group, err := s.dayRepo.GetByID(ctx, dayGroupID)
	if err != nil {
		return nil, err
	}
	if group.ItineraryID != itineraryID {
		return nil, model.ErrDayGroupNotFound
	}
	if _, err := s.itins.Get(ctx, itineraryID, viewer); err != nil {
		return nil, err
	}
	return s.repo.ListByDayGroup(ctx, dayGroupID)
}

// Create appends a block to the day group. The type is normalized (the
// legacy "photo" value becomes "image"); a client-supplied order of zero
// means append at the end. A duplicate explicit order surfaces as an
// ordering conflict for the client to retry.
func (s *BlockService) Create(ctx context.Context, itineraryID, dayGroupID int64, caller Caller, req *model.CreateBlockRequest) (*model.ItineraryBlock, error) {
	if err := s.authorize(ctx, itineraryID, dayGroupID, caller); err != nil {
		return nil, err
	}

	blockType, ok := model.NormalizeBlockType(req.Type)
	if !ok {
		return nil, model.ErrInvalidBlockType
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}
	if req.Order < 0 {
		return nil, fmt.Errorf("order must be positive")
	}

	block, err := s.repo.Append(ctx, dayGroupID, blockType, req.Content, req.Order)
	if err != nil {
		return nil, err
	}
	s.itins.Invalidate(ctx, itineraryID)
	return block, nil
}

// Delete removes a block. Remaining blocks keep their positions.
func (s *BlockService) Delete(ctx context.Context, itineraryID, dayGroupID, blockID int64, caller Caller) error {
	if err := s.authorize(ctx, itineraryID, dayGroupID, caller); err != nil {
		return err
	}

	block, err := s.repo.GetByID(ctx, blockID)
	if err != nil {
		return err
	}
	if block.DayGroupID != dayGroupID {
		return model.ErrBlockNotFound
	}

	if err := s.repo.Delete(ctx, blockID); err != nil {
		return err
	}
	s.itins.Invalidate(ctx, itineraryID)
	return nil
}

// authorize walks the ownership chain: block's day group must belong to the
// itinerary in the URL, and the caller must own that itinerary.
func (s *BlockService) authorize(ctx context.Context, itineraryID, dayGroupID int64, caller Caller) error {
	group, err := s.dayRepo.GetByID(ctx, dayGroupID)
	if err != nil {
		return err
	}
	if group.ItineraryID != itineraryID {
		return model.ErrDayGroupNotFound
	}
	return s.itins.RequireOwner(ctx, itineraryID, caller)
}
