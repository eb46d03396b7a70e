package service

import (
	"context"
	"errors"
	"testing"

	"tabi-backend/internal/model"
)

func newBlockService(blockRepo *mockBlockRepository, dayRepo *mockDayGroupRepository, itinRepo *mockItineraryRepository, itinCache *mockItineraryCache) *BlockService {
	return NewBlockService(blockRepo, dayRepo, NewItineraryService(itinRepo, itinCache))
}

func dayInItinerary(itineraryID int64) *mockDayGroupRepository {
	return &mockDayGroupRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.DayGroup, error) {
			return &model.DayGroup{ID: id, ItineraryID: itineraryID}, nil
		},
	}
}

func TestBlockService_Create_NormalizesType(t *testing.T) {
	tests := []struct {
		name     string
		rawType  string
		wantType string
	}{
		{name: "text", rawType: "text", wantType: model.BlockTypeText},
		{name: "uppercase", rawType: "TEXT", wantType: model.BlockTypeText},
		{name: "legacy photo", rawType: "photo", wantType: model.BlockTypeImage},
		{name: "map", rawType: "map", wantType: model.BlockTypeMap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotType string
			blockRepo := &mockBlockRepository{
				appendFn: func(ctx context.Context, dayGroupID int64, blockType, content string, position int) (*model.ItineraryBlock, error) {
					gotType = blockType
					return &model.ItineraryBlock{ID: 1, DayGroupID: dayGroupID, Type: blockType, Content: content, Position: 1}, nil
				},
			}
			svc := newBlockService(blockRepo, dayInItinerary(1), ownedItineraryRepo(7), &mockItineraryCache{})

			_, err := svc.Create(context.Background(), 1, 5, Caller{UserID: 7}, &model.CreateBlockRequest{
				Type:    tt.rawType,
				Content: "hello",
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotType != tt.wantType {
				t.Errorf("stored type = %q, want %q", gotType, tt.wantType)
			}
		})
	}
}

func TestBlockService_Create_InvalidType(t *testing.T) {
	svc := newBlockService(&mockBlockRepository{}, dayInItinerary(1), ownedItineraryRepo(7), &mockItineraryCache{})

	_, err := svc.Create(context.Background(), 1, 5, Caller{UserID: 7}, &model.CreateBlockRequest{
		Type:    "video",
		Content: "hello",
	})
	if !errors.Is(err, model.ErrInvalidBlockType) {
		t.Errorf("error = %v, want %v", err, model.ErrInvalidBlockType)
	}
}

func TestBlockService_Create_OrderConflict(t *testing.T) {
	blockRepo := &mockBlockRepository{
		appendFn: func(ctx context.Context, dayGroupID int64, blockType, content string, position int) (*model.ItineraryBlock, error) {
			return nil, model.ErrOrderConflict
		},
	}
	mockCache := &mockItineraryCache{}
	svc := newBlockService(blockRepo, dayInItinerary(1), ownedItineraryRepo(7), mockCache)

	_, err := svc.Create(context.Background(), 1, 5, Caller{UserID: 7}, &model.CreateBlockRequest{
		Type:    "text",
		Content: "hello",
		Order:   2,
	})
	if !errors.Is(err, model.ErrOrderConflict) {
		t.Errorf("error = %v, want %v", err, model.ErrOrderConflict)
	}
	if len(mockCache.invalidateCalls) != 0 {
		t.Error("cache should not be invalidated when the insert fails")
	}
}

func TestBlockService_Create_WrongDayGroup(t *testing.T) {
	// The day group belongs to itinerary 2, but the URL names itinerary 1.
	svc := newBlockService(&mockBlockRepository{}, dayInItinerary(2), ownedItineraryRepo(7), &mockItineraryCache{})

	_, err := svc.Create(context.Background(), 1, 5, Caller{UserID: 7}, &model.CreateBlockRequest{
		Type:    "text",
		Content: "hello",
	})
	if !errors.Is(err, model.ErrDayGroupNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrDayGroupNotFound)
	}
}

func TestBlockService_Delete(t *testing.T) {
	mockCache := &mockItineraryCache{}
	blockRepo := &mockBlockRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.ItineraryBlock, error) {
			return &model.ItineraryBlock{ID: id, DayGroupID: 5}, nil
		},
	}
	svc := newBlockService(blockRepo, dayInItinerary(1), ownedItineraryRepo(7), mockCache)

	if err := svc.Delete(context.Background(), 1, 5, 9, Caller{UserID: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mockCache.invalidateCalls) != 1 {
		t.Errorf("invalidate calls = %v, want one call", mockCache.invalidateCalls)
	}
}

func TestBlockService_Delete_WrongDayGroup(t *testing.T) {
	blockRepo := &mockBlockRepository{
		getByIDFn: func(ctx context.Context, id int64) (*model.ItineraryBlock, error) {
			return &model.ItineraryBlock{ID: id, DayGroupID: 6}, nil
		},
	}
	svc := newBlockService(blockRepo, dayInItinerary(1), ownedItineraryRepo(7), &mockItineraryCache{})

	err := svc.Delete(context.Background(), 1, 5, 9, Caller{UserID: 7})
	if !errors.Is(err, model.ErrBlockNotFound) {
		t.Errorf("error = %v, want %v", err, model.ErrBlockNotFound)
	}
}
