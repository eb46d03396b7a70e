package service

import (
	"context"
	"time"

	"tabi-backend/internal/model"
)

// Mocks implement the repository interfaces with per-test function fields.
// Because the services depend on interfaces, each test swaps in exactly the
// behavior it needs and asserts on the recorded calls.

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id int64) (*model.User, error)
	getByUsernameFn    func(ctx context.Context, username string) (*model.User, error)
	getByEmailFn       func(ctx context.Context, email string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	updatePasswordFn   func(ctx context.Context, id int64, passwordHashed string) error

	createCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) List(ctx context.Context, limit, offset int) ([]model.UserSummary, error) {
	return nil, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, id int64, avatarURL, avatarKey string) error {
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHashed string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	return nil
}

type mockItineraryRepository struct {
	createFn        func(ctx context.Context, itin *model.Itinerary, seedDay *model.DayGroup) error
	getHydratedFn   func(ctx context.Context, id int64) (*model.Itinerary, error)
	getBySlugFn     func(ctx context.Context, creatorID int64, slug string) (*model.Itinerary, error)
	updateFn        func(ctx context.Context, id int64, req *model.UpdateItineraryRequest) (*model.Itinerary, error)
	deleteFn        func(ctx context.Context, id int64) error
	forkFn          func(ctx context.Context, src *model.Itinerary, newCreatorID int64, title, slug string) (*model.Itinerary, error)
	getCreatorIDFn  func(ctx context.Context, id int64) (int64, error)
	slugExistsFn    func(ctx context.Context, creatorID int64, slug string) (bool, error)
	titleExistsFn   func(ctx context.Context, creatorID int64, title string) (bool, error)
	listFn          func(ctx context.Context, req *model.ListItinerariesRequest) ([]model.Itinerary, error)
	listByCreatorFn func(ctx context.Context, creatorID int64, includePrivate bool) ([]model.Itinerary, error)

	createCalls []*model.Itinerary
	forkCalls   []string // titles passed to Fork
}

func (m *mockItineraryRepository) Create(ctx context.Context, itin *model.Itinerary, seedDay *model.DayGroup) error {
	m.createCalls = append(m.createCalls, itin)
	if m.createFn != nil {
		return m.createFn(ctx, itin, seedDay)
	}
	return nil
}

func (m *mockItineraryRepository) GetByID(ctx context.Context, id int64) (*model.Itinerary, error) {
	return nil, model.ErrItineraryNotFound
}

func (m *mockItineraryRepository) GetHydrated(ctx context.Context, id int64) (*model.Itinerary, error) {
	if m.getHydratedFn != nil {
		return m.getHydratedFn(ctx, id)
	}
	return nil, model.ErrItineraryNotFound
}

func (m *mockItineraryRepository) GetBySlug(ctx context.Context, creatorID int64, slug string) (*model.Itinerary, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, creatorID, slug)
	}
	return nil, model.ErrItineraryNotFound
}

func (m *mockItineraryRepository) List(ctx context.Context, req *model.ListItinerariesRequest) ([]model.Itinerary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, req)
	}
	return nil, nil
}

func (m *mockItineraryRepository) ListByCreator(ctx context.Context, creatorID int64, includePrivate bool) ([]model.Itinerary, error) {
	if m.listByCreatorFn != nil {
		return m.listByCreatorFn(ctx, creatorID, includePrivate)
	}
	return nil, nil
}

func (m *mockItineraryRepository) Update(ctx context.Context, id int64, req *model.UpdateItineraryRequest) (*model.Itinerary, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return nil, model.ErrItineraryNotFound
}

func (m *mockItineraryRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockItineraryRepository) Fork(ctx context.Context, src *model.Itinerary, newCreatorID int64, title, slug string) (*model.Itinerary, error) {
	m.forkCalls = append(m.forkCalls, title)
	if m.forkFn != nil {
		return m.forkFn(ctx, src, newCreatorID, title, slug)
	}
	return nil, model.ErrItineraryNotFound
}

func (m *mockItineraryRepository) GetCreatorID(ctx context.Context, id int64) (int64, error) {
	if m.getCreatorIDFn != nil {
		return m.getCreatorIDFn(ctx, id)
	}
	return 0, model.ErrItineraryNotFound
}

func (m *mockItineraryRepository) SlugExists(ctx context.Context, creatorID int64, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, creatorID, slug)
	}
	return false, nil
}

func (m *mockItineraryRepository) TitleExists(ctx context.Context, creatorID int64, title string) (bool, error) {
	if m.titleExistsFn != nil {
		return m.titleExistsFn(ctx, creatorID, title)
	}
	return false, nil
}

type mockDayGroupRepository struct {
	listByItineraryFn func(ctx context.Context, itineraryID int64) ([]model.DayGroup, error)
	getByIDFn         func(ctx context.Context, id int64) (*model.DayGroup, error)
	appendFn          func(ctx context.Context, itineraryID int64, date time.Time, title *string) (*model.DayGroup, error)
	updateFn          func(ctx context.Context, id int64, req *model.UpdateDayGroupRequest) (*model.DayGroup, error)
	deleteFn          func(ctx context.Context, id int64) error
	reorderFn         func(ctx context.Context, itineraryID int64, ids []int64) ([]model.DayGroup, error)
}

func (m *mockDayGroupRepository) ListByItinerary(ctx context.Context, itineraryID int64) ([]model.DayGroup, error) {
	if m.listByItineraryFn != nil {
		return m.listByItineraryFn(ctx, itineraryID)
	}
	return nil, nil
}

func (m *mockDayGroupRepository) GetByID(ctx context.Context, id int64) (*model.DayGroup, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrDayGroupNotFound
}

func (m *mockDayGroupRepository) Append(ctx context.Context, itineraryID int64, date time.Time, title *string) (*model.DayGroup, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, itineraryID, date, title)
	}
	return nil, model.ErrItineraryNotFound
}

func (m *mockDayGroupRepository) Update(ctx context.Context, id int64, req *model.UpdateDayGroupRequest) (*model.DayGroup, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, req)
	}
	return nil, model.ErrDayGroupNotFound
}

func (m *mockDayGroupRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockDayGroupRepository) Reorder(ctx context.Context, itineraryID int64, ids []int64) ([]model.DayGroup, error) {
	if m.reorderFn != nil {
		return m.reorderFn(ctx, itineraryID, ids)
	}
	return nil, model.ErrIDSetMismatch
}

type mockBlockRepository struct {
	listByDayGroupFn func(ctx context.Context, dayGroupID int64) ([]model.ItineraryBlock, error)
	getByIDFn        func(ctx context.Context, id int64) (*model.ItineraryBlock, error)
	appendFn         func(ctx context.Context, dayGroupID int64, blockType, content string, position int) (*model.ItineraryBlock, error)
	deleteFn         func(ctx context.Context, id int64) error
}

func (m *mockBlockRepository) ListByDayGroup(ctx context.Context, dayGroupID int64) ([]model.ItineraryBlock, error) {
	if m.listByDayGroupFn != nil {
		return m.listByDayGroupFn(ctx, dayGroupID)
	}
	return nil, nil
}

func (m *mockBlockRepository) GetByID(ctx context.Context, id int64) (*model.ItineraryBlock, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrBlockNotFound
}

func (m *mockBlockRepository) Append(ctx context.Context, dayGroupID int64, blockType, content string, position int) (*model.ItineraryBlock, error) {
	if m.appendFn != nil {
		return m.appendFn(ctx, dayGroupID, blockType, content, position)
	}
	return nil, model.ErrDayGroupNotFound
}

func (m *mockBlockRepository) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockRefreshTokenRepository struct {
	createFn          func(ctx context.Context, token *model.RefreshToken) error
	findByTokenHashFn func(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	revokeFn          func(ctx context.Context, id string, replacedBy *string) error
	deleteExpiredFn   func(ctx context.Context, olderThan time.Duration) (int64, error)

	createdTokens      []*model.RefreshToken
	revokeCalls        []string
	revokeAllCalls     []int64
	deleteAllCalls     []int64
	deleteExpiredCalls []time.Duration
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	m.createdTokens = append(m.createdTokens, token)
	if m.createFn != nil {
		return m.createFn(ctx, token)
	}
	return nil
}

func (m *mockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	if m.findByTokenHashFn != nil {
		return m.findByTokenHashFn(ctx, tokenHash)
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	m.revokeCalls = append(m.revokeCalls, id)
	if m.revokeFn != nil {
		return m.revokeFn(ctx, id, replacedBy)
	}
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revokeAllCalls = append(m.revokeAllCalls, userID)
	return nil
}

func (m *mockRefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	m.deleteAllCalls = append(m.deleteAllCalls, userID)
	return 0, nil
}

func (m *mockRefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.deleteExpiredCalls = append(m.deleteExpiredCalls, olderThan)
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, olderThan)
	}
	return 0, nil
}

// mockItineraryCache records calls; Get always misses unless getFn is set.
type mockItineraryCache struct {
	getFn func(ctx context.Context, itineraryID int64) (*model.Itinerary, error)

	setCalls        []int64
	invalidateCalls []int64
}

func (m *mockItineraryCache) Get(ctx context.Context, itineraryID int64) (*model.Itinerary, error) {
	if m.getFn != nil {
		return m.getFn(ctx, itineraryID)
	}
	return nil, nil
}

func (m *mockItineraryCache) Set(ctx context.Context, itin *model.Itinerary) error {
	m.setCalls = append(m.setCalls, itin.ID)
	return nil
}

func (m *mockItineraryCache) Invalidate(ctx context.Context, itineraryID int64) error {
	m.invalidateCalls = append(m.invalidateCalls, itineraryID)
	return nil
}
