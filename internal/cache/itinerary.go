package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tabi-backend/internal/model"
)

const (
	// ItineraryCachePrefix is the key prefix for itinerary detail caches
	ItineraryCachePrefix = "itinerary:"

	// ItineraryCacheTTL bounds staleness for entries that miss an
	// invalidation (e.g. Redis was briefly unreachable during a write).
	ItineraryCacheTTL = 1 * time.Hour
)

// ItineraryCache is a read-through cache for fully hydrated public
// itineraries (itinerary + days + blocks). Every structural mutation must
// call Invalidate for the affected itinerary.
//
// Using an interface enables testing with mocks and potential future backends.
type ItineraryCache interface {
	// Get returns the cached itinerary, or (nil, nil) on a cache miss.
	Get(ctx context.Context, itineraryID int64) (*model.Itinerary, error)

	// Set stores the hydrated itinerary with the cache TTL.
	Set(ctx context.Context, itin *model.Itinerary) error

	// Invalidate drops the cache entry for an itinerary. Missing keys are
	// not an error.
	Invalidate(ctx context.Context, itineraryID int64) error
}

// RedisItineraryCache implements ItineraryCache with JSON values in Redis.
type RedisItineraryCache struct {
	client *redis.Client
}

// NewItineraryCache creates an ItineraryCache backed by Redis.
func NewItineraryCache(client *redis.Client) ItineraryCache {
	return &RedisItineraryCache{client: client}
}

func itineraryKey(id int64) string {
	return fmt.Sprintf("%s%d", ItineraryCachePrefix, id)
}

func (c *RedisItineraryCache) Get(ctx context.Context, itineraryID int64) (*model.Itinerary, error) {
	raw, err := c.client.Get(ctx, itineraryKey(itineraryID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get itinerary cache: %w", err)
	}

	var itin model.Itinerary
	if err := json.Unmarshal(raw, &itin); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, nil
	}
	return &itin, nil
}

func (c *RedisItineraryCache) Set(ctx context.Context, itin *model.Itinerary) error {
	raw, err := json.Marshal(itin)
	if err != nil {
		return fmt.Errorf("marshal itinerary %d: %w", itin.ID, err)
	}
	if err := c.client.Set(ctx, itineraryKey(itin.ID), raw, ItineraryCacheTTL).Err(); err != nil {
		return fmt.Errorf("set itinerary cache: %w", err)
	}
	return nil
}

func (c *RedisItineraryCache) Invalidate(ctx context.Context, itineraryID int64) error {
	if err := c.client.Del(ctx, itineraryKey(itineraryID)).Err(); err != nil {
		return fmt.Errorf("invalidate itinerary cache: %w", err)
	}
	return nil
}
