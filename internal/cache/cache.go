package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kidspot/kidspot-server/internal/place"
)

// The catalog changes rarely relative to how often it is ranked, so a
// short TTL keeps review aggregates reasonably fresh without a query per
// request.
const defaultTTL = 5 * time.Minute

const catalogKey = "catalog:active"

// Cache wraps a Redis client and provides typed get/set/invalidate for
// the active place catalog.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a Cache with the default TTL.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL}
}

// GetCatalog retrieves the cached active catalog.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetCatalog(ctx context.Context) ([]place.Place, error) {
	val, err := c.client.Get(ctx, catalogKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get catalog: %w", err)
	}

	var places []place.Place
	if err := json.Unmarshal([]byte(val), &places); err != nil {
		return nil, fmt.Errorf("unmarshaling cached catalog: %w", err)
	}

	return places, nil
}

// SetCatalog stores the active catalog with the configured TTL. An empty
// catalog is cached too: "no active places" is a valid answer.
func (c *Cache) SetCatalog(ctx context.Context, places []place.Place) error {
	if places == nil {
		places = []place.Place{}
	}

	b, err := json.Marshal(places)
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}

	if err := c.client.Set(ctx, catalogKey, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set catalog: %w", err)
	}

	return nil
}

// InvalidateCatalog removes the cached catalog, forcing the next read to
// hit the database.
func (c *Cache) InvalidateCatalog(ctx context.Context) error {
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("cache delete catalog: %w", err)
	}
	return nil
}
