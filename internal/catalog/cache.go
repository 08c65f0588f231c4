package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// ErrCacheMiss is returned by Cache.Get when the product is not cached.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores product snapshots for the read paths.
type Cache interface {
	Get(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductDTO, error)
	Set(ctx context.Context, product ProductDTO) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	MGet(ctx context.Context, keys ...string) ([]string, []bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ProductKey(productID string) string
}

// RedisCache keeps products as JSON under sf:product:<id>.
type RedisCache struct {
	store   redisStore
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCache builds a product cache. Each entry lives baseTTL plus a
// random slice of jitter so entries written together do not expire together.
func NewRedisCache(store redisStore, baseTTL, jitter time.Duration) (*RedisCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis store required")
	}
	if baseTTL <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive")
	}
	if jitter < 0 {
		jitter = 0
	}
	return &RedisCache{store: store, baseTTL: baseTTL, jitter: jitter}, nil
}

func (c *RedisCache) Get(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	raw, err := c.store.Get(ctx, c.store.ProductKey(id.String()))
	if pkgredis.IsMiss(err) {
		return ProductDTO{}, ErrCacheMiss
	}
	if err != nil {
		return ProductDTO{}, fmt.Errorf("redis get failed: %w", err)
	}
	var product ProductDTO
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		return ProductDTO{}, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return product, nil
}

// GetMany returns the cached subset of ids. Undecodable entries count as misses.
func (c *RedisCache) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductDTO, error) {
	out := make(map[uuid.UUID]ProductDTO, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.store.ProductKey(id.String())
	}
	values, found, err := c.store.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("redis mget failed: %w", err)
	}
	for i, id := range ids {
		if !found[i] {
			continue
		}
		var product ProductDTO
		if err := json.Unmarshal([]byte(values[i]), &product); err != nil {
			continue
		}
		out[id] = product
	}
	return out, nil
}

func (c *RedisCache) Set(ctx context.Context, product ProductDTO) error {
	payload, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}
	if err := c.store.Set(ctx, c.store.ProductKey(product.ID.String()), string(payload), c.ttl()); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisCache) ttl() time.Duration {
	if c.jitter <= 0 {
		return c.baseTTL
	}
	return c.baseTTL + time.Duration(rand.Int63n(int64(c.jitter)))
}
