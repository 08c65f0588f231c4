package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/db/sqlitetest"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type fixture struct {
	conn  *gorm.DB
	mr    *miniredis.Miniredis
	redis *pkgredis.Client
	svc   Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := sqlitetest.Open(t)
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	client := pkgredis.Wrap(raw)
	cache, err := NewRedisCache(client, 10*time.Minute, time.Minute)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), cache, logger.Nop())
	require.NoError(t, err)
	return fixture{conn: conn, mr: mr, redis: client, svc: svc}
}

func TestGetProductReadsThroughCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := sqlitetest.SeedProduct(t, f.conn, "lamp", "19.99")

	got, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "lamp", got.Name)
	assert.Equal(t, "19.99", got.SalePrice.String())

	key := f.redis.ProductKey(product.ID.String())
	require.True(t, f.mr.Exists(key), "expected product to be cached")
	ttl := f.mr.TTL(key)
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 11*time.Minute)

	// served from cache once the row is gone
	require.NoError(t, f.conn.Delete(&models.Product{}, "id = ?", product.ID).Error)
	cached, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, cached.ID)
}

func TestGetProductNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetProduct(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.GetProduct(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestGetProductsOmitsUnknownIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := sqlitetest.SeedProduct(t, f.conn, "a", "10")
	b := sqlitetest.SeedProduct(t, f.conn, "b", "20")

	// warm one entry so the lookup mixes cache and database
	_, err := f.svc.GetProduct(ctx, a.ID)
	require.NoError(t, err)

	unknown := uuid.New()
	got, err := f.svc.GetProducts(ctx, []uuid.UUID{a.ID, b.ID, unknown, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[a.ID].Name)
	assert.Equal(t, "20", got[b.ID].SalePrice.String())
	_, ok := got[unknown]
	assert.False(t, ok)
	assert.True(t, f.mr.Exists(f.redis.ProductKey(b.ID.String())))
}

func TestCacheOutageFallsBackToDatabase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := sqlitetest.SeedProduct(t, f.conn, "desk", "150")

	f.mr.Close()

	got, err := f.svc.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "desk", got.Name)

	many, err := f.svc.GetProducts(ctx, []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Len(t, many, 1)
}

func TestServiceWithoutCache(t *testing.T) {
	conn := sqlitetest.Open(t)
	svc, err := NewService(NewRepository(conn), nil, logger.Nop())
	require.NoError(t, err)

	product := sqlitetest.SeedProduct(t, conn, "chair", "45.50")
	got, err := svc.GetProducts(context.Background(), []uuid.UUID{product.ID})
	require.NoError(t, err)
	assert.Equal(t, "45.5", got[product.ID].SalePrice.String())
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, logger.Nop())
	assert.Error(t, err)
	_, err = NewRedisCache(nil, time.Minute, 0)
	assert.Error(t, err)
}
