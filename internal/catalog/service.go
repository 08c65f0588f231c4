package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service is the read-only ProductCatalog used by carts and wishlists.
type Service interface {
	GetProduct(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	// GetProducts resolves the ids that still exist. Unknown ids are omitted.
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductDTO, error)
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type service struct {
	repo  productReader
	cache Cache
	logg  *logger.Logger
	sfg   singleflight.Group
}

// NewService builds the catalog service. cache may be nil, in which case every
// read goes to the database.
func NewService(repo productReader, cache Cache, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	if id == uuid.Nil {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.warnCache(ctx, "catalog.cache_get_failed", err)
		}
	}

	v, err, _ := s.sfg.Do("product:"+id.String(), func() (any, error) {
		product, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found").
					WithDetails(map[string]any{"product_id": id.String()})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		dto := FromModel(*product)
		s.store(ctx, dto)
		return dto, nil
	})
	if err != nil {
		return ProductDTO{}, err
	}
	return v.(ProductDTO), nil
}

func (s *service) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]ProductDTO, error) {
	ids = uniqueIDs(ids)
	out := make(map[uuid.UUID]ProductDTO, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	missing := ids
	if s.cache != nil {
		cached, err := s.cache.GetMany(ctx, ids)
		if err != nil {
			s.warnCache(ctx, "catalog.cache_get_failed", err)
		} else {
			missing = missing[:0:0]
			for _, id := range ids {
				if product, ok := cached[id]; ok {
					out[id] = product
					continue
				}
				missing = append(missing, id)
			}
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	v, err, _ := s.sfg.Do("products:"+joinIDs(missing), func() (any, error) {
		rows, err := s.repo.FindByIDs(ctx, missing)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		loaded := make([]ProductDTO, 0, len(rows))
		for _, row := range rows {
			dto := FromModel(row)
			s.store(ctx, dto)
			loaded = append(loaded, dto)
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	for _, product := range v.([]ProductDTO) {
		out[product.ID] = product
	}
	return out, nil
}

func (s *service) store(ctx context.Context, product ProductDTO) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, product); err != nil {
		s.warnCache(ctx, "catalog.cache_set_failed", err)
	}
}

func (s *service) warnCache(ctx context.Context, msg string, err error) {
	ctx = s.logg.WithField(ctx, "error", err.Error())
	s.logg.Warn(ctx, msg)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
