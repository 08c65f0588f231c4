package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.ProductDTO, error)
}

// Service exposes wishlist behavior.
type Service interface {
	Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error)
	GetWishlist(ctx context.Context, userID uuid.UUID) (WishlistDTO, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo        *Repository
	Tx          txRunner
	ProductRepo *catalog.Repository
	Products    productLookup
	Logger      *logger.Logger
}

type service struct {
	repo        *Repository
	tx          txRunner
	productRepo *catalog.Repository
	products    productLookup
	logg        *logger.Logger
}

// NewService builds a wishlist service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        params.Repo,
		tx:          params.Tx,
		productRepo: params.ProductRepo,
		products:    params.Products,
		logg:        params.Logger,
	}, nil
}

// Toggle flips membership under the wishlist row lock, so concurrent toggles
// from one user apply one after the other.
func (s *service) Toggle(ctx context.Context, userID, productID uuid.UUID) (ToggleResult, error) {
	if userID == uuid.Nil {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	result := ToggleResult{ProductID: productID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureWishlist(ctx, userID); err != nil {
			return pkgerrors.FromStore(err, "ensure wishlist")
		}
		wishlist, err := repo.LockByUser(ctx, userID)
		if err != nil {
			return pkgerrors.FromStore(err, "lock wishlist")
		}

		removed, err := repo.RemoveItem(ctx, wishlist.ID, productID)
		if err != nil {
			return pkgerrors.FromStore(err, "remove wishlist item")
		}
		if removed > 0 {
			result.Action = ToggleRemoved
			return nil
		}

		if _, err := s.productRepo.WithTx(tx).FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": productID})
			}
			return pkgerrors.FromStore(err, "load product")
		}
		if err := repo.AddItem(ctx, wishlist.ID, productID); err != nil {
			if errors.Is(err, ErrDuplicateItem) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "wishlist changed concurrently; retry")
			}
			return pkgerrors.FromStore(err, "add wishlist item")
		}
		result.Action = ToggleAdded
		return nil
	})
	if err != nil {
		return ToggleResult{}, pkgerrors.FromStore(err, "commit wishlist toggle")
	}
	return result, nil
}

func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID) (WishlistDTO, error) {
	if userID == uuid.Nil {
		return WishlistDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	view := WishlistDTO{UserID: userID, Items: []WishlistItemDTO{}}

	wishlist, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return view, nil
		}
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}
	items, err := s.repo.ListItems(ctx, wishlist.ID)
	if err != nil {
		return WishlistDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist items")
	}
	if len(items) == 0 {
		return view, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return WishlistDTO{}, err
	}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			logCtx := s.logg.WithField(ctx, "product_id", item.ProductID.String())
			s.logg.Debug(logCtx, "wishlist.product_dropped")
			continue
		}
		view.Items = append(view.Items, WishlistItemDTO{Product: product, AddedAt: item.CreatedAt})
	}
	return view, nil
}
