package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const defaultMaxLockRetries = 3

// errCartVanished marks a cart deleted by checkout between ensure and lock.
var errCartVanished = errors.New("cart vanished before lock")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	GetProduct(ctx context.Context, id uuid.UUID) (catalog.ProductDTO, error)
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]catalog.ProductDTO, error)
}

// Service exposes the cart store.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (CartDTO, error)
	SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (CartDTO, error)
}

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo           CartRepository
	Tx             txRunner
	Products       productLookup
	Logger         *logger.Logger
	MaxLockRetries int
}

type service struct {
	repo       CartRepository
	tx         txRunner
	products   productLookup
	logg       *logger.Logger
	maxRetries int
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	retries := params.MaxLockRetries
	if retries <= 0 {
		retries = defaultMaxLockRetries
	}
	return &service{
		repo:       params.Repo,
		tx:         params.Tx,
		products:   params.Products,
		logg:       params.Logger,
		maxRetries: retries,
	}, nil
}

// AddItem increments the product's line, creating the cart and line lazily.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (CartDTO, error) {
	if err := validateIDs(userID, productID); err != nil {
		return CartDTO{}, err
	}
	if quantity <= 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if quantity > pricing.MaxQuantity {
		return CartDTO{}, quantityTooLarge(quantity)
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return CartDTO{}, err
	}

	var err error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.EnsureCart(ctx, userID); err != nil {
				return err
			}
			cart, err := repo.LockByUser(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errCartVanished
				}
				return err
			}
			current, err := lineQuantity(ctx, repo, cart.ID, productID)
			if err != nil {
				return err
			}
			if current+quantity > pricing.MaxQuantity {
				return quantityTooLarge(current + quantity)
			}
			return repo.IncrementItem(ctx, cart.ID, productID, quantity)
		})
		if !errors.Is(err, errCartVanished) {
			break
		}
	}

	switch {
	case errors.Is(err, errCartVanished):
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart changed concurrently; retry")
	case err != nil:
		return CartDTO{}, pkgerrors.FromStore(err, "add cart item")
	}
	return s.GetCart(ctx, userID)
}

// SetItemQuantity replaces the line's quantity; zero removes the line.
func (s *service) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (CartDTO, error) {
	if err := validateIDs(userID, productID); err != nil {
		return CartDTO{}, err
	}
	if quantity < 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if quantity > pricing.MaxQuantity {
		return CartDTO{}, quantityTooLarge(quantity)
	}

	err := s.mutateLocked(ctx, userID, func(repo CartRepository, cartID uuid.UUID) (int64, error) {
		if quantity == 0 {
			return repo.DeleteItem(ctx, cartID, productID)
		}
		return repo.SetItemQuantity(ctx, cartID, productID, quantity)
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem deletes the product's line. The cart row itself is kept.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (CartDTO, error) {
	if err := validateIDs(userID, productID); err != nil {
		return CartDTO{}, err
	}

	err := s.mutateLocked(ctx, userID, func(repo CartRepository, cartID uuid.UUID) (int64, error) {
		return repo.DeleteItem(ctx, cartID, productID)
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.GetCart(ctx, userID)
}

func quantityTooLarge(quantity int) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", pricing.MaxQuantity)).
		WithDetails(map[string]any{"quantity": quantity})
}

// lineQuantity returns the product's current quantity in the cart, or zero.
func lineQuantity(ctx context.Context, repo CartRepository, cartID, productID uuid.UUID) (int, error) {
	items, err := repo.ListItems(ctx, cartID)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if item.ProductID == productID {
			return item.Quantity, nil
		}
	}
	return 0, nil
}

// mutateLocked runs fn under the cart row lock. Zero affected rows means the
// line does not exist.
func (s *service) mutateLocked(ctx context.Context, userID uuid.UUID, fn func(repo CartRepository, cartID uuid.UUID) (int64, error)) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.LockByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "cart not found")
			}
			return pkgerrors.FromStore(err, "lock cart")
		}
		affected, err := fn(repo, cart.ID)
		if err != nil {
			return pkgerrors.FromStore(err, "update cart item")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil
	})
	return pkgerrors.FromStore(err, "commit cart update")
}

// GetCart resolves every line against the catalog. Lines whose product has
// disappeared are left out of the view.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	cart, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(userID), nil
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.GetProducts(ctx, ids)
	if err != nil {
		return CartDTO{}, err
	}

	view := emptyCart(userID)
	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			lineCtx := s.logg.WithFields(ctx, map[string]any{
				"user_id":    userID.String(),
				"product_id": item.ProductID.String(),
			})
			s.logg.Warn(lineCtx, "cart.line_unresolved")
			continue
		}
		line := pricing.LineTotal(product.SalePrice, item.Quantity)
		view.Items = append(view.Items, CartLineDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   product,
			LineTotal: line,
		})
		view.TotalAmount += item.Quantity
		view.Subtotal = view.Subtotal.Add(line)
	}
	return view, nil
}

func validateIDs(userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return nil
}
