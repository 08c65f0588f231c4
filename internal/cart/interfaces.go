package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service
// and by checkout, which consumes the cart inside its own transaction.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	EnsureCart(ctx context.Context, userID uuid.UUID) error
	LockByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	ListItems(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	IncrementItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, productID uuid.UUID, quantity int) (int64, error)
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (int64, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}
