package wishlist

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

// ToggleAction reports which way a toggle flipped membership.
type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleRemoved ToggleAction = "removed"
)

// ToggleResult is returned by Toggle.
type ToggleResult struct {
	ProductID uuid.UUID    `json:"product_id"`
	Action    ToggleAction `json:"action"`
}

// WishlistItemDTO is one saved product.
type WishlistItemDTO struct {
	Product catalog.ProductDTO `json:"product"`
	AddedAt time.Time          `json:"added_at"`
}

// WishlistDTO lists the saved products that still exist, newest first.
type WishlistDTO struct {
	UserID uuid.UUID         `json:"user_id"`
	Items  []WishlistItemDTO `json:"items"`
}
