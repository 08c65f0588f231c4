package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
)

// CartDTO is the resolved cart returned by every cart operation.
type CartDTO struct {
	UserID      uuid.UUID       `json:"user_id"`
	Items       []CartLineDTO   `json:"items"`
	TotalAmount int             `json:"total_amount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// CartLineDTO joins a cart line with the current product data.
type CartLineDTO struct {
	ProductID uuid.UUID          `json:"product_id"`
	Quantity  int                `json:"quantity"`
	Product   catalog.ProductDTO `json:"product"`
	LineTotal decimal.Decimal    `json:"line_total"`
}

func emptyCart(userID uuid.UUID) CartDTO {
	return CartDTO{UserID: userID, Items: []CartLineDTO{}, Subtotal: decimal.Zero}
}
