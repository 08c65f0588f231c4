package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ProductDTO is the product shape joined into carts and wishlists.
type ProductDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Stock     int             `json:"stock"`
	Images    []string        `json:"images"`
}

// FromModel maps a product row to its DTO.
func FromModel(p models.Product) ProductDTO {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return ProductDTO{
		ID:        p.ID,
		Name:      p.Name,
		SKU:       p.SKU,
		Price:     p.Price,
		SalePrice: p.SalePrice,
		Stock:     p.Stock,
		Images:    images,
	}
}
