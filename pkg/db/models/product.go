package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is the catalog listing read by carts, checkout and wishlists.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	SKU          string          `gorm:"column:sku;not null"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	SalePrice    decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	Stock        int             `gorm:"column:stock;not null;default:0"`
	SoldQuantity int             `gorm:"column:sold_quantity;not null;default:0"`
	Images       pq.StringArray  `gorm:"column:images;type:text[]"`
	CategoryID   *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
