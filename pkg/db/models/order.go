package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Order is the permanent record produced by checkout.
type Order struct {
	ID              uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:orders_user_created_idx"`
	Status          enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod   enums.PaymentMethod  `gorm:"column:payment_method;type:payment_method;not null"`
	ShippingMethod  enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method;not null"`
	ShippingInfo    types.ShippingInfo   `gorm:"column:shipping_info;type:jsonb;serializer:json;not null"`
	ShippingFee     decimal.Decimal      `gorm:"column:shipping_fee;type:numeric(12,2);not null"`
	TotalAmount     int                  `gorm:"column:total_amount;not null"`
	TotalOrderValue decimal.Decimal      `gorm:"column:total_order_value;type:numeric(12,2);not null"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CancelledAt     *time.Time           `gorm:"column:cancelled_at"`
	CompletedAt     *time.Time           `gorm:"column:completed_at"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime;index:orders_user_created_idx"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
