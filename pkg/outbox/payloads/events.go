package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is emitted in the placement transaction.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID            `json:"order_id"`
	UserID          uuid.UUID            `json:"user_id"`
	TotalAmount     int                  `json:"total_amount"`
	TotalOrderValue decimal.Decimal      `json:"total_order_value"`
	ShippingFee     decimal.Decimal      `json:"shipping_fee"`
	PaymentMethod   enums.PaymentMethod  `json:"payment_method"`
	ShippingMethod  enums.ShippingMethod `json:"shipping_method"`
	ProductIDs      []uuid.UUID          `json:"product_ids"`
}

// OrderStateChangedEvent reports a status edge taken by staff.
type OrderStateChangedEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	UserID    uuid.UUID         `json:"user_id"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
	ChangedAt time.Time         `json:"changed_at"`
}

// OrderCanceledEvent is emitted whenever a pending order is cancelled.
type OrderCanceledEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	UserID     uuid.UUID `json:"user_id"`
	CanceledAt time.Time `json:"canceled_at"`
}
