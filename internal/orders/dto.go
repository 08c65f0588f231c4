package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderDTO is the API view of a persisted order.
type OrderDTO struct {
	ID              uuid.UUID            `json:"id"`
	UserID          uuid.UUID            `json:"user_id"`
	Status          enums.OrderStatus    `json:"status"`
	PaymentMethod   enums.PaymentMethod  `json:"payment_method"`
	ShippingMethod  enums.ShippingMethod `json:"shipping_method"`
	ShippingInfo    types.ShippingInfo   `json:"shipping_info"`
	ShippingFee     decimal.Decimal      `json:"shipping_fee"`
	TotalAmount     int                  `json:"total_amount"`
	TotalOrderValue decimal.Decimal      `json:"total_order_value"`
	Items           []OrderItemDTO       `json:"items"`
	NextStatuses    []enums.OrderStatus  `json:"next_statuses"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	CancelledAt     *time.Time           `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time           `json:"completed_at,omitempty"`
}

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// FromModel maps the persisted order into its API view.
func FromModel(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		Status:          order.Status,
		PaymentMethod:   order.PaymentMethod,
		ShippingMethod:  order.ShippingMethod,
		ShippingInfo:    order.ShippingInfo,
		ShippingFee:     order.ShippingFee,
		TotalAmount:     order.TotalAmount,
		TotalOrderValue: order.TotalOrderValue,
		Items:           items,
		NextStatuses:    NextStatuses(order.Status),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		CancelledAt:     order.CancelledAt,
		CompletedAt:     order.CompletedAt,
	}
}
