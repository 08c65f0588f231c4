package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service converts a user's cart into a persisted order.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (PlaceOrderResult, error)
}

// PlaceOrderResult is returned once the order and cart deletion have committed.
type PlaceOrderResult struct {
	OrderID         uuid.UUID         `json:"order_id"`
	Status          enums.OrderStatus `json:"status"`
	TotalAmount     int               `json:"total_amount"`
	TotalOrderValue decimal.Decimal   `json:"total_order_value"`
	Order           orders.OrderDTO   `json:"order"`
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Tx       txRunner
	Carts    cart.CartRepository
	Orders   orders.Repository
	Products *catalog.Repository
	Outbox   outboxPublisher
	Metrics  *metrics.OrderMetrics
	Logger   *logger.Logger
}

type service struct {
	tx       txRunner
	carts    cart.CartRepository
	orders   orders.Repository
	products *catalog.Repository
	outbox   outboxPublisher
	metrics  *metrics.OrderMetrics
	logg     *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       params.Tx,
		carts:    params.Carts,
		orders:   params.Orders,
		products: params.Products,
		outbox:   params.Outbox,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (PlaceOrderResult, error) {
	started := time.Now()
	result, err := s.placeOrder(ctx, userID, input)
	if err != nil {
		s.metrics.ObservePlacement(metrics.OutcomeFailure, time.Since(started))
		return PlaceOrderResult{}, err
	}
	s.metrics.ObservePlacement(metrics.OutcomeSuccess, time.Since(started))
	s.metrics.IncPlaced(string(input.PaymentMethod))

	logCtx := s.logg.WithOrderID(ctx, result.OrderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"user_id":           userID.String(),
		"total_amount":      result.TotalAmount,
		"total_order_value": result.TotalOrderValue.StringFixed(2),
	})
	s.logg.Info(logCtx, "order placed")
	return result, nil
}

func (s *service) placeOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (PlaceOrderResult, error) {
	if userID == uuid.Nil {
		return PlaceOrderResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	input, err := input.validate()
	if err != nil {
		return PlaceOrderResult{}, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		record, err := cartRepo.LockByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
			}
			return pkgerrors.FromStore(err, "lock cart")
		}
		items, err := cartRepo.ListItems(ctx, record.ID)
		if err != nil {
			return pkgerrors.FromStore(err, "load cart items")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		products, err := s.resolveProducts(ctx, tx, items)
		if err != nil {
			return err
		}

		var totals pricing.Totals
		order, totals = buildOrder(userID, input, items, products)
		if !totals.Fits() {
			return pkgerrors.New(pkgerrors.CodeValidation, "order value exceeds the maximum").
				WithDetails(map[string]any{"total_order_value": totals.TotalValue.String(), "max": pricing.MaxAmount.String()})
		}
		if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.FromStore(err, "create order")
		}
		if err := cartRepo.DeleteCart(ctx, record.ID); err != nil {
			return pkgerrors.FromStore(err, "delete cart")
		}
		if err := s.outbox.Emit(ctx, tx, orderCreatedEvent(order)); err != nil {
			return pkgerrors.FromStore(err, "emit order created")
		}
		return nil
	})
	if err != nil {
		return PlaceOrderResult{}, pkgerrors.FromStore(err, "commit order placement")
	}

	dto := orders.FromModel(*order)
	return PlaceOrderResult{
		OrderID:         order.ID,
		Status:          order.Status,
		TotalAmount:     order.TotalAmount,
		TotalOrderValue: order.TotalOrderValue,
		Order:           dto,
	}, nil
}

// resolveProducts reads prices through the transaction so the totals match
// the catalog state the order commits against.
func (s *service) resolveProducts(ctx context.Context, tx *gorm.DB, items []models.CartItem) (map[uuid.UUID]models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	rows, err := s.products.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.FromStore(err, "load products")
	}
	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, item := range items {
		if _, ok := byID[item.ProductID]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidProduct, "cart references a product that no longer exists").
				WithDetails(map[string]any{"product_id": item.ProductID})
		}
	}
	return byID, nil
}

func buildOrder(userID uuid.UUID, input PlaceOrderInput, items []models.CartItem, products map[uuid.UUID]models.Product) (*models.Order, pricing.Totals) {
	orderID := uuid.New()
	lines := make([]pricing.Line, 0, len(items))
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		product := products[item.ProductID]
		lines = append(lines, pricing.Line{UnitPrice: product.SalePrice, Quantity: item.Quantity})
		orderItems = append(orderItems, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.SalePrice,
			LineTotal: pricing.LineTotal(product.SalePrice, item.Quantity),
		})
	}
	totals := pricing.Compute(lines, input.ShippingFee)

	now := time.Now().UTC()
	return &models.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          enums.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingMethod:  input.ShippingMethod,
		ShippingInfo:    input.ShippingInfo,
		ShippingFee:     input.ShippingFee,
		TotalAmount:     totals.TotalAmount,
		TotalOrderValue: totals.TotalValue,
		Items:           orderItems,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, totals
}

func orderCreatedEvent(order *models.Order) outbox.DomainEvent {
	productIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		productIDs = append(productIDs, item.ProductID)
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID},
		OccurredAt:    order.CreatedAt,
		Data: payloads.OrderCreatedEvent{
			OrderID:         order.ID,
			UserID:          order.UserID,
			TotalAmount:     order.TotalAmount,
			TotalOrderValue: order.TotalOrderValue,
			ShippingFee:     order.ShippingFee,
			PaymentMethod:   order.PaymentMethod,
			ShippingMethod:  order.ShippingMethod,
			ProductIDs:      productIDs,
		},
	}
}
