package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Actor is the authenticated caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the actor may act on any order.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) canAccess(order *models.Order) bool {
	return a.IsAdmin() || (a.UserID != uuid.Nil && order.UserID == a.UserID)
}

func (a Actor) ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}

// Service owns order reads and the status state machine.
type Service interface {
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderDTO, error)
	List(ctx context.Context, actor Actor, params pagination.Params) (OrderList, error)
	ListAll(ctx context.Context, actor Actor, params pagination.Params, status *enums.OrderStatus) (OrderList, error)
	Transition(ctx context.Context, actor Actor, orderID uuid.UUID, target enums.OrderStatus) (OrderDTO, error)
	Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderDTO, error)
}

// ServiceParams groups dependencies for the orders service.
type ServiceParams struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxPublisher
	Metrics *metrics.OrderMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics *metrics.OrderMetrics
	logg    *logger.Logger
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderDTO, error) {
	if orderID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderDTO{}, orderNotFound(orderID)
		}
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.canAccess(order) {
		return OrderDTO{}, orderNotFound(orderID)
	}
	return FromModel(*order), nil
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params) (OrderList, error) {
	if actor.UserID == uuid.Nil {
		return OrderList{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID := actor.UserID
	return s.list(ctx, ListQuery{UserID: &userID}, params)
}

func (s *service) ListAll(ctx context.Context, actor Actor, params pagination.Params, status *enums.OrderStatus) (OrderList, error) {
	if !actor.IsAdmin() {
		return OrderList{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if status != nil && !status.IsValid() {
		return OrderList{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
			WithDetails(map[string]any{"status": *status})
	}
	return s.list(ctx, ListQuery{Status: status}, params)
}

func (s *service) list(ctx context.Context, query ListQuery, params pagination.Params) (OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return OrderList{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor
	query.Limit = pagination.LimitWithBuffer(params.Limit)

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return OrderList{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	page, next := pagination.Window(rows, params.Limit, func(order models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: order.CreatedAt, ID: order.ID}
	})

	out := OrderList{Orders: make([]OrderDTO, 0, len(page)), NextCursor: next}
	for _, order := range page {
		out.Orders = append(out.Orders, FromModel(order))
	}
	return out, nil
}

func (s *service) Transition(ctx context.Context, actor Actor, orderID uuid.UUID, target enums.OrderStatus) (OrderDTO, error) {
	if !actor.IsAdmin() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !target.IsValid() {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid target status").
			WithDetails(map[string]any{"status": target})
	}
	return s.apply(ctx, actor, orderID, target, false)
}

// Cancel is open to the order's owner and to admins, and only from pending.
func (s *service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID) (OrderDTO, error) {
	if actor.UserID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return s.apply(ctx, actor, orderID, enums.OrderStatusCancelled, true)
}

func (s *service) apply(ctx context.Context, actor Actor, orderID uuid.UUID, target enums.OrderStatus, cancel bool) (OrderDTO, error) {
	if orderID == uuid.Nil {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var (
		from    enums.OrderStatus
		updated *models.Order
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound(orderID)
			}
			return pkgerrors.FromStore(err, "lock order")
		}
		if !actor.canAccess(order) {
			return orderNotFound(orderID)
		}

		from = order.Status
		if cancel && from != enums.OrderStatusPending {
			return invalidTransition(from, target)
		}
		if !CanTransition(from, target) {
			return invalidTransition(from, target)
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateStatus(ctx, order.ID, from, target, now)
		if err != nil {
			return pkgerrors.FromStore(err, "update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "order changed concurrently; retry")
		}

		if err := s.outbox.Emit(ctx, tx, transitionEvent(actor, order, target, now)); err != nil {
			return pkgerrors.FromStore(err, "emit order event")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.FromStore(err, "reload order")
		}
		return nil
	})
	if err != nil {
		return OrderDTO{}, pkgerrors.FromStore(err, "commit order transition")
	}

	s.metrics.IncTransition(string(from), string(target))
	logCtx := s.logg.WithOrderID(ctx, orderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"from": from,
		"to":   target,
	})
	s.logg.Info(logCtx, "order status changed")

	return FromModel(*updated), nil
}

func transitionEvent(actor Actor, order *models.Order, target enums.OrderStatus, at time.Time) outbox.DomainEvent {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderStateChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor.ref(),
		OccurredAt:    at,
		Data: payloads.OrderStateChangedEvent{
			OrderID:   order.ID,
			UserID:    order.UserID,
			From:      order.Status,
			To:        target,
			ChangedAt: at,
		},
	}
	if target == enums.OrderStatusCancelled {
		event.EventType = enums.EventOrderCanceled
		event.Data = payloads.OrderCanceledEvent{
			OrderID:    order.ID,
			UserID:     order.UserID,
			CanceledAt: at,
		}
	}
	return event
}

func orderNotFound(orderID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
		WithDetails(map[string]any{"order_id": orderID})
}
