package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func TestAdminOrdersListStatusFilter(t *testing.T) {
	var gotStatus *enums.OrderStatus
	svc := stubOrdersService{listAllFn: func(ctx context.Context, actor orders.Actor, params pagination.Params, status *enums.OrderStatus) (orders.OrderList, error) {
		if !actor.IsAdmin() {
			t.Fatalf("expected admin actor, got %+v", actor)
		}
		gotStatus = status
		return orders.OrderList{Orders: []orders.OrderDTO{}}, nil
	}}

	resp := httptest.NewRecorder()
	AdminOrdersList(svc, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/?status=shipping", nil, uuid.New(), enums.UserRoleAdmin))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotStatus == nil || *gotStatus != enums.OrderStatusShipping {
		t.Fatalf("expected shipping filter, got %v", gotStatus)
	}

	gotStatus = nil
	resp = httptest.NewRecorder()
	AdminOrdersList(svc, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/", nil, uuid.New(), enums.UserRoleAdmin))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotStatus != nil {
		t.Fatalf("expected no filter, got %v", *gotStatus)
	}
}

func TestAdminOrdersListRejectsUnknownStatus(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminOrdersList(stubOrdersService{}, nil).ServeHTTP(resp, authedRequest(http.MethodGet, "/?status=lost", nil, uuid.New(), enums.UserRoleAdmin))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrdersTransition(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrdersService{transitionFn: func(ctx context.Context, actor orders.Actor, id uuid.UUID, target enums.OrderStatus) (orders.OrderDTO, error) {
		if id != orderID {
			t.Fatalf("unexpected order %s", id)
		}
		if target != enums.OrderStatusShipping {
			return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition not allowed")
		}
		return orders.OrderDTO{ID: id, Status: target}, nil
	}}

	req := authedRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"shipping"}`), uuid.New(), enums.UserRoleAdmin)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	AdminOrdersTransition(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var dto orders.OrderDTO
	decodeData(t, resp, &dto)
	if dto.Status != enums.OrderStatusShipping {
		t.Fatalf("unexpected status %s", dto.Status)
	}

	req = authedRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"completed"}`), uuid.New(), enums.UserRoleAdmin)
	req = withURLParam(req, "orderId", orderID.String())
	resp = httptest.NewRecorder()
	AdminOrdersTransition(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAdminOrdersTransitionRequiresStatus(t *testing.T) {
	req := authedRequest(http.MethodPatch, "/", strings.NewReader(`{}`), uuid.New(), enums.UserRoleAdmin)
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	AdminOrdersTransition(stubOrdersService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
