package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCartService struct{}

func (stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (cart.CartDTO, error) {
	return cart.CartDTO{UserID: userID, Items: []cart.CartLineDTO{}}, nil
}

func (stubCartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (cart.CartDTO, error) {
	return cart.CartDTO{UserID: userID}, nil
}

func (stubCartService) SetItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (cart.CartDTO, error) {
	return cart.CartDTO{UserID: userID}, nil
}

func (stubCartService) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (cart.CartDTO, error) {
	return cart.CartDTO{UserID: userID}, nil
}

type countingCheckoutService struct {
	calls int
}

func (s *countingCheckoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, input checkout.PlaceOrderInput) (checkout.PlaceOrderResult, error) {
	s.calls++
	return checkout.PlaceOrderResult{OrderID: uuid.New(), Status: enums.OrderStatusPending}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Get(ctx context.Context, actor orders.Actor, id uuid.UUID) (orders.OrderDTO, error) {
	return orders.OrderDTO{ID: id, UserID: actor.UserID}, nil
}

func (stubOrdersService) List(ctx context.Context, actor orders.Actor, params pagination.Params) (orders.OrderList, error) {
	return orders.OrderList{Orders: []orders.OrderDTO{}}, nil
}

func (stubOrdersService) ListAll(ctx context.Context, actor orders.Actor, params pagination.Params, status *enums.OrderStatus) (orders.OrderList, error) {
	return orders.OrderList{Orders: []orders.OrderDTO{}}, nil
}

func (stubOrdersService) Transition(ctx context.Context, actor orders.Actor, id uuid.UUID, target enums.OrderStatus) (orders.OrderDTO, error) {
	return orders.OrderDTO{ID: id, Status: target}, nil
}

func (stubOrdersService) Cancel(ctx context.Context, actor orders.Actor, id uuid.UUID) (orders.OrderDTO, error) {
	return orders.OrderDTO{ID: id, Status: enums.OrderStatusCancelled}, nil
}

type stubWishlistService struct{}

func (stubWishlistService) Toggle(ctx context.Context, userID, productID uuid.UUID) (wishlist.ToggleResult, error) {
	return wishlist.ToggleResult{ProductID: productID, Action: wishlist.ToggleAdded}, nil
}

func (stubWishlistService) GetWishlist(ctx context.Context, userID uuid.UUID) (wishlist.WishlistDTO, error) {
	return wishlist.WishlistDTO{UserID: userID, Items: []wishlist.WishlistItemDTO{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:  config.AppConfig{Env: "test", Port: "0"},
		HTTP: config.HTTPConfig{RequestTimeout: 5 * time.Second},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func newTestRouter(t *testing.T, cfg *config.Config, redisClient *redis.Client, checkoutSvc checkout.Service) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	metrics.NewOrderMetrics(reg).IncPlaced("paypal")
	if checkoutSvc == nil {
		checkoutSvc = &countingCheckoutService{}
	}
	return NewRouter(
		cfg,
		testLogger(),
		stubPinger{},
		redisClient,
		reg,
		stubCartService{},
		checkoutSvc,
		stubOrdersService{},
		stubWishlistService{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil, nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp := serve(router, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestMetricsRouteExposesRegistry(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil, nil)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "storefront_orders_placed_total") {
		t.Fatalf("expected order metrics in exposition, got %s", resp.Body.String())
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig(), nil, nil)

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCustomerRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil, nil)
	token := buildToken(t, cfg, enums.UserRoleCustomer)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/v1/cart", "", http.StatusOK},
		{http.MethodPost, "/api/v1/cart/items", `{"product_id":"` + uuid.NewString() + `"}`, http.StatusOK},
		{http.MethodPut, "/api/v1/cart/items/" + uuid.NewString(), `{"quantity":2}`, http.StatusOK},
		{http.MethodDelete, "/api/v1/cart/items/" + uuid.NewString(), "", http.StatusOK},
		{http.MethodGet, "/api/v1/orders", "", http.StatusOK},
		{http.MethodGet, "/api/v1/orders/" + uuid.NewString(), "", http.StatusOK},
		{http.MethodGet, "/api/v1/wishlist", "", http.StatusOK},
		{http.MethodPost, "/api/v1/wishlist/toggle", `{"product_id":"` + uuid.NewString() + `"}`, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		req.Header.Set("Authorization", "Bearer "+token)
		resp := serve(router, req)
		if resp.Code != tc.want {
			t.Fatalf("%s %s: expected %d got %d (%s)", tc.method, tc.path, tc.want, resp.Code, resp.Body.String())
		}
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	if resp := serve(router, req); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=pending", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestPlaceOrderRequiresIdempotencyKeyAndReplays(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	cfg := testConfig()
	checkoutSvc := &countingCheckoutService{}
	router := newTestRouter(t, cfg, redis.Wrap(raw), checkoutSvc)
	token := buildToken(t, cfg, enums.UserRoleCustomer)

	body := `{"shipping_info":{"name":"Ana","phone":"1","city":"c","address":"a","address_details":"d"},"shipping_method":"free_shipping","shipping_fee":"0"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := serve(router, req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}

	for i := 0; i < 2; i++ {
		req = httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "order-1")
		if resp := serve(router, req); resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
	}
	if checkoutSvc.calls != 1 {
		t.Fatalf("expected a single placement, got %d", checkoutSvc.calls)
	}
}

func TestAdminTransitionRoute(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg, nil, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/admin/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"shipping"}`))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
