package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mountemart/backend/internal/catalog"
	ordersvc "github.com/mountemart/backend/internal/orders"
	"github.com/mountemart/backend/internal/pricing"
	pkgauth "github.com/mountemart/backend/pkg/auth"
	"github.com/mountemart/backend/pkg/config"
	"github.com/mountemart/backend/pkg/db/models"
	"github.com/mountemart/backend/pkg/enums"
	"github.com/mountemart/backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubOrdersService struct{}

func (stubOrdersService) StartCheckout(context.Context, ordersvc.StartCheckoutInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateShipping(context.Context, uuid.UUID, uuid.UUID, enums.ShippingTier) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ToggleCashback(context.Context, uuid.UUID, bool) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(context.Context, uuid.UUID, uuid.UUID) error {
	panic("unimplemented")
}

func (stubOrdersService) AdminSetStatus(context.Context, uuid.UUID, uuid.UUID, enums.OrderStatus) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) PendingOrder(context.Context, uuid.UUID) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) History(context.Context, uuid.UUID) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) CurrentOrders(context.Context, uuid.UUID) ([]models.Order, error) {
	return []models.Order{}, nil
}

func (stubOrdersService) TrackByCode(context.Context, string, string) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) FindByCode(context.Context, string) (*models.Order, error) {
	panic("unimplemented")
}

type stubCatalogService struct{}

func (stubCatalogService) LoadLineContexts(context.Context, []models.LineItem) ([]pricing.LineContext, error) {
	panic("unimplemented")
}

func (stubCatalogService) ListActiveCombos(context.Context) ([]models.ComboDiscount, error) {
	panic("unimplemented")
}

func (stubCatalogService) GetProduct(context.Context, uuid.UUID) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) TopProducts(context.Context) ([]catalog.TopProduct, error) {
	return []catalog.TopProduct{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
			RefreshTokenDays:  30,
		},
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		stubSessionChecker{},
		Services{
			Orders:  stubOrdersService{},
			Catalog: stubCatalogService{},
		},
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart/", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/history", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order history got %d", resp.Code)
	}
}

func TestAdminGroupRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	customer := httptest.NewRequest(http.MethodGet, "/api/admin/v1/returns", nil)
	customer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, customer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer got %d", resp.Code)
	}

	// Staff clears the role gate and fails later on the missing status filter.
	staff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/returns", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for staff without status got %d", resp.Code)
	}
}

func TestPublicTopProducts(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/products/top", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for top products got %d", resp.Code)
	}
}

func TestTrackOrderRejectsBadPayload(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/orders/track", strings.NewReader(`{"code":""}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad track payload got %d", resp.Code)
	}
}

func TestRefreshRejectsBadPayload(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty refresh payload got %d", resp.Code)
	}
}
