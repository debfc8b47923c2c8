package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
)

const secret = "router-test-secret"

type stubCatalog struct{}

func (stubCatalog) CreateScreening(_ context.Context, in model.NewScreening) (*model.Screening, error) {
	return &model.Screening{ID: 1, Room: in.Room, Active: true}, nil
}
func (stubCatalog) GetScreening(_ context.Context, id uint64) (*model.Screening, error) {
	return &model.Screening{ID: id}, nil
}
func (stubCatalog) ListScreenings(context.Context, repository.ScreeningFilter) ([]model.Screening, error) {
	return []model.Screening{}, nil
}
func (stubCatalog) Deactivate(context.Context, uint64) error { return nil }

type stubInventory struct{}

func (stubInventory) ListForScreening(context.Context, uint64) ([]model.Seat, error) {
	return []model.Seat{}, nil
}
func (stubInventory) Availability(_ context.Context, id uint64) (model.SeatAvailability, error) {
	return model.SeatAvailability{ScreeningID: id}, nil
}

type stubBooking struct{}

func (stubBooking) CreateOrder(_ context.Context, cart model.Cart) (*model.PlacedOrder, error) {
	return &model.PlacedOrder{Order: model.Order{ID: 1, UserID: cart.UserID}}, nil
}
func (stubBooking) CancelOrder(context.Context, uint64, *uint64) error { return nil }
func (stubBooking) CompleteOrder(context.Context, uint64) error        { return nil }
func (stubBooking) RefundOrder(context.Context, uint64) error          { return nil }

type stubOrders struct{}

func (stubOrders) GetOrder(_ context.Context, id uint64, _ *uint64) (*model.OrderDetail, error) {
	return &model.OrderDetail{Order: model.Order{ID: id}}, nil
}
func (stubOrders) ListOrders(context.Context, uint64) ([]model.OrderDetail, error) {
	return []model.OrderDetail{}, nil
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newCachedServer(t, config.CacheConfig{Enabled: false}, nil)
}

func newCachedServer(t *testing.T, cacheCfg config.CacheConfig, rdb *redis.Client) *echo.Echo {
	t.Helper()
	log := zap.NewNop()
	e := echo.New()
	s := handler.NewScreeningHandler(stubCatalog{}, stubInventory{}, log)
	o := handler.NewOrderHandler(stubBooking{}, stubOrders{}, log)

	RegisterRoutes(e, nil)
	RegisterPublic(e, s, cacheCfg, rdb)
	RegisterCustomer(e, o, secret, config.RateLimitConfig{Enabled: false}, cacheCfg, rdb, log)
	RegisterAdmin(e, s, o, secret, cacheCfg, rdb)
	return e
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub, "role": role}).SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func do(e *echo.Echo, method, path, auth, body string) int {
	return record(e, method, path, auth, body).Code
}

func record(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutesNeedNoToken(t *testing.T) {
	e := newServer(t)
	for _, path := range []string{"/healthz", "/v1/screenings", "/v1/screenings/3", "/v1/screenings/3/seats", "/v1/screenings/3/availability"} {
		assert.Equal(t, http.StatusOK, do(e, http.MethodGet, path, "", ""), path)
	}
}

func TestCustomerRoutesRequireToken(t *testing.T) {
	e := newServer(t)
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodGet, "/v1/my-orders", "", ""))
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/v1/my-orders", token(t, "4", "CUSTOMER"), ""))
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/v1/my-orders", token(t, "4", "GUEST"), ""))

	body := `{"payment_method":"card","items":[{"type":"movie","screening_id":3,"quantity":1,"unit_price":"9"}]}`
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/v1/orders", token(t, "4", "CUSTOMER"), body))
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	e := newServer(t)
	customer := token(t, "4", "CUSTOMER")
	admin := token(t, "1", "ADMIN")

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/v1/admin/orders/12/refund", customer, ""))
	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/v1/admin/orders/12/refund", admin, ""))
	assert.Equal(t, http.StatusNoContent, do(e, http.MethodPost, "/v1/admin/screenings/3/deactivate", admin, ""))
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/v1/admin/screenings", admin, `{"room":"Sala 1"}`))
}

func TestOrderWritesPurgeCachedScreenings(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newCachedServer(t, config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "cache:test", MaxBodyBytes: 1 << 20}, rdb)

	customer := token(t, "4", "CUSTOMER")
	admin := token(t, "1", "ADMIN")
	body := `{"payment_method":"card","items":[{"type":"movie","screening_id":3,"quantity":1,"unit_price":"9"}]}`

	writes := []struct {
		name, path, auth, body string
	}{
		{"place order", "/v1/orders", customer, body},
		{"cancel order", "/v1/orders/12/cancel", customer, ""},
		{"admin cancel", "/v1/admin/orders/12/cancel", admin, ""},
		{"refund", "/v1/admin/orders/12/refund", admin, ""},
	}
	for _, w := range writes {
		t.Run(w.name, func(t *testing.T) {
			record(e, http.MethodGet, "/v1/screenings/3", "", "")
			assert.Equal(t, "HIT", record(e, http.MethodGet, "/v1/screenings/3", "", "").Header().Get("X-Cache"))

			require.Less(t, record(e, http.MethodPost, w.path, w.auth, w.body).Code, http.StatusBadRequest)
			assert.Equal(t, "MISS", record(e, http.MethodGet, "/v1/screenings/3", "", "").Header().Get("X-Cache"))
		})
	}
}
