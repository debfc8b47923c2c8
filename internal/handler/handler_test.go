package handler

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/middleware"
    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
    "github.com/iliyamo/cinema-booking/internal/service"
)

// MockCatalog is a mock implementation of ScreeningCatalog
type MockCatalog struct {
    mock.Mock
}

func (m *MockCatalog) CreateScreening(ctx context.Context, in model.NewScreening) (*model.Screening, error) {
    args := m.Called(ctx, in)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).(*model.Screening), args.Error(1)
}

func (m *MockCatalog) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
    args := m.Called(ctx, id)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).(*model.Screening), args.Error(1)
}

func (m *MockCatalog) ListScreenings(ctx context.Context, f repository.ScreeningFilter) ([]model.Screening, error) {
    args := m.Called(ctx, f)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).([]model.Screening), args.Error(1)
}

func (m *MockCatalog) Deactivate(ctx context.Context, id uint64) error {
    return m.Called(ctx, id).Error(0)
}

// MockInventory is a mock implementation of SeatInventory
type MockInventory struct {
    mock.Mock
}

func (m *MockInventory) ListForScreening(ctx context.Context, screeningID uint64) ([]model.Seat, error) {
    args := m.Called(ctx, screeningID)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).([]model.Seat), args.Error(1)
}

func (m *MockInventory) Availability(ctx context.Context, screeningID uint64) (model.SeatAvailability, error) {
    args := m.Called(ctx, screeningID)
    return args.Get(0).(model.SeatAvailability), args.Error(1)
}

// MockBooking is a mock implementation of Booking
type MockBooking struct {
    mock.Mock
}

func (m *MockBooking) CreateOrder(ctx context.Context, cart model.Cart) (*model.PlacedOrder, error) {
    args := m.Called(ctx, cart)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).(*model.PlacedOrder), args.Error(1)
}

func (m *MockBooking) CancelOrder(ctx context.Context, orderID uint64, requestingUserID *uint64) error {
    return m.Called(ctx, orderID, requestingUserID).Error(0)
}

func (m *MockBooking) CompleteOrder(ctx context.Context, orderID uint64) error {
    return m.Called(ctx, orderID).Error(0)
}

func (m *MockBooking) RefundOrder(ctx context.Context, orderID uint64) error {
    return m.Called(ctx, orderID).Error(0)
}

// MockOrders is a mock implementation of OrderReader
type MockOrders struct {
    mock.Mock
}

func (m *MockOrders) GetOrder(ctx context.Context, orderID uint64, requestingUserID *uint64) (*model.OrderDetail, error) {
    args := m.Called(ctx, orderID, requestingUserID)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).(*model.OrderDetail), args.Error(1)
}

func (m *MockOrders) ListOrders(ctx context.Context, userID uint64) ([]model.OrderDetail, error) {
    args := m.Called(ctx, userID)
    if args.Get(0) == nil {
        return nil, args.Error(1)
    }
    return args.Get(0).([]model.OrderDetail), args.Error(1)
}

type caller struct {
    userID uint64
    role   string
}

var customer = &caller{userID: 4, role: middleware.RoleCustomer}

// serve runs one request through h with an optional authenticated caller.
func serve(method, path, route string, body string, who *caller, h echo.HandlerFunc) *httptest.ResponseRecorder {
    e := echo.New()
    wrapped := func(c echo.Context) error {
        if who != nil {
            c.Set(middleware.CtxUserID, who.userID)
            c.Set(middleware.CtxRole, who.role)
        }
        return h(c)
    }
    e.Add(method, route, wrapped)

    req := httptest.NewRequest(method, path, strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
    t.Helper()
    var out map[string]any
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    return out
}

func TestHealth(t *testing.T) {
    rec := serve(http.MethodGet, "/healthz", "/healthz", "", nil, Health(nil))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

type downDB struct{}

func (downDB) PingContext(context.Context) error { return errors.New("refused") }

func TestHealth_DatabaseDown(t *testing.T) {
    rec := serve(http.MethodGet, "/healthz", "/healthz", "", nil, Health(downDB{}))
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func newScreeningHandler() (*ScreeningHandler, *MockCatalog, *MockInventory) {
    cat, inv := new(MockCatalog), new(MockInventory)
    return NewScreeningHandler(cat, inv, zap.NewNop()), cat, inv
}

func TestScreeningHandler_ListFilters(t *testing.T) {
    h, cat, _ := newScreeningHandler()
    want := repository.ScreeningFilter{MovieID: 3, Date: "2025-06-01", ActiveOnly: true}
    cat.On("ListScreenings", mock.Anything, want).Return([]model.Screening{{ID: 1}, {ID: 2}}, nil)

    rec := serve(http.MethodGet, "/v1/screenings?movie_id=3&date=2025-06-01", "/v1/screenings", "", nil, h.List)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 2, decode(t, rec)["count"])
    cat.AssertExpectations(t)
}

func TestScreeningHandler_ListRejectsBadMovieID(t *testing.T) {
    h, cat, _ := newScreeningHandler()
    rec := serve(http.MethodGet, "/v1/screenings?movie_id=abc", "/v1/screenings", "", nil, h.List)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    cat.AssertNotCalled(t, "ListScreenings", mock.Anything, mock.Anything)
}

func TestScreeningHandler_GetNotFound(t *testing.T) {
    h, cat, _ := newScreeningHandler()
    cat.On("GetScreening", mock.Anything, uint64(9)).Return(nil, &service.NotFoundError{Resource: "screening", ID: 9})

    rec := serve(http.MethodGet, "/v1/screenings/9", "/v1/screenings/:id", "", nil, h.Get)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.Equal(t, "screening not found", decode(t, rec)["error"])
}

func TestScreeningHandler_SeatsGroupedByRow(t *testing.T) {
    h, _, inv := newScreeningHandler()
    inv.On("ListForScreening", mock.Anything, uint64(5)).Return([]model.Seat{
        {ID: 1, Row: "A", Number: 1},
        {ID: 2, Row: "A", Number: 2},
        {ID: 3, Row: "B", Number: 1, IsVIP: true},
    }, nil)

    rec := serve(http.MethodGet, "/v1/screenings/5/seats", "/v1/screenings/:id/seats", "", nil, h.Seats)
    require.Equal(t, http.StatusOK, rec.Code)

    var body struct {
        Rows []struct {
            Row   string       `json:"row"`
            Seats []model.Seat `json:"seats"`
        } `json:"rows"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    require.Len(t, body.Rows, 2)
    assert.Equal(t, "A", body.Rows[0].Row)
    assert.Len(t, body.Rows[0].Seats, 2)
    assert.True(t, body.Rows[1].Seats[0].IsVIP)
}

func TestScreeningHandler_InvalidID(t *testing.T) {
    h, _, _ := newScreeningHandler()
    rec := serve(http.MethodGet, "/v1/screenings/0/availability", "/v1/screenings/:id/availability", "", nil, h.Availability)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScreeningHandler_CreateValidation(t *testing.T) {
    h, cat, _ := newScreeningHandler()
    cat.On("CreateScreening", mock.Anything, mock.AnythingOfType("model.NewScreening")).
        Return(nil, &service.ValidationError{Issues: []service.LineIssue{{Index: -1, Field: "room", Message: "is required"}}})

    rec := serve(http.MethodPost, "/v1/admin/screenings", "/v1/admin/screenings",
        `{"movie_id":1,"date":"2025-06-01","time":"20:00","price":"9.50","available_seats":40}`, nil, h.Create)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    issues := decode(t, rec)["issues"].([]any)
    require.Len(t, issues, 1)
    assert.Equal(t, "room", issues[0].(map[string]any)["field"])
}

func TestScreeningHandler_CreateConflict(t *testing.T) {
    h, cat, _ := newScreeningHandler()
    cat.On("CreateScreening", mock.Anything, mock.MatchedBy(func(in model.NewScreening) bool {
        return in.Capacity == 40 && in.Price.Equal(decimal.RequireFromString("9.5"))
    })).Return(nil, &service.AlreadyGeneratedError{ScreeningID: 7})

    rec := serve(http.MethodPost, "/v1/admin/screenings", "/v1/admin/screenings",
        `{"movie_id":1,"room":"Sala 1","date":"2025-06-01","time":"20:00","price":"9.50","available_seats":40}`, nil, h.Create)
    assert.Equal(t, http.StatusConflict, rec.Code)
    cat.AssertExpectations(t)
}

func TestScreeningHandler_Deactivate(t *testing.T) {
    h, cat, _ := newScreeningHandler()
    cat.On("Deactivate", mock.Anything, uint64(7)).Return(nil)

    rec := serve(http.MethodPost, "/v1/admin/screenings/7/deactivate", "/v1/admin/screenings/:id/deactivate", "", nil, h.Deactivate)
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func newOrderHandler() (*OrderHandler, *MockBooking, *MockOrders) {
    b, o := new(MockBooking), new(MockOrders)
    return NewOrderHandler(b, o, zap.NewNop()), b, o
}

const cartBody = `{"payment_method":"card","items":[
    {"type":"movie","screening_id":5,"quantity":2,"unit_price":"10.00","seats":["E4","E5"]},
    {"type":"bar","product_id":9,"quantity":1,"unit_price":3.5}]}`

func TestOrderHandler_CreateUsesTokenIdentity(t *testing.T) {
    h, b, _ := newOrderHandler()
    placed := &model.PlacedOrder{Order: model.Order{ID: 101, UserID: 4, Status: model.OrderCompleted}}
    b.On("CreateOrder", mock.Anything, mock.MatchedBy(func(c model.Cart) bool {
        if c.UserID != 4 || len(c.Lines) != 2 {
            return false
        }
        ml, ok := c.Lines[0].(model.MovieLine)
        return ok && ml.ScreeningID == 5 && len(ml.SeatLabels) == 2
    })).Return(placed, nil)

    body := strings.Replace(cartBody, `"payment_method"`, `"user_id":99,"payment_method"`, 1)
    rec := serve(http.MethodPost, "/v1/orders", "/v1/orders", body, customer, h.Create)
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.EqualValues(t, 101, decode(t, rec)["id"])
    b.AssertExpectations(t)
}

func TestOrderHandler_CreateSeatConflict(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CreateOrder", mock.Anything, mock.Anything).
        Return(nil, &service.SeatUnavailableError{ScreeningID: 5, Labels: []string{"E4"}, Reason: "already occupied or disabled"})

    rec := serve(http.MethodPost, "/v1/orders", "/v1/orders", cartBody, customer, h.Create)
    assert.Equal(t, http.StatusConflict, rec.Code)
    got := decode(t, rec)
    assert.Equal(t, []any{"E4"}, got["seats"])
}

func TestOrderHandler_UnknownSeatIDs(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CreateOrder", mock.Anything, mock.Anything).
        Return(nil, &service.SeatUnavailableError{ScreeningID: 5, SeatIDs: []uint64{999}, Reason: "unknown seat"})

    rec := serve(http.MethodPost, "/v1/orders", "/v1/orders", cartBody, customer, h.Create)
    assert.Equal(t, http.StatusConflict, rec.Code)
    got := decode(t, rec)
    assert.Nil(t, got["seats"])
    assert.Equal(t, []any{float64(999)}, got["seat_ids"])
}

func TestOrderHandler_CreateOutOfStock(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CreateOrder", mock.Anything, mock.Anything).Return(nil, &service.OutOfStockError{ProductID: 9, Requested: 1})

    rec := serve(http.MethodPost, "/v1/orders", "/v1/orders", cartBody, customer, h.Create)
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrderHandler_CreateHidesInternalErrors(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CreateOrder", mock.Anything, mock.Anything).
        Return(nil, &service.TransactionFailedError{Op: "insert order", Err: errors.New("dial tcp 10.0.0.3:3306")})

    rec := serve(http.MethodPost, "/v1/orders", "/v1/orders", cartBody, customer, h.Create)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestOrderHandler_CreateWithoutIdentity(t *testing.T) {
    h, b, _ := newOrderHandler()
    rec := serve(http.MethodPost, "/v1/orders", "/v1/orders", cartBody, nil, h.Create)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    b.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestOrderHandler_CancelPassesRequester(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CancelOrder", mock.Anything, uint64(12), mock.MatchedBy(func(u *uint64) bool { return u != nil && *u == 4 })).
        Return(&service.ForbiddenError{OrderID: 12})

    rec := serve(http.MethodPost, "/v1/orders/12/cancel", "/v1/orders/:id/cancel", "", customer, h.Cancel)
    assert.Equal(t, http.StatusForbidden, rec.Code)
    b.AssertExpectations(t)
}

func TestOrderHandler_AdminCancelSkipsOwnership(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CancelOrder", mock.Anything, uint64(12), (*uint64)(nil)).Return(nil)

    admin := &caller{userID: 1, role: middleware.RoleAdmin}
    rec := serve(http.MethodPost, "/v1/admin/orders/12/cancel", "/v1/admin/orders/:id/cancel", "", admin, h.Cancel)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "cancelled", decode(t, rec)["status"])
    b.AssertExpectations(t)
}

func TestOrderHandler_RefundInvalidState(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("RefundOrder", mock.Anything, uint64(12)).
        Return(&service.InvalidStateTransitionError{From: model.OrderPending, To: model.OrderRefunded})

    rec := serve(http.MethodPost, "/v1/admin/orders/12/refund", "/v1/admin/orders/:id/refund", "", nil, h.Refund)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Equal(t, "pending", decode(t, rec)["from"])
}

func TestOrderHandler_Complete(t *testing.T) {
    h, b, _ := newOrderHandler()
    b.On("CompleteOrder", mock.Anything, uint64(12)).Return(nil)

    rec := serve(http.MethodPost, "/v1/admin/orders/12/complete", "/v1/admin/orders/:id/complete", "", nil, h.Complete)
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHandler_ListMine(t *testing.T) {
    h, _, o := newOrderHandler()
    o.On("ListOrders", mock.Anything, uint64(4)).Return([]model.OrderDetail{{Order: model.Order{ID: 2}}, {Order: model.Order{ID: 1}}}, nil)

    rec := serve(http.MethodGet, "/v1/my-orders", "/v1/my-orders", "", customer, h.ListMine)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func TestOrderHandler_GetNotFound(t *testing.T) {
    h, _, o := newOrderHandler()
    o.On("GetOrder", mock.Anything, uint64(77), mock.Anything).Return(nil, &service.NotFoundError{Resource: "order", ID: 77})

    rec := serve(http.MethodGet, "/v1/orders/77", "/v1/orders/:id", "", customer, h.Get)
    assert.Equal(t, http.StatusNotFound, rec.Code)
}
