package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/model"
)

// Booking is the write side of order handling, implemented by
// service.BookingService.
type Booking interface {
    CreateOrder(ctx context.Context, cart model.Cart) (*model.PlacedOrder, error)
    CancelOrder(ctx context.Context, orderID uint64, requestingUserID *uint64) error
    CompleteOrder(ctx context.Context, orderID uint64) error
    RefundOrder(ctx context.Context, orderID uint64) error
}

// OrderReader is implemented by service.OrderQueryService.
type OrderReader interface {
    GetOrder(ctx context.Context, orderID uint64, requestingUserID *uint64) (*model.OrderDetail, error)
    ListOrders(ctx context.Context, userID uint64) ([]model.OrderDetail, error)
}

// OrderHandler serves checkout, order history and admin order actions.
// All methods assume JWTAuth and RequireRole already ran.
type OrderHandler struct {
    Booking Booking
    Orders  OrderReader
    Log     *zap.Logger
}

// NewOrderHandler constructs an OrderHandler and panics if a dependency
// is missing.
func NewOrderHandler(booking Booking, orders OrderReader, log *zap.Logger) *OrderHandler {
    if booking == nil || orders == nil || log == nil {
        panic("nil dependency passed to NewOrderHandler")
    }
    return &OrderHandler{Booking: booking, Orders: orders, Log: log}
}

// Create handles POST /v1/orders.  The body is the paid cart:
//
//  {"payment_method":"card","items":[{"type":"movie","screening_id":5,
//   "quantity":2,"unit_price":"10.00","seats":["E4","E5"]}]}
//
// The user id always comes from the token, never from the body.  It
// returns 201 with the stored order.
func (h *OrderHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var cart model.Cart
    if err := c.Bind(&cart); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    cart.UserID = userID
    placed, err := h.Booking.CreateOrder(c.Request().Context(), cart)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, placed)
}

// ListMine handles GET /v1/my-orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    orders, err := h.Orders.ListOrders(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"orders": orders, "count": len(orders)})
}

// requester returns nil for admins so the services skip the ownership
// check, and the caller's id otherwise.
func requester(c echo.Context) (*uint64, error) {
    if isAdmin(c) {
        return nil, nil
    }
    id, err := getUserID(c)
    if err != nil {
        return nil, err
    }
    return &id, nil
}

// Get handles GET /v1/orders/:id and GET /v1/admin/orders/:id.
// Customers only see their own orders.
func (h *OrderHandler) Get(c echo.Context) error {
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    who, err := requester(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    o, err := h.Orders.GetOrder(c.Request().Context(), orderID, who)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, o)
}

// Cancel handles POST /v1/orders/:id/cancel and its admin twin.  Only
// pending orders can be cancelled; their seats go back on sale.
func (h *OrderHandler) Cancel(c echo.Context) error {
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    who, err := requester(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Booking.CancelOrder(c.Request().Context(), orderID, who); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": orderID, "status": model.OrderCancelled})
}

// Complete handles POST /v1/admin/orders/:id/complete.
func (h *OrderHandler) Complete(c echo.Context) error {
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    if err := h.Booking.CompleteOrder(c.Request().Context(), orderID); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": orderID, "status": model.OrderCompleted})
}

// Refund handles POST /v1/admin/orders/:id/refund.
func (h *OrderHandler) Refund(c echo.Context) error {
    orderID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
    }
    if err := h.Booking.RefundOrder(c.Request().Context(), orderID); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id": orderID, "status": model.OrderRefunded})
}
