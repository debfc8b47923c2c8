package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
    OrderPending   OrderStatus = "pending"
    OrderCompleted OrderStatus = "completed"
    OrderCancelled OrderStatus = "cancelled"
    OrderRefunded  OrderStatus = "refunded"
)

// orderTransitions lists every permitted status change.
var orderTransitions = map[OrderStatus][]OrderStatus{
    OrderPending:   {OrderCompleted, OrderCancelled},
    OrderCompleted: {OrderRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
    for _, s := range orderTransitions[from] {
        if s == to {
            return true
        }
    }
    return false
}

// ReleasesSeats reports whether entering this status gives the order's
// seats back to the screening.
func (s OrderStatus) ReleasesSeats() bool {
    return s == OrderCancelled || s == OrderRefunded
}

// Order is the header row of a booking.  Line items are stored in
// order_movie_lines and order_bar_lines and are written in the same
// transaction as the header.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – customer who placed the order.
//  Total           – subtotal + service fee + taxes.
//  Subtotal        – sum of line subtotals.
//  Taxes           – 8% over subtotal and service fee.
//  ServiceFee      – 5% of subtotal.
//  PaymentMethod   – e.g. card, cash, wallet.
//  Status          – pending, completed, cancelled or refunded.
//  PaymentRef      – external payment provider reference, if any.
//  PaymentProvider – external payment provider name, if any.
type Order struct {
    ID              uint64          `json:"id"`                         // orders.id
    UserID          uint64          `json:"user_id"`                    // orders.user_id
    Total           decimal.Decimal `json:"total"`                      // orders.total
    Subtotal        decimal.Decimal `json:"subtotal"`                   // orders.subtotal
    Taxes           decimal.Decimal `json:"taxes"`                      // orders.taxes
    ServiceFee      decimal.Decimal `json:"service_fee"`                // orders.service_fee
    PaymentMethod   string          `json:"payment_method"`             // orders.payment_method
    Status          OrderStatus     `json:"status"`                     // orders.status
    CustomerEmail   string          `json:"customer_email"`             // orders.customer_email
    CustomerName    string          `json:"customer_name"`              // orders.customer_name
    PaymentRef      *string         `json:"payment_ref,omitempty"`      // orders.payment_ref (nullable)
    PaymentProvider *string         `json:"payment_provider,omitempty"` // orders.payment_provider (nullable)
    CreatedAt       time.Time       `json:"created_at"`                 // orders.created_at
}

// OrderMovieLine is a block of seats for one screening inside an order.
type OrderMovieLine struct {
    ID          uint64          `json:"id"`           // order_movie_lines.id
    OrderID     uint64          `json:"order_id"`     // order_movie_lines.order_id
    ScreeningID uint64          `json:"screening_id"` // order_movie_lines.screening_id
    Quantity    int             `json:"quantity"`     // order_movie_lines.quantity
    UnitPrice   decimal.Decimal `json:"unit_price"`   // order_movie_lines.unit_price
    Subtotal    decimal.Decimal `json:"subtotal"`     // order_movie_lines.subtotal
    SeatLabels  []string        `json:"seats"`        // order_movie_lines.seat_labels (JSON)
    SeatClass   string          `json:"seat_class"`   // order_movie_lines.seat_class
}

// OrderBarLine is a concession item inside an order.
type OrderBarLine struct {
    ID        uint64          `json:"id"`         // order_bar_lines.id
    OrderID   uint64          `json:"order_id"`   // order_bar_lines.order_id
    ProductID uint64          `json:"product_id"` // order_bar_lines.product_id
    Quantity  int             `json:"quantity"`   // order_bar_lines.quantity
    UnitPrice decimal.Decimal `json:"unit_price"` // order_bar_lines.unit_price
    Subtotal  decimal.Decimal `json:"subtotal"`   // order_bar_lines.subtotal
    Size      string          `json:"size,omitempty"`
    Extras    []string        `json:"extras,omitempty"`
    Notes     string          `json:"notes,omitempty"`
}

// MovieLineDetail is a movie line joined with display fields from the
// screening and movie catalog.
type MovieLineDetail struct {
    OrderMovieLine
    MovieTitle  string `json:"movie_title"`
    PosterURL   string `json:"poster_url"`
    DurationMin int    `json:"duration_min"`
    Date        string `json:"date"`
    Time        string `json:"time"`
    Room        string `json:"room"`
    Format      string `json:"format"`
}

// BarLineDetail is a bar line joined with product display fields.
type BarLineDetail struct {
    OrderBarLine
    ProductName string `json:"product_name"`
    Category    string `json:"category"`
}

// OrderDetail is a fully assembled order for receipts and history.
type OrderDetail struct {
    Order
    MovieLines []MovieLineDetail `json:"movie_lines"`
    BarLines   []BarLineDetail   `json:"bar_lines"`
}

// Totals holds the monetary breakdown of a cart.
type Totals struct {
    Subtotal   decimal.Decimal `json:"subtotal"`
    ServiceFee decimal.Decimal `json:"service_fee"`
    Taxes      decimal.Decimal `json:"taxes"`
    Total      decimal.Decimal `json:"total"`
}

// PlacedOrder is what order placement returns: the stored header and
// lines, without catalog display fields.
type PlacedOrder struct {
    Order
    MovieLines []OrderMovieLine `json:"movie_lines"`
    BarLines   []OrderBarLine   `json:"bar_lines"`
}
