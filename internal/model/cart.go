package model

import (
    "encoding/json"

    "github.com/shopspring/decimal"
)

// LineKind tags a cart line.
type LineKind string

const (
    LineMovie LineKind = "movie"
    LineBar   LineKind = "bar"
)

// CartLine is one of MovieLine, BarLine or UnknownLine.  The unexported
// marker keeps the set closed so type switches over it are exhaustive.
type CartLine interface {
    Kind() LineKind
    Qty() int
    Price() decimal.Decimal
    cartLine()
}

// MovieLine books Quantity seats for a screening.  SeatLabels is optional;
// when present it names the exact seats ("E4", "E5").
type MovieLine struct {
    ScreeningID uint64
    Quantity    int
    UnitPrice   decimal.Decimal
    SeatLabels  []string
    SeatClass   string
}

// BarLine buys a concession product.
type BarLine struct {
    ProductID uint64
    Quantity  int
    UnitPrice decimal.Decimal
    Size      string
    Extras    []string
    Notes     string
}

// UnknownLine keeps a line whose type tag was not recognized so that
// validation can report it alongside every other problem.
type UnknownLine struct {
    Type      string
    Quantity  int
    UnitPrice decimal.Decimal
}

func (l MovieLine) Kind() LineKind         { return LineMovie }
func (l MovieLine) Qty() int               { return l.Quantity }
func (l MovieLine) Price() decimal.Decimal { return l.UnitPrice }
func (MovieLine) cartLine()                {}

func (l BarLine) Kind() LineKind         { return LineBar }
func (l BarLine) Qty() int               { return l.Quantity }
func (l BarLine) Price() decimal.Decimal { return l.UnitPrice }
func (BarLine) cartLine()                {}

func (l UnknownLine) Kind() LineKind         { return LineKind(l.Type) }
func (l UnknownLine) Qty() int               { return l.Quantity }
func (l UnknownLine) Price() decimal.Decimal { return l.UnitPrice }
func (UnknownLine) cartLine()                {}

// Cart is a checkout submitted after the payment collaborator has
// reported success.
type Cart struct {
    UserID          uint64
    PaymentMethod   string
    CustomerEmail   string
    CustomerName    string
    PaymentRef      *string
    PaymentProvider *string
    Lines           []CartLine
}

type cartLineJSON struct {
    Type        string          `json:"type"`
    Quantity    int             `json:"quantity"`
    UnitPrice   decimal.Decimal `json:"unit_price"`
    ScreeningID uint64          `json:"screening_id,omitempty"`
    SeatLabels  []string        `json:"seats,omitempty"`
    SeatClass   string          `json:"seat_class,omitempty"`
    ProductID   uint64          `json:"product_id,omitempty"`
    Size        string          `json:"size,omitempty"`
    Extras      []string        `json:"extras,omitempty"`
    Notes       string          `json:"notes,omitempty"`
}

type cartJSON struct {
    PaymentMethod   string         `json:"payment_method"`
    CustomerEmail   string         `json:"customer_email"`
    CustomerName    string         `json:"customer_name"`
    PaymentRef      *string        `json:"payment_ref,omitempty"`
    PaymentProvider *string        `json:"payment_provider,omitempty"`
    Lines           []cartLineJSON `json:"items"`
}

// UnmarshalJSON decodes the checkout body.  UserID is never read from the
// body; callers set it from the authenticated identity.
func (c *Cart) UnmarshalJSON(b []byte) error {
    var raw cartJSON
    if err := json.Unmarshal(b, &raw); err != nil {
        return err
    }
    c.PaymentMethod = raw.PaymentMethod
    c.CustomerEmail = raw.CustomerEmail
    c.CustomerName = raw.CustomerName
    c.PaymentRef = raw.PaymentRef
    c.PaymentProvider = raw.PaymentProvider
    c.Lines = make([]CartLine, 0, len(raw.Lines))
    for _, l := range raw.Lines {
        switch LineKind(l.Type) {
        case LineMovie:
            c.Lines = append(c.Lines, MovieLine{
                ScreeningID: l.ScreeningID,
                Quantity:    l.Quantity,
                UnitPrice:   l.UnitPrice,
                SeatLabels:  l.SeatLabels,
                SeatClass:   l.SeatClass,
            })
        case LineBar:
            c.Lines = append(c.Lines, BarLine{
                ProductID: l.ProductID,
                Quantity:  l.Quantity,
                UnitPrice: l.UnitPrice,
                Size:      l.Size,
                Extras:    l.Extras,
                Notes:     l.Notes,
            })
        default:
            c.Lines = append(c.Lines, UnknownLine{Type: l.Type, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
        }
    }
    return nil
}
