package model

import (
    "strconv"

    "github.com/shopspring/decimal"
)

// Seat is one cell of a screening's seat grid.  Occupied toggles with
// bookings and cancellations; Disabled is fixed when the grid is
// generated and marks cells beyond the screening's capacity.
type Seat struct {
    ID          uint64          `json:"id"`           // seats.id
    ScreeningID uint64          `json:"screening_id"` // seats.screening_id
    Row         string          `json:"row"`          // seats.row_label
    RowIndex    int             `json:"-"`            // seats.row_index
    Number      int             `json:"number"`       // seats.number (1-based)
    IsVIP       bool            `json:"is_vip"`       // seats.is_vip
    Price       decimal.Decimal `json:"price"`        // seats.price
    Occupied    bool            `json:"occupied"`     // seats.occupied
    Disabled    bool            `json:"disabled"`     // seats.disabled
}

// Label returns the printed seat label such as "E4".
func (s Seat) Label() string {
    return s.Row + strconv.Itoa(s.Number)
}

// Available reports whether the seat can be booked right now.
func (s Seat) Available() bool { return !s.Occupied && !s.Disabled }

// SeatAvailability summarises a screening's grid.
type SeatAvailability struct {
    ScreeningID uint64 `json:"screening_id"`
    Total       int    `json:"total"`
    Available   int    `json:"available"`
    Occupied    int    `json:"occupied"`
    Disabled    int    `json:"disabled"`
    VIP         int    `json:"vip"`
}
