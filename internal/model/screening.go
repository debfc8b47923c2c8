package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Screening represents a scheduled showing of a movie in a room.  Its
// seat grid is generated once, from AvailableSeats at creation time, and
// AvailableSeats is afterwards only moved by bookings and cancellations.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being shown (catalog owned elsewhere).
//  Date           – calendar date, YYYY-MM-DD.
//  Time           – start time, HH:MM.
//  Room           – room name; drives the seat grid shape.
//  Price          – base seat price; VIP seats cost 1.5x.
//  AvailableSeats – sellable seats not yet booked.
//  Format         – projection format tag (2D, 3D, IMAX ...).
//  Active         – false once soft-deactivated.
type Screening struct {
    ID             uint64          `json:"id"`              // screenings.id
    MovieID        uint64          `json:"movie_id"`        // screenings.movie_id
    Date           string          `json:"date"`            // screenings.date
    Time           string          `json:"time"`            // screenings.time
    Room           string          `json:"room"`            // screenings.room
    Price          decimal.Decimal `json:"price"`           // screenings.price
    AvailableSeats int             `json:"available_seats"` // screenings.available_seats
    Format         string          `json:"format"`          // screenings.format
    Active         bool            `json:"active"`          // screenings.active
    CreatedAt      time.Time       `json:"created_at"`      // screenings.created_at
}

// NewScreening carries the admin input used to schedule a screening.
type NewScreening struct {
    MovieID  uint64          `json:"movie_id"`
    Date     string          `json:"date"`
    Time     string          `json:"time"`
    Room     string          `json:"room"`
    Price    decimal.Decimal `json:"price"`
    Capacity int             `json:"available_seats"`
    Format   string          `json:"format"`
}
