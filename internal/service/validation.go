package service

import (
    "strings"

    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/seatplan"
)

const maxLineQuantity = 20

// Seat classes accepted on movie lines.
const (
    SeatClassStandard = "standard"
    SeatClassVIP      = "vip"
)

// ValidateCart checks every line and returns all problems at once.  It
// normalizes seat labels and the seat class in place.
func ValidateCart(cart *model.Cart) error {
    verr := &ValidationError{}
    if cart.UserID == 0 {
        verr.add(-1, "user_id", "is required")
    }
    if len(cart.Lines) == 0 {
        verr.add(-1, "items", "must contain at least one item")
    }
    for i, line := range cart.Lines {
        if q := line.Qty(); q < 1 || q > maxLineQuantity {
            verr.add(i, "quantity", "must be between 1 and 20")
        }
        if !line.Price().IsPositive() {
            verr.add(i, "unit_price", "must be greater than 0")
        }
        switch l := line.(type) {
        case model.MovieLine:
            cart.Lines[i] = validateMovieLine(verr, i, l)
        case model.BarLine:
            if l.ProductID == 0 {
                verr.add(i, "product_id", "is required")
            }
        case model.UnknownLine:
            verr.add(i, "type", "unknown item type "+strings.TrimSpace(l.Type))
        }
    }
    return verr.orNil()
}

func validateMovieLine(verr *ValidationError, i int, l model.MovieLine) model.MovieLine {
    if l.ScreeningID == 0 {
        verr.add(i, "screening_id", "is required")
    }
    switch strings.ToLower(strings.TrimSpace(l.SeatClass)) {
    case "", SeatClassStandard:
        l.SeatClass = SeatClassStandard
    case SeatClassVIP:
        l.SeatClass = SeatClassVIP
    default:
        verr.add(i, "seat_class", "must be vip or standard")
    }
    if len(l.SeatLabels) == 0 {
        return l
    }
    if len(l.SeatLabels) != l.Quantity {
        verr.add(i, "seats", "count must equal quantity")
    }
    seen := make(map[string]bool, len(l.SeatLabels))
    labels := make([]string, 0, len(l.SeatLabels))
    for _, raw := range l.SeatLabels {
        row, n, ok := seatplan.ParseSeatLabel(raw)
        if !ok {
            verr.add(i, "seats", "invalid seat label "+raw)
            continue
        }
        label := seatplan.SeatLabel(row, n)
        if seen[label] {
            verr.add(i, "seats", "duplicate seat "+label)
            continue
        }
        seen[label] = true
        labels = append(labels, label)
    }
    l.SeatLabels = labels
    return l
}
