// Package service implements the booking domain on top of the
// repositories: seat inventory, the screening catalog, order placement
// and order lookups.  Every failure a caller can act on is one of the
// error types below; anything else is an infrastructure fault.
package service

import (
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/cinema-booking/internal/model"
)

// LineIssue is one problem found in a cart.  Index is the line position,
// or -1 for problems with the cart itself.
type LineIssue struct {
    Index   int    `json:"index"`
    Field   string `json:"field"`
    Message string `json:"message"`
}

// ValidationError lists every problem found in one request.
type ValidationError struct {
    Issues []LineIssue
}

func (e *ValidationError) Error() string {
    msgs := make([]string, 0, len(e.Issues))
    for _, is := range e.Issues {
        if is.Index >= 0 {
            msgs = append(msgs, fmt.Sprintf("item %d: %s %s", is.Index, is.Field, is.Message))
        } else {
            msgs = append(msgs, is.Field+" "+is.Message)
        }
    }
    return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) add(index int, field, msg string) {
    e.Issues = append(e.Issues, LineIssue{Index: index, Field: field, Message: msg})
}

// orNil returns nil when no issue was recorded.
func (e *ValidationError) orNil() error {
    if len(e.Issues) == 0 {
        return nil
    }
    return e
}

// SeatUnavailableError reports seats that could not be taken, or a
// screening without enough seats left.  Seats are named by label; SeatIDs
// holds ids that match no seat of the screening and so have no label.
type SeatUnavailableError struct {
    ScreeningID uint64
    Labels      []string
    SeatIDs     []uint64
    Reason      string
}

func (e *SeatUnavailableError) Error() string {
    switch {
    case len(e.Labels) > 0:
        return fmt.Sprintf("screening %d: seats %s: %s", e.ScreeningID, strings.Join(e.Labels, ","), e.Reason)
    case len(e.SeatIDs) > 0:
        return fmt.Sprintf("screening %d: seat ids %v: %s", e.ScreeningID, e.SeatIDs, e.Reason)
    }
    return fmt.Sprintf("screening %d: %s", e.ScreeningID, e.Reason)
}

// AlreadyGeneratedError is returned when a screening's grid already exists.
type AlreadyGeneratedError struct {
    ScreeningID uint64
}

func (e *AlreadyGeneratedError) Error() string {
    return fmt.Sprintf("seats already generated for screening %d", e.ScreeningID)
}

// NotFoundError reports a missing or inactive resource.
type NotFoundError struct {
    Resource string
    ID       uint64
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// ForbiddenError is returned when a customer touches someone else's order.
type ForbiddenError struct {
    OrderID uint64
}

func (e *ForbiddenError) Error() string {
    return fmt.Sprintf("order %d belongs to another user", e.OrderID)
}

// InvalidStateTransitionError rejects an order status change.
type InvalidStateTransitionError struct {
    From model.OrderStatus
    To   model.OrderStatus
}

func (e *InvalidStateTransitionError) Error() string {
    return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

// TransactionFailedError wraps an unexpected storage failure.  The
// transaction it happened in was rolled back.
type TransactionFailedError struct {
    Op  string
    Err error
}

func (e *TransactionFailedError) Error() string {
    return e.Op + ": " + e.Err.Error()
}

func (e *TransactionFailedError) Unwrap() error { return e.Err }

// OutOfStockError is returned when a bar line asks for more units than
// the product has left.
type OutOfStockError struct {
    ProductID uint64
    Requested int
}

func (e *OutOfStockError) Error() string {
    return fmt.Sprintf("product %d: not enough stock for %d units", e.ProductID, e.Requested)
}

// isDomainError reports whether err is one of the typed errors above,
// which pass through transactions unchanged.
func isDomainError(err error) bool {
    var (
        v  *ValidationError
        su *SeatUnavailableError
        ag *AlreadyGeneratedError
        nf *NotFoundError
        fb *ForbiddenError
        it *InvalidStateTransitionError
        tf *TransactionFailedError
        st *OutOfStockError
    )
    return errors.As(err, &v) || errors.As(err, &su) || errors.As(err, &ag) || errors.As(err, &nf) ||
        errors.As(err, &fb) || errors.As(err, &it) || errors.As(err, &tf) || errors.As(err, &st)
}

// txFailure keeps domain errors as they are and wraps everything else.
func txFailure(op string, err error) error {
    if isDomainError(err) {
        return err
    }
    return &TransactionFailedError{Op: op, Err: err}
}
