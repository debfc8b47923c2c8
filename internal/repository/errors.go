// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors. For example, ErrInsufficientSeats signals that a
// conditional counter update matched no row because the screening has
// fewer seats left than requested, while ErrDuplicate means a unique key
// rejected the insert.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrScreeningNotFound = errors.New("screening not found")
	ErrScreeningInactive = errors.New("screening is not active")
	ErrInsufficientSeats = errors.New("not enough seats left for screening")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("not enough stock for product")
)

// ErrDuplicate is returned when an insert violates a unique or primary key.
// Callers translate it into a domain conflict.
var ErrDuplicate = errors.New("duplicate key")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL duplicate-key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
