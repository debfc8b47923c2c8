// Package repository contains data access logic for the booking domain.
// This file covers screenings: scheduled showings of a movie in a room,
// each owning a generated seat grid and an available-seat counter.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel comparisons
	"strings"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// ScreeningRepo manages persistence for screenings.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

const screeningColumns = `id, movie_id, show_date, show_time, room, price, available_seats, format, active, created_at`

func scanScreening(row interface{ Scan(...any) error }, s *model.Screening) error {
	return row.Scan(&s.ID, &s.MovieID, &s.Date, &s.Time, &s.Room, &s.Price,
		&s.AvailableSeats, &s.Format, &s.Active, &s.CreatedAt)
}

// CreateTx inserts a new screening using the provided transaction.  The
// caller must commit or roll back.  On success the generated ID is set
// and the screening is marked active.
func (r *ScreeningRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Screening) error {
	const q = `INSERT INTO screenings (movie_id, show_date, show_time, room, price, available_seats, format)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.MovieID, s.Date, s.Time, s.Room, s.Price, s.AvailableSeats, s.Format)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	s.Active = true
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return nil
}

// GetByID retrieves a screening by its ID.  It returns
// ErrScreeningNotFound if there is no matching row.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	q := `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	var s model.Screening
	if err := scanScreening(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScreeningNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ScreeningFilter narrows List.  Zero values disable a filter.
type ScreeningFilter struct {
	MovieID    uint64
	Date       string
	ActiveOnly bool
}

// List returns screenings ordered by date, time and room.
func (r *ScreeningRepo) List(ctx context.Context, f ScreeningFilter) ([]model.Screening, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 2)
	if f.MovieID != 0 {
		where = append(where, "movie_id = ?")
		args = append(args, f.MovieID)
	}
	if f.Date != "" {
		where = append(where, "show_date = ?")
		args = append(args, f.Date)
	}
	if f.ActiveOnly {
		where = append(where, "active = 1")
	}
	q := `SELECT ` + screeningColumns + ` FROM screenings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY show_date, show_time, room`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Screening, 0)
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Deactivate soft-deletes a screening.  Seats and order lines keep
// pointing at it.  Deactivating an inactive screening is a no-op.
func (r *ScreeningRepo) Deactivate(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE screenings SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, id)
	return err
}

// DecrementAvailableTx takes qty seats off the screening's counter.  The
// update only matches an active screening with enough seats left; when it
// matches nothing the reason is looked up and returned as a sentinel.
func (r *ScreeningRepo) DecrementAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, qty int) error {
	const q = `UPDATE screenings SET available_seats = available_seats - ?
	           WHERE id = ? AND active = 1 AND available_seats >= ?`
	res, err := tx.ExecContext(ctx, q, qty, id, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var active bool
	var left int
	err = tx.QueryRowContext(ctx, `SELECT active, available_seats FROM screenings WHERE id = ?`, id).Scan(&active, &left)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrScreeningNotFound
	case err != nil:
		return err
	case !active:
		return ErrScreeningInactive
	default:
		return ErrInsufficientSeats
	}
}

// IncrementAvailableTx gives qty seats back to the screening's counter.
func (r *ScreeningRepo) IncrementAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, qty int) error {
	_, err := tx.ExecContext(ctx, `UPDATE screenings SET available_seats = available_seats + ? WHERE id = ?`, qty, id)
	return err
}
