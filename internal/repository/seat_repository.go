package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"strings"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatRepo provides methods to work with a screening's seat grid.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `id, screening_id, row_label, row_index, seat_number, is_vip, price, occupied, disabled`

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	result := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(
			&s.ID, &s.ScreeningID, &s.Row, &s.RowIndex, &s.Number,
			&s.IsVIP, &s.Price, &s.Occupied, &s.Disabled,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// placeholders returns "?, ?, ?" with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// seatInsertBatch keeps one INSERT well under MySQL's 65,535 placeholder
// limit at 8 placeholders per seat.
const seatInsertBatch = 1000

// CreateBulkTx inserts a grid in multi-row statements of at most
// seatInsertBatch seats each.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	for start := 0; start < len(seats); start += seatInsertBatch {
		end := start + seatInsertBatch
		if end > len(seats) {
			end = len(seats)
		}
		if err := insertSeatsTx(ctx, tx, seats[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func insertSeatsTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO seats (screening_id, row_label, row_index, seat_number, is_vip, price, occupied, disabled) VALUES `)
	args := make([]interface{}, 0, len(seats)*8)
	for i, s := range seats {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, s.ScreeningID, s.Row, s.RowIndex, s.Number, s.IsVIP, s.Price, s.Occupied, s.Disabled)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByScreening retrieves all seats of a screening ordered by row index
// then seat number, so row AA follows row Z.
func (r *SeatRepo) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + `
	      FROM seats
	      WHERE screening_id = ?
	      ORDER BY row_index, seat_number`
	rows, err := r.db.QueryContext(ctx, q, screeningID)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// CountByScreeningTx returns how many seat rows exist for a screening.
func (r *SeatRepo) CountByScreeningTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE screening_id = ?`, screeningID).Scan(&n)
	return n, err
}

// ListByRowsTx returns the seats of the given rows.  It is used to
// resolve printed labels back to seat ids.
func (r *SeatRepo) ListByRowsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, rowLabels []string) ([]model.Seat, error) {
	if len(rowLabels) == 0 {
		return []model.Seat{}, nil
	}
	q := `SELECT ` + seatColumns + `
	      FROM seats
	      WHERE screening_id = ? AND row_label IN (` + placeholders(len(rowLabels)) + `)
	      ORDER BY row_index, seat_number`
	args := make([]interface{}, 0, len(rowLabels)+1)
	args = append(args, screeningID)
	for _, l := range rowLabels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// LockByIDsTx reads the given seats with FOR UPDATE so that concurrent
// reservations of the same seats serialize on the row locks.
func (r *SeatRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return []model.Seat{}, nil
	}
	q := `SELECT ` + seatColumns + `
	      FROM seats
	      WHERE screening_id = ? AND id IN (` + placeholders(len(ids)) + `)
	      ORDER BY row_index, seat_number
	      FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, idArgs(screeningID, ids)...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// OccupyTx marks the seats occupied.  Only seats that are currently free
// and not disabled are touched; the number of rows changed is returned so
// the caller can verify the whole batch was taken.
func (r *SeatRepo) OccupyTx(ctx context.Context, tx *sql.Tx, screeningID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `UPDATE seats SET occupied = 1
	      WHERE screening_id = ? AND id IN (` + placeholders(len(ids)) + `) AND occupied = 0 AND disabled = 0`
	res, err := tx.ExecContext(ctx, q, idArgs(screeningID, ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseTx frees occupied seats.  Already free seats are left alone.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, screeningID uint64, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `UPDATE seats SET occupied = 0
	      WHERE screening_id = ? AND id IN (` + placeholders(len(ids)) + `) AND occupied = 1`
	res, err := tx.ExecContext(ctx, q, idArgs(screeningID, ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Availability counts the grid by state.
func (r *SeatRepo) Availability(ctx context.Context, screeningID uint64) (model.SeatAvailability, error) {
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(CASE WHEN occupied = 0 AND disabled = 0 THEN 1 ELSE 0 END), 0),
	                  COALESCE(SUM(CASE WHEN occupied = 1 THEN 1 ELSE 0 END), 0),
	                  COALESCE(SUM(CASE WHEN disabled = 1 THEN 1 ELSE 0 END), 0),
	                  COALESCE(SUM(CASE WHEN is_vip = 1 THEN 1 ELSE 0 END), 0)
	           FROM seats
	           WHERE screening_id = ?`
	a := model.SeatAvailability{ScreeningID: screeningID}
	err := r.db.QueryRowContext(ctx, q, screeningID).Scan(&a.Total, &a.Available, &a.Occupied, &a.Disabled, &a.VIP)
	return a, err
}

func idArgs(screeningID uint64, ids []uint64) []interface{} {
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, screeningID)
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
