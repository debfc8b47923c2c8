package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	return tx
}

func TestSeatRepo_CreateBulkTx_SingleStatement(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)

	seats := []model.Seat{
		{ScreeningID: 7, Row: "A", RowIndex: 0, Number: 1, Price: decimal.RequireFromString("9.00")},
		{ScreeningID: 7, Row: "A", RowIndex: 0, Number: 2, Price: decimal.RequireFromString("9.00"), Disabled: true},
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seats (screening_id, row_label, row_index, seat_number, is_vip, price, occupied, disabled) VALUES (?, ?, ?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?, ?, ?)")).
		WithArgs(uint64(7), "A", 0, 1, false, sqlmock.AnyArg(), false, false, uint64(7), "A", 0, 2, false, sqlmock.AnyArg(), false, true).
		WillReturnResult(sqlmock.NewResult(1, 2))

	require.NoError(t, NewSeatRepo(db).CreateBulkTx(context.Background(), tx, seats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepo_CreateBulkTx_SplitsLargeGrids(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)

	seats := make([]model.Seat, seatInsertBatch+5)
	for i := range seats {
		seats[i] = model.Seat{ScreeningID: 7, Row: "A", Number: i + 1, Price: decimal.RequireFromString("9.00")}
	}
	mock.ExpectExec("INSERT INTO seats").WillReturnResult(sqlmock.NewResult(1, seatInsertBatch))
	mock.ExpectExec("INSERT INTO seats").WillReturnResult(sqlmock.NewResult(1, 5))

	require.NoError(t, NewSeatRepo(db).CreateBulkTx(context.Background(), tx, seats))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepo_OccupyTx_ReportsAffectedRows(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)

	mock.ExpectExec("UPDATE seats SET occupied = 1").
		WithArgs(uint64(3), uint64(10), uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := NewSeatRepo(db).OccupyTx(context.Background(), tx, 3, []uint64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepo_ListByScreening_OrdersByRowIndex(t *testing.T) {
	db, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "screening_id", "row_label", "row_index", "seat_number", "is_vip", "price", "occupied", "disabled"}).
		AddRow(1, 5, "Z", 25, 1, false, "8.00", false, false).
		AddRow(2, 5, "AA", 26, 1, true, "12.00", true, false)
	mock.ExpectQuery("ORDER BY row_index, seat_number").WithArgs(uint64(5)).WillReturnRows(rows)

	seats, err := NewSeatRepo(db).ListByScreening(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "AA1", seats[1].Label())
	assert.True(t, seats[1].IsVIP)
	assert.True(t, seats[1].Price.Equal(decimal.NewFromInt(12)))
	assert.False(t, seats[1].Available())
}

func TestSeatGenerationRepo_InsertTx_MapsDuplicateKey(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)

	mock.ExpectExec("INSERT INTO seat_generations").
		WithArgs(uint64(9), 6, 10).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '9' for key 'PRIMARY'"})

	err := NewSeatGenerationRepo(db).InsertTx(context.Background(), tx, 9, 6, 10)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestScreeningRepo_DecrementAvailableTx(t *testing.T) {
	cases := []struct {
		name    string
		lookup  *sqlmock.Rows
		wantErr error
	}{
		{"missing", sqlmock.NewRows([]string{"active", "available_seats"}), ErrScreeningNotFound},
		{"inactive", sqlmock.NewRows([]string{"active", "available_seats"}).AddRow(false, 40), ErrScreeningInactive},
		{"sold out", sqlmock.NewRows([]string{"active", "available_seats"}).AddRow(true, 1), ErrInsufficientSeats},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			tx := beginTx(t, db, mock)
			mock.ExpectExec("UPDATE screenings SET available_seats = available_seats -").
				WithArgs(2, uint64(4), 2).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery("SELECT active, available_seats FROM screenings").
				WithArgs(uint64(4)).
				WillReturnRows(tc.lookup)

			err := NewScreeningRepo(db).DecrementAvailableTx(context.Background(), tx, 4, 2)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestScreeningRepo_DecrementAvailableTx_Success(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)
	mock.ExpectExec("UPDATE screenings SET available_seats = available_seats -").
		WithArgs(2, uint64(4), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewScreeningRepo(db).DecrementAvailableTx(context.Background(), tx, 4, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScreeningRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM screenings WHERE id = ?").WithArgs(uint64(1)).WillReturnError(sql.ErrNoRows)

	_, err := NewScreeningRepo(db).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrScreeningNotFound)
}

func TestScreeningRepo_List_AppliesFilters(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "movie_id", "show_date", "show_time", "room", "price", "available_seats", "format", "active", "created_at"}).
		AddRow(1, 3, "2025-06-01", "18:30", "Sala 2", "9.50", 70, "2D", true, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE movie_id = ? AND active = 1 ORDER BY show_date, show_time, room")).
		WithArgs(uint64(3)).
		WillReturnRows(rows)

	out, err := NewScreeningRepo(db).List(context.Background(), ScreeningFilter{MovieID: 3, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Sala 2", out[0].Room)
	assert.True(t, out[0].Price.Equal(decimal.RequireFromString("9.5")))
}

func TestConcessionRepo_DecrementStockTx(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)
	mock.ExpectExec("UPDATE bar_products SET stock = stock -").
		WithArgs(3, uint64(2), 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT active FROM bar_products").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"active"}).AddRow(true))

	err := NewConcessionRepo(db).DecrementStockTx(context.Background(), tx, 2, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepo_LockTx(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)
	mock.ExpectQuery("SELECT user_id, status, total FROM orders WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT user_id, status, total FROM orders WHERE id = \\? FOR UPDATE").
		WithArgs(uint64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "status", "total"}).AddRow(4, "pending", "21.60"))

	repo := NewOrderRepo(db)
	_, err := repo.LockTx(context.Background(), tx, 99)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	o, err := repo.LockTx(context.Background(), tx, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), o.UserID)
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, "21.6", o.Total.String())
}

func TestOrderRepo_CreateMovieLineTx_StoresLabelsAsJSON(t *testing.T) {
	db, mock := newMock(t)
	tx := beginTx(t, db, mock)
	mock.ExpectExec("INSERT INTO order_movie_lines").
		WithArgs(uint64(1), uint64(5), 2, sqlmock.AnyArg(), sqlmock.AnyArg(), `["E4","E5"]`, "vip").
		WillReturnResult(sqlmock.NewResult(12, 1))

	line := &model.OrderMovieLine{
		OrderID: 1, ScreeningID: 5, Quantity: 2,
		UnitPrice: decimal.NewFromInt(10), Subtotal: decimal.NewFromInt(20),
		SeatLabels: []string{"E4", "E5"}, SeatClass: "vip",
	}
	require.NoError(t, NewOrderRepo(db).CreateMovieLineTx(context.Background(), tx, line))
	assert.Equal(t, uint64(12), line.ID)
}

func TestOrderRepo_MovieLineRows_KeepsNullJoins(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{
		"id", "order_id", "screening_id", "quantity", "unit_price", "subtotal", "seat_labels", "seat_class",
		"title", "poster_url", "duration_min", "show_date", "show_time", "room", "format",
	}).
		AddRow(1, 8, 5, 2, "10.00", "20.00", []byte(`["A1","A2"]`), "standard", nil, nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery("LEFT JOIN screenings").WithArgs(uint64(8)).WillReturnRows(rows)

	out, err := NewOrderRepo(db).MovieLineRows(context.Background(), []uint64{8})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"A1", "A2"}, out[0].SeatLabels)
	assert.False(t, out[0].MovieTitle.Valid)
	assert.True(t, out[0].Subtotal.Equal(decimal.NewFromInt(20)))
}
