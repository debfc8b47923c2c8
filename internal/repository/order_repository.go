package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "strings"

    "github.com/iliyamo/cinema-booking/internal/model"
)

// OrderRepo provides persistence for orders and their line items.  The
// write side always runs inside a caller transaction so that the header,
// the lines and the inventory changes commit together.  The read side
// joins screenings, movies and bar products for display; those joins are
// LEFT joins because catalog rows may have been removed since the order
// was placed.
type OrderRepo struct {
    db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// CreateTx inserts an order header within the scope of an existing
// transaction and populates the generated ID.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
    const q = `INSERT INTO orders (user_id, total, subtotal, taxes, service_fee, payment_method, status,
                                   customer_email, customer_name, payment_ref, payment_provider)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q,
        o.UserID, o.Total, o.Subtotal, o.Taxes, o.ServiceFee, o.PaymentMethod, string(o.Status),
        o.CustomerEmail, o.CustomerName, o.PaymentRef, o.PaymentProvider,
    )
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    o.ID = uint64(id)
    return nil
}

// CreateMovieLineTx inserts a movie line.  Seat labels are stored as a
// JSON array; a line without labels stores [].
func (r *OrderRepo) CreateMovieLineTx(ctx context.Context, tx *sql.Tx, l *model.OrderMovieLine) error {
    labels, err := jsonStrings(l.SeatLabels)
    if err != nil {
        return err
    }
    const q = `INSERT INTO order_movie_lines (order_id, screening_id, quantity, unit_price, subtotal, seat_labels, seat_class)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, l.OrderID, l.ScreeningID, l.Quantity, l.UnitPrice, l.Subtotal, labels, l.SeatClass)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    return nil
}

// CreateBarLineTx inserts a concession line.
func (r *OrderRepo) CreateBarLineTx(ctx context.Context, tx *sql.Tx, l *model.OrderBarLine) error {
    extras, err := jsonStrings(l.Extras)
    if err != nil {
        return err
    }
    const q = `INSERT INTO order_bar_lines (order_id, product_id, quantity, unit_price, subtotal, size, extras, notes)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal, l.Size, extras, l.Notes)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    l.ID = uint64(id)
    return nil
}

// LockTx reads an order's owner, status and total with FOR UPDATE so
// that two concurrent transitions of the same order serialize.  Only
// those fields are populated.
func (r *OrderRepo) LockTx(ctx context.Context, tx *sql.Tx, orderID uint64) (*model.Order, error) {
    o := model.Order{ID: orderID}
    var status string
    err := tx.QueryRowContext(ctx, `SELECT user_id, status, total FROM orders WHERE id = ? FOR UPDATE`, orderID).
        Scan(&o.UserID, &status, &o.Total)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    o.Status = model.OrderStatus(status)
    return &o, nil
}

// UpdateStatusTx sets the order status.
func (r *OrderRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, orderID uint64, status model.OrderStatus) error {
    _, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), orderID)
    return err
}

// MovieLinesTx returns the movie lines of an order without display joins.
func (r *OrderRepo) MovieLinesTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.OrderMovieLine, error) {
    const q = `SELECT id, order_id, screening_id, quantity, unit_price, subtotal, seat_labels, seat_class
               FROM order_movie_lines WHERE order_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    lines := make([]model.OrderMovieLine, 0)
    for rows.Next() {
        var l model.OrderMovieLine
        var labels []byte
        if err := rows.Scan(&l.ID, &l.OrderID, &l.ScreeningID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &labels, &l.SeatClass); err != nil {
            return nil, err
        }
        if l.SeatLabels, err = parseStrings(labels); err != nil {
            return nil, err
        }
        lines = append(lines, l)
    }
    return lines, rows.Err()
}

// BarLinesTx returns the bar lines of an order without display joins.
func (r *OrderRepo) BarLinesTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.OrderBarLine, error) {
    const q = `SELECT id, order_id, product_id, quantity, unit_price, subtotal, size, extras, notes
               FROM order_bar_lines WHERE order_id = ? ORDER BY id`
    rows, err := tx.QueryContext(ctx, q, orderID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    lines := make([]model.OrderBarLine, 0)
    for rows.Next() {
        var l model.OrderBarLine
        var extras []byte
        if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.Size, &extras, &l.Notes); err != nil {
            return nil, err
        }
        if l.Extras, err = parseStrings(extras); err != nil {
            return nil, err
        }
        lines = append(lines, l)
    }
    return lines, rows.Err()
}

const orderColumns = `id, user_id, total, subtotal, taxes, service_fee, payment_method, status,
                      customer_email, customer_name, payment_ref, payment_provider, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
    var o model.Order
    var status string
    var payRef, payProvider sql.NullString
    if err := row.Scan(
        &o.ID, &o.UserID, &o.Total, &o.Subtotal, &o.Taxes, &o.ServiceFee, &o.PaymentMethod, &status,
        &o.CustomerEmail, &o.CustomerName, &payRef, &payProvider, &o.CreatedAt,
    ); err != nil {
        return nil, err
    }
    o.Status = model.OrderStatus(status)
    if payRef.Valid {
        ref := payRef.String
        o.PaymentRef = &ref
    }
    if payProvider.Valid {
        p := payProvider.String
        o.PaymentProvider = &p
    }
    return &o, nil
}

// GetByID returns an order header.  ErrOrderNotFound when missing.
func (r *OrderRepo) GetByID(ctx context.Context, orderID uint64) (*model.Order, error) {
    o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrOrderNotFound
        }
        return nil, err
    }
    return o, nil
}

// ListByUser returns a user's order headers, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
    q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    orders := make([]model.Order, 0)
    for rows.Next() {
        o, err := scanOrder(rows)
        if err != nil {
            return nil, err
        }
        orders = append(orders, *o)
    }
    return orders, rows.Err()
}

// MovieLineRow is a movie line with its joined display columns.  The
// joined columns are NULL when the screening or movie no longer exists
// or the movie is inactive.
type MovieLineRow struct {
    model.OrderMovieLine
    MovieTitle  sql.NullString
    PosterURL   sql.NullString
    DurationMin sql.NullInt64
    Date        sql.NullString
    Time        sql.NullString
    Room        sql.NullString
    Format      sql.NullString
}

// BarLineRow is a bar line with its joined product columns.
type BarLineRow struct {
    model.OrderBarLine
    ProductName sql.NullString
    Category    sql.NullString
}

// MovieLineRows returns the movie lines of the given orders.
func (r *OrderRepo) MovieLineRows(ctx context.Context, orderIDs []uint64) ([]MovieLineRow, error) {
    if len(orderIDs) == 0 {
        return []MovieLineRow{}, nil
    }
    q := `SELECT l.id, l.order_id, l.screening_id, l.quantity, l.unit_price, l.subtotal, l.seat_labels, l.seat_class,
                 m.title, m.poster_url, m.duration_min,
                 s.show_date, s.show_time, s.room, s.format
          FROM order_movie_lines l
          LEFT JOIN screenings s ON s.id = l.screening_id
          LEFT JOIN movies m ON m.id = s.movie_id AND m.active = 1
          WHERE l.order_id IN (` + placeholders(len(orderIDs)) + `)
          ORDER BY l.order_id, l.id`
    rows, err := r.db.QueryContext(ctx, q, uint64Args(orderIDs)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]MovieLineRow, 0)
    for rows.Next() {
        var l MovieLineRow
        var labels []byte
        if err := rows.Scan(
            &l.ID, &l.OrderID, &l.ScreeningID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &labels, &l.SeatClass,
            &l.MovieTitle, &l.PosterURL, &l.DurationMin,
            &l.Date, &l.Time, &l.Room, &l.Format,
        ); err != nil {
            return nil, err
        }
        if l.SeatLabels, err = parseStrings(labels); err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

// BarLineRows returns the bar lines of the given orders.
func (r *OrderRepo) BarLineRows(ctx context.Context, orderIDs []uint64) ([]BarLineRow, error) {
    if len(orderIDs) == 0 {
        return []BarLineRow{}, nil
    }
    q := `SELECT l.id, l.order_id, l.product_id, l.quantity, l.unit_price, l.subtotal, l.size, l.extras, l.notes,
                 p.name, p.category
          FROM order_bar_lines l
          LEFT JOIN bar_products p ON p.id = l.product_id AND p.active = 1
          WHERE l.order_id IN (` + placeholders(len(orderIDs)) + `)
          ORDER BY l.order_id, l.id`
    rows, err := r.db.QueryContext(ctx, q, uint64Args(orderIDs)...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]BarLineRow, 0)
    for rows.Next() {
        var l BarLineRow
        var extras []byte
        if err := rows.Scan(
            &l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.Size, &extras, &l.Notes,
            &l.ProductName, &l.Category,
        ); err != nil {
            return nil, err
        }
        if l.Extras, err = parseStrings(extras); err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

func uint64Args(ids []uint64) []interface{} {
    args := make([]interface{}, len(ids))
    for i, id := range ids {
        args[i] = id
    }
    return args
}

func jsonStrings(v []string) (string, error) {
    if v == nil {
        v = []string{}
    }
    b, err := json.Marshal(v)
    return string(b), err
}

func parseStrings(b []byte) ([]string, error) {
    out := []string{}
    if len(strings.TrimSpace(string(b))) == 0 {
        return out, nil
    }
    if err := json.Unmarshal(b, &out); err != nil {
        return nil, err
    }
    return out, nil
}
