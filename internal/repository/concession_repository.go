package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ConcessionRepo adjusts bar product stock.  Product CRUD lives in the
// catalog service; this repository only takes units out and puts them
// back as orders are placed and cancelled.
type ConcessionRepo struct {
	db *sql.DB
}

// NewConcessionRepo constructs a ConcessionRepo.
func NewConcessionRepo(db *sql.DB) *ConcessionRepo {
	return &ConcessionRepo{db: db}
}

// DecrementStockTx removes qty units of a product.  It fails with
// ErrProductNotFound for unknown or inactive products and with
// ErrInsufficientStock when fewer than qty units remain.
func (r *ConcessionRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, productID uint64, qty int) error {
	const q = `UPDATE bar_products SET stock = stock - ?
	           WHERE id = ? AND active = 1 AND stock >= ?`
	res, err := tx.ExecContext(ctx, q, qty, productID, qty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	var active bool
	err = tx.QueryRowContext(ctx, `SELECT active FROM bar_products WHERE id = ?`, productID).Scan(&active)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrProductNotFound
	case err != nil:
		return err
	case !active:
		return ErrProductNotFound
	default:
		return ErrInsufficientStock
	}
}

// RestoreStockTx puts qty units back.  Inactive products still get their
// stock back so the count stays correct if they are re-enabled.
func (r *ConcessionRepo) RestoreStockTx(ctx context.Context, tx *sql.Tx, productID uint64, qty int) error {
	_, err := tx.ExecContext(ctx, `UPDATE bar_products SET stock = stock + ? WHERE id = ?`, qty, productID)
	return err
}
