package repository

import (
	"context"
	"database/sql"
)

// SeatGenerationRepo records that a screening's grid has been generated.
// The table's primary key on screening_id is what serializes concurrent
// generation attempts: the loser of the race gets ErrDuplicate.
type SeatGenerationRepo struct {
	db *sql.DB
}

// NewSeatGenerationRepo constructs a SeatGenerationRepo.
func NewSeatGenerationRepo(db *sql.DB) *SeatGenerationRepo {
	return &SeatGenerationRepo{db: db}
}

// InsertTx claims generation for a screening.
func (r *SeatGenerationRepo) InsertTx(ctx context.Context, tx *sql.Tx, screeningID uint64, rows, seatsPerRow int) error {
	const q = `INSERT INTO seat_generations (screening_id, grid_rows, seats_per_row) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, screeningID, rows, seatsPerRow); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
