package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
    "github.com/iliyamo/cinema-booking/internal/seatplan"
)

// SeatInventory owns the seat grid of every screening.  Seats move
// between available and occupied; disabled is fixed at generation.
type SeatInventory struct {
    db          *sql.DB
    seats       *repository.SeatRepo
    generations *repository.SeatGenerationRepo
    screenings  *repository.ScreeningRepo
    log         *zap.Logger
}

// NewSeatInventory wires a SeatInventory.
func NewSeatInventory(db *sql.DB, seats *repository.SeatRepo, generations *repository.SeatGenerationRepo,
    screenings *repository.ScreeningRepo, log *zap.Logger) *SeatInventory {
    return &SeatInventory{db: db, seats: seats, generations: generations, screenings: screenings, log: log}
}

// Generate materializes the grid for a screening in its own transaction.
func (s *SeatInventory) Generate(ctx context.Context, screeningID uint64, requiredSeats int, roomName string, basePrice decimal.Decimal) (seatplan.GridPlan, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return seatplan.GridPlan{}, &TransactionFailedError{Op: "generate seats", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    plan, err := s.GenerateTx(ctx, tx, screeningID, requiredSeats, roomName, basePrice)
    if err != nil {
        return seatplan.GridPlan{}, err
    }
    if err := tx.Commit(); err != nil {
        return seatplan.GridPlan{}, &TransactionFailedError{Op: "generate seats", Err: err}
    }
    committed = true
    return plan, nil
}

// GenerateTx materializes the grid inside the caller's transaction.  The
// generation marker is inserted first; a concurrent generator blocks on
// its primary key and fails with AlreadyGeneratedError once this
// transaction commits.
func (s *SeatInventory) GenerateTx(ctx context.Context, tx *sql.Tx, screeningID uint64, requiredSeats int, roomName string, basePrice decimal.Decimal) (seatplan.GridPlan, error) {
    if requiredSeats > maxScreeningSeats {
        return seatplan.GridPlan{}, &ValidationError{Issues: []LineIssue{{Index: -1, Field: "available_seats", Message: fmt.Sprintf("must be at most %d", maxScreeningSeats)}}}
    }
    plan, err := seatplan.Plan(roomName, requiredSeats)
    if err != nil {
        return seatplan.GridPlan{}, &ValidationError{Issues: []LineIssue{{Index: -1, Field: "available_seats", Message: "must be at least 1"}}}
    }

    existing, err := s.seats.CountByScreeningTx(ctx, tx, screeningID)
    if err != nil {
        return seatplan.GridPlan{}, &TransactionFailedError{Op: "count seats", Err: err}
    }
    if existing > 0 {
        return seatplan.GridPlan{}, &AlreadyGeneratedError{ScreeningID: screeningID}
    }
    if err := s.generations.InsertTx(ctx, tx, screeningID, plan.Rows, plan.SeatsPerRow); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return seatplan.GridPlan{}, &AlreadyGeneratedError{ScreeningID: screeningID}
        }
        return seatplan.GridPlan{}, &TransactionFailedError{Op: "claim seat generation", Err: err}
    }

    base := basePrice.Round(2)
    vip := vipPrice(basePrice)
    cells := plan.Cells()
    rows := make([]model.Seat, 0, len(cells))
    for _, c := range cells {
        price := base
        if c.VIP {
            price = vip
        }
        rows = append(rows, model.Seat{
            ScreeningID: screeningID,
            Row:         c.Row,
            RowIndex:    c.RowIndex,
            Number:      c.Number,
            IsVIP:       c.VIP,
            Price:       price,
            Disabled:    c.Disabled,
        })
    }
    if err := s.seats.CreateBulkTx(ctx, tx, rows); err != nil {
        return seatplan.GridPlan{}, &TransactionFailedError{Op: "insert seats", Err: err}
    }

    s.log.Info("seat grid generated",
        zap.Uint64("screening_id", screeningID),
        zap.Int("rows", plan.Rows),
        zap.Int("seats_per_row", plan.SeatsPerRow),
        zap.Int("disabled", plan.Surplus()),
    )
    return plan, nil
}

// ListForScreening returns the grid ordered by row then number.  A
// screening without seats gets its grid generated on first read; when
// two readers race, the loser re-reads what the winner wrote.
func (s *SeatInventory) ListForScreening(ctx context.Context, screeningID uint64) ([]model.Seat, error) {
    seats, err := s.seats.ListByScreening(ctx, screeningID)
    if err != nil {
        return nil, err
    }
    if len(seats) > 0 {
        return seats, nil
    }

    scr, err := s.screenings.GetByID(ctx, screeningID)
    if err != nil {
        if errors.Is(err, repository.ErrScreeningNotFound) {
            return nil, &NotFoundError{Resource: "screening", ID: screeningID}
        }
        return nil, err
    }
    if scr.AvailableSeats < 1 {
        return seats, nil
    }

    var already *AlreadyGeneratedError
    if _, err := s.Generate(ctx, screeningID, scr.AvailableSeats, scr.Room, scr.Price); err != nil && !errors.As(err, &already) {
        return nil, err
    }
    return s.seats.ListByScreening(ctx, screeningID)
}

// Reserve occupies the given seats in their own transaction.
func (s *SeatInventory) Reserve(ctx context.Context, screeningID uint64, seatIDs []uint64) ([]model.Seat, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, &TransactionFailedError{Op: "reserve seats", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    seats, err := s.ReserveTx(ctx, tx, screeningID, seatIDs)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, &TransactionFailedError{Op: "reserve seats", Err: err}
    }
    committed = true
    return seats, nil
}

// ReserveTx locks the seats, checks every one is free and marks them
// occupied.  Either the whole batch is taken or nothing is.  The
// returned seats carry their prices.
func (s *SeatInventory) ReserveTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64) ([]model.Seat, error) {
    ids := uniqueIDs(seatIDs)
    if len(ids) == 0 {
        return []model.Seat{}, nil
    }

    locked, err := s.seats.LockByIDsTx(ctx, tx, screeningID, ids)
    if err != nil {
        return nil, &TransactionFailedError{Op: "lock seats", Err: err}
    }
    if len(locked) != len(ids) {
        found := make(map[uint64]bool, len(locked))
        for _, seat := range locked {
            found[seat.ID] = true
        }
        missing := make([]uint64, 0, len(ids)-len(locked))
        for _, id := range ids {
            if !found[id] {
                missing = append(missing, id)
            }
        }
        return nil, &SeatUnavailableError{ScreeningID: screeningID, SeatIDs: missing, Reason: "unknown seat"}
    }

    taken := make([]string, 0)
    for _, seat := range locked {
        if !seat.Available() {
            taken = append(taken, seat.Label())
        }
    }
    if len(taken) > 0 {
        return nil, &SeatUnavailableError{ScreeningID: screeningID, Labels: taken, Reason: "already occupied or disabled"}
    }

    n, err := s.seats.OccupyTx(ctx, tx, screeningID, ids)
    if err != nil {
        return nil, &TransactionFailedError{Op: "occupy seats", Err: err}
    }
    if n != int64(len(ids)) {
        labels := make([]string, 0, len(locked))
        for _, seat := range locked {
            labels = append(labels, seat.Label())
        }
        return nil, &SeatUnavailableError{ScreeningID: screeningID, Labels: labels, Reason: "taken by a concurrent booking"}
    }
    for i := range locked {
        locked[i].Occupied = true
    }
    return locked, nil
}

// Release frees seats in their own transaction.
func (s *SeatInventory) Release(ctx context.Context, screeningID uint64, seatIDs []uint64) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return &TransactionFailedError{Op: "release seats", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := s.ReleaseTx(ctx, tx, screeningID, seatIDs); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return &TransactionFailedError{Op: "release seats", Err: err}
    }
    committed = true
    return nil
}

// ReleaseTx frees seats.  Seats that are already free are skipped, so
// releasing twice is harmless.
func (s *SeatInventory) ReleaseTx(ctx context.Context, tx *sql.Tx, screeningID uint64, seatIDs []uint64) error {
    if _, err := s.seats.ReleaseTx(ctx, tx, screeningID, uniqueIDs(seatIDs)); err != nil {
        return &TransactionFailedError{Op: "release seats", Err: err}
    }
    return nil
}

// ResolveLabelsTx maps printed labels such as "E4" to seat ids, in the
// order given.  Labels that name no seat of the screening are reported
// together as a SeatUnavailableError.
func (s *SeatInventory) ResolveLabelsTx(ctx context.Context, tx *sql.Tx, screeningID uint64, labels []string) ([]uint64, error) {
    rowSet := make(map[string]bool)
    rows := make([]string, 0)
    unknown := make([]string, 0)
    normalized := make([]string, len(labels))
    for i, raw := range labels {
        row, n, ok := seatplan.ParseSeatLabel(raw)
        if !ok {
            unknown = append(unknown, raw)
            continue
        }
        normalized[i] = seatplan.SeatLabel(row, n)
        if !rowSet[row] {
            rowSet[row] = true
            rows = append(rows, row)
        }
    }

    seats, err := s.seats.ListByRowsTx(ctx, tx, screeningID, rows)
    if err != nil {
        return nil, &TransactionFailedError{Op: "resolve seats", Err: err}
    }
    byLabel := make(map[string]uint64, len(seats))
    for _, seat := range seats {
        byLabel[seat.Label()] = seat.ID
    }

    ids := make([]uint64, 0, len(labels))
    for _, label := range normalized {
        if label == "" {
            continue
        }
        id, ok := byLabel[label]
        if !ok {
            unknown = append(unknown, label)
            continue
        }
        ids = append(ids, id)
    }
    if len(unknown) > 0 {
        return nil, &SeatUnavailableError{ScreeningID: screeningID, Labels: unknown, Reason: "unknown seat"}
    }
    return ids, nil
}

// Availability summarises the grid of a screening.
func (s *SeatInventory) Availability(ctx context.Context, screeningID uint64) (model.SeatAvailability, error) {
    if _, err := s.screenings.GetByID(ctx, screeningID); err != nil {
        if errors.Is(err, repository.ErrScreeningNotFound) {
            return model.SeatAvailability{}, &NotFoundError{Resource: "screening", ID: screeningID}
        }
        return model.SeatAvailability{}, err
    }
    return s.seats.Availability(ctx, screeningID)
}

func uniqueIDs(ids []uint64) []uint64 {
    seen := make(map[uint64]bool, len(ids))
    out := make([]uint64, 0, len(ids))
    for _, id := range ids {
        if !seen[id] {
            seen[id] = true
            out = append(out, id)
        }
    }
    return out
}
