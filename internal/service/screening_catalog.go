package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
)

// ScreeningCatalog schedules screenings.  Creating a screening also
// generates its seat grid in the same transaction, so a screening is
// never visible without seats.
type ScreeningCatalog struct {
    db         *sql.DB
    screenings *repository.ScreeningRepo
    inventory  *SeatInventory
    log        *zap.Logger
}

// NewScreeningCatalog wires a ScreeningCatalog.
func NewScreeningCatalog(db *sql.DB, screenings *repository.ScreeningRepo, inventory *SeatInventory, log *zap.Logger) *ScreeningCatalog {
    return &ScreeningCatalog{db: db, screenings: screenings, inventory: inventory, log: log}
}

// maxScreeningSeats bounds the grid a single screening can have.
const maxScreeningSeats = 1000

func validateNewScreening(in *model.NewScreening) error {
    verr := &ValidationError{}
    in.Room = strings.TrimSpace(in.Room)
    in.Format = strings.TrimSpace(in.Format)
    if in.Format == "" {
        in.Format = "2D"
    }
    if in.MovieID == 0 {
        verr.add(-1, "movie_id", "is required")
    }
    if in.Room == "" {
        verr.add(-1, "room", "is required")
    }
    if !in.Price.IsPositive() {
        verr.add(-1, "price", "must be greater than 0")
    }
    if in.Capacity < 1 || in.Capacity > maxScreeningSeats {
        verr.add(-1, "available_seats", fmt.Sprintf("must be between 1 and %d", maxScreeningSeats))
    }
    if _, err := time.Parse("2006-01-02", in.Date); err != nil {
        verr.add(-1, "date", "must be YYYY-MM-DD")
    }
    if _, err := time.Parse("15:04", in.Time); err != nil {
        verr.add(-1, "time", "must be HH:MM")
    }
    return verr.orNil()
}

// CreateScreening inserts the screening and generates its seats.
func (c *ScreeningCatalog) CreateScreening(ctx context.Context, in model.NewScreening) (*model.Screening, error) {
    if err := validateNewScreening(&in); err != nil {
        return nil, err
    }

    tx, err := c.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, &TransactionFailedError{Op: "create screening", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    scr := &model.Screening{
        MovieID:        in.MovieID,
        Date:           in.Date,
        Time:           in.Time,
        Room:           in.Room,
        Price:          in.Price.Round(2),
        AvailableSeats: in.Capacity,
        Format:         in.Format,
    }
    if err := c.screenings.CreateTx(ctx, tx, scr); err != nil {
        return nil, &TransactionFailedError{Op: "create screening", Err: err}
    }
    if _, err := c.inventory.GenerateTx(ctx, tx, scr.ID, in.Capacity, in.Room, scr.Price); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, &TransactionFailedError{Op: "create screening", Err: err}
    }
    committed = true

    c.log.Info("screening created", zap.Uint64("screening_id", scr.ID), zap.String("room", scr.Room), zap.Int("capacity", scr.AvailableSeats))
    return scr, nil
}

// GetScreening returns one screening, active or not.
func (c *ScreeningCatalog) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
    scr, err := c.screenings.GetByID(ctx, id)
    if errors.Is(err, repository.ErrScreeningNotFound) {
        return nil, &NotFoundError{Resource: "screening", ID: id}
    }
    return scr, err
}

// ListScreenings returns screenings matching the filter.
func (c *ScreeningCatalog) ListScreenings(ctx context.Context, f repository.ScreeningFilter) ([]model.Screening, error) {
    if f.Date != "" {
        if _, err := time.Parse("2006-01-02", f.Date); err != nil {
            return nil, &ValidationError{Issues: []LineIssue{{Index: -1, Field: "date", Message: "must be YYYY-MM-DD"}}}
        }
    }
    return c.screenings.List(ctx, f)
}

// Deactivate hides a screening from sale.  Its seats and the orders that
// reference it are kept.
func (c *ScreeningCatalog) Deactivate(ctx context.Context, id uint64) error {
    err := c.screenings.Deactivate(ctx, id)
    if errors.Is(err, repository.ErrScreeningNotFound) {
        return &NotFoundError{Resource: "screening", ID: id}
    }
    if err == nil {
        c.log.Info("screening deactivated", zap.Uint64("screening_id", id))
    }
    return err
}
