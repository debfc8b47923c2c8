package service

import (
    "context"
    "database/sql"
    "errors"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
)

// RewardsNotifier receives completed orders for loyalty points.  It is
// called after commit and its failures never affect the order.
type RewardsNotifier interface {
    NotifyOrderCompleted(ctx context.Context, userID uint64, total decimal.Decimal, orderID uint64) error
}

const rewardsTimeout = 10 * time.Second

// BookingService places orders and moves them through their lifecycle.
// Every operation is one database transaction; nothing it does is
// visible until that transaction commits.
type BookingService struct {
    db          *sql.DB
    orders      *repository.OrderRepo
    screenings  *repository.ScreeningRepo
    concessions *repository.ConcessionRepo
    inventory   *SeatInventory
    rewards     RewardsNotifier
    log         *zap.Logger

    notifications sync.WaitGroup
}

// NewBookingService wires a BookingService.  rewards may be nil.
func NewBookingService(db *sql.DB, orders *repository.OrderRepo, screenings *repository.ScreeningRepo,
    concessions *repository.ConcessionRepo, inventory *SeatInventory, rewards RewardsNotifier, log *zap.Logger) *BookingService {
    return &BookingService{
        db:          db,
        orders:      orders,
        screenings:  screenings,
        concessions: concessions,
        inventory:   inventory,
        rewards:     rewards,
        log:         log,
    }
}

// CreateOrder validates and prices the cart, then writes the order, its
// lines and every inventory change in one READ COMMITTED transaction.
// Payment has already succeeded when this is called, so the order is
// stored as completed.
func (b *BookingService) CreateOrder(ctx context.Context, cart model.Cart) (*model.PlacedOrder, error) {
    if err := ValidateCart(&cart); err != nil {
        return nil, err
    }
    totals := ComputeTotals(cart.Lines)

    tx, err := b.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
    if err != nil {
        return nil, &TransactionFailedError{Op: "create order", Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    placed := &model.PlacedOrder{
        Order: model.Order{
            UserID:          cart.UserID,
            Total:           totals.Total,
            Subtotal:        totals.Subtotal,
            Taxes:           totals.Taxes,
            ServiceFee:      totals.ServiceFee,
            PaymentMethod:   cart.PaymentMethod,
            Status:          model.OrderCompleted,
            CustomerEmail:   cart.CustomerEmail,
            CustomerName:    cart.CustomerName,
            PaymentRef:      cart.PaymentRef,
            PaymentProvider: cart.PaymentProvider,
            CreatedAt:       time.Now().UTC(),
        },
        MovieLines: make([]model.OrderMovieLine, 0),
        BarLines:   make([]model.OrderBarLine, 0),
    }
    if err := b.orders.CreateTx(ctx, tx, &placed.Order); err != nil {
        return nil, &TransactionFailedError{Op: "insert order", Err: err}
    }

    for _, i := range lockOrder(cart.Lines) {
        switch l := cart.Lines[i].(type) {
        case model.MovieLine:
            ml, err := b.bookMovieLineTx(ctx, tx, placed.ID, i, l)
            if err != nil {
                return nil, txFailure("book movie line", err)
            }
            placed.MovieLines = append(placed.MovieLines, ml)
        case model.BarLine:
            bl, err := b.bookBarLineTx(ctx, tx, placed.ID, l)
            if err != nil {
                return nil, txFailure("book bar line", err)
            }
            placed.BarLines = append(placed.BarLines, bl)
        default:
            // ValidateCart rejects every other line type.
            return nil, &ValidationError{Issues: []LineIssue{{Index: i, Field: "type", Message: "unknown item type"}}}
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, &TransactionFailedError{Op: "commit order", Err: err}
    }
    committed = true

    b.log.Info("order placed",
        zap.Uint64("order_id", placed.ID),
        zap.Uint64("user_id", placed.UserID),
        zap.String("total", placed.Total.StringFixed(2)),
        zap.Int("movie_lines", len(placed.MovieLines)),
        zap.Int("bar_lines", len(placed.BarLines)),
    )
    b.notifyRewards(placed.UserID, placed.Total, placed.ID)
    return placed, nil
}

// lockOrder returns the cart line indexes in the order their rows are
// locked: movie lines by screening id, then bar lines by product id.
// restoreInventoryTx must visit rows in the same order.
func lockOrder(lines []model.CartLine) []int {
    idx := make([]int, len(lines))
    for i := range idx {
        idx[i] = i
    }
    rank := func(l model.CartLine) (int, uint64) {
        switch v := l.(type) {
        case model.MovieLine:
            return 0, v.ScreeningID
        case model.BarLine:
            return 1, v.ProductID
        }
        return 2, 0
    }
    sort.SliceStable(idx, func(a, b int) bool {
        ka, ida := rank(lines[idx[a]])
        kb, idb := rank(lines[idx[b]])
        if ka != kb {
            return ka < kb
        }
        return ida < idb
    })
    return idx
}

func (b *BookingService) bookMovieLineTx(ctx context.Context, tx *sql.Tx, orderID uint64, index int, l model.MovieLine) (model.OrderMovieLine, error) {
    ml := model.OrderMovieLine{
        OrderID:     orderID,
        ScreeningID: l.ScreeningID,
        Quantity:    l.Quantity,
        UnitPrice:   l.UnitPrice.Round(2),
        Subtotal:    lineSubtotal(l).Round(2),
        SeatLabels:  l.SeatLabels,
        SeatClass:   l.SeatClass,
    }
    if ml.SeatLabels == nil {
        ml.SeatLabels = []string{}
    }
    if err := b.orders.CreateMovieLineTx(ctx, tx, &ml); err != nil {
        return ml, err
    }

    if err := b.screenings.DecrementAvailableTx(ctx, tx, l.ScreeningID, l.Quantity); err != nil {
        switch {
        case errors.Is(err, repository.ErrScreeningNotFound), errors.Is(err, repository.ErrScreeningInactive):
            return ml, &NotFoundError{Resource: "screening", ID: l.ScreeningID}
        case errors.Is(err, repository.ErrInsufficientSeats):
            return ml, &SeatUnavailableError{ScreeningID: l.ScreeningID, Reason: "not enough seats left"}
        }
        return ml, err
    }

    if len(l.SeatLabels) == 0 {
        return ml, nil
    }
    ids, err := b.inventory.ResolveLabelsTx(ctx, tx, l.ScreeningID, l.SeatLabels)
    if err != nil {
        return ml, err
    }
    seats, err := b.inventory.ReserveTx(ctx, tx, l.ScreeningID, ids)
    if err != nil {
        return ml, err
    }
    return ml, checkSeatPricing(index, l, seats)
}

// checkSeatPricing rejects a line whose seat class or unit price does not
// cover the seats it reserved.
func checkSeatPricing(index int, l model.MovieLine, seats []model.Seat) error {
    verr := &ValidationError{}
    wantVIP := l.SeatClass == SeatClassVIP
    mismatched := make([]string, 0)
    highest := decimal.Zero
    for _, seat := range seats {
        if seat.IsVIP != wantVIP {
            mismatched = append(mismatched, seat.Label())
        }
        if seat.Price.GreaterThan(highest) {
            highest = seat.Price
        }
    }
    if len(mismatched) > 0 {
        verr.add(index, "seat_class", "does not match seats "+strings.Join(mismatched, ","))
    }
    if l.UnitPrice.Round(2).LessThan(highest) {
        verr.add(index, "unit_price", "must be at least "+highest.StringFixed(2))
    }
    return verr.orNil()
}

func (b *BookingService) bookBarLineTx(ctx context.Context, tx *sql.Tx, orderID uint64, l model.BarLine) (model.OrderBarLine, error) {
    bl := model.OrderBarLine{
        OrderID:   orderID,
        ProductID: l.ProductID,
        Quantity:  l.Quantity,
        UnitPrice: l.UnitPrice.Round(2),
        Subtotal:  lineSubtotal(l).Round(2),
        Size:      l.Size,
        Extras:    l.Extras,
        Notes:     l.Notes,
    }
    if err := b.orders.CreateBarLineTx(ctx, tx, &bl); err != nil {
        return bl, err
    }
    if err := b.concessions.DecrementStockTx(ctx, tx, l.ProductID, l.Quantity); err != nil {
        switch {
        case errors.Is(err, repository.ErrProductNotFound):
            return bl, &NotFoundError{Resource: "product", ID: l.ProductID}
        case errors.Is(err, repository.ErrInsufficientStock):
            return bl, &OutOfStockError{ProductID: l.ProductID, Requested: l.Quantity}
        }
        return bl, err
    }
    return bl, nil
}

// CancelOrder cancels a pending order and gives its seats back.
// requestingUserID is nil for admins; otherwise it must own the order.
func (b *BookingService) CancelOrder(ctx context.Context, orderID uint64, requestingUserID *uint64) error {
    return b.transition(ctx, orderID, requestingUserID, model.OrderCancelled)
}

// CompleteOrder confirms a pending order.
func (b *BookingService) CompleteOrder(ctx context.Context, orderID uint64) error {
    return b.transition(ctx, orderID, nil, model.OrderCompleted)
}

// RefundOrder refunds a completed order and gives its seats back.
func (b *BookingService) RefundOrder(ctx context.Context, orderID uint64) error {
    return b.transition(ctx, orderID, nil, model.OrderRefunded)
}

func (b *BookingService) transition(ctx context.Context, orderID uint64, requestingUserID *uint64, to model.OrderStatus) error {
    op := "transition order to " + string(to)
    tx, err := b.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
    if err != nil {
        return &TransactionFailedError{Op: op, Err: err}
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    order, err := b.orders.LockTx(ctx, tx, orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return &NotFoundError{Resource: "order", ID: orderID}
        }
        return &TransactionFailedError{Op: op, Err: err}
    }
    if requestingUserID != nil && *requestingUserID != order.UserID {
        return &ForbiddenError{OrderID: orderID}
    }
    if !model.CanTransition(order.Status, to) {
        return &InvalidStateTransitionError{From: order.Status, To: to}
    }
    if err := b.orders.UpdateStatusTx(ctx, tx, orderID, to); err != nil {
        return &TransactionFailedError{Op: op, Err: err}
    }
    if to.ReleasesSeats() {
        if err := b.restoreInventoryTx(ctx, tx, orderID); err != nil {
            return txFailure(op, err)
        }
    }

    if err := tx.Commit(); err != nil {
        return &TransactionFailedError{Op: op, Err: err}
    }
    committed = true

    b.log.Info("order status changed",
        zap.Uint64("order_id", orderID),
        zap.String("from", string(order.Status)),
        zap.String("to", string(to)),
    )
    if to == model.OrderCompleted {
        b.notifyRewards(order.UserID, order.Total, orderID)
    }
    return nil
}

// restoreInventoryTx returns each line's quantity to its screening,
// releases its labelled seats and puts bar stock back.  Rows are visited
// in the same order CreateOrder locks them.
func (b *BookingService) restoreInventoryTx(ctx context.Context, tx *sql.Tx, orderID uint64) error {
    movieLines, err := b.orders.MovieLinesTx(ctx, tx, orderID)
    if err != nil {
        return err
    }
    sort.SliceStable(movieLines, func(i, j int) bool { return movieLines[i].ScreeningID < movieLines[j].ScreeningID })
    for _, ml := range movieLines {
        if err := b.screenings.IncrementAvailableTx(ctx, tx, ml.ScreeningID, ml.Quantity); err != nil {
            return err
        }
        if len(ml.SeatLabels) == 0 {
            continue
        }
        ids, err := b.inventory.ResolveLabelsTx(ctx, tx, ml.ScreeningID, ml.SeatLabels)
        if err != nil {
            return err
        }
        if err := b.inventory.ReleaseTx(ctx, tx, ml.ScreeningID, ids); err != nil {
            return err
        }
    }

    barLines, err := b.orders.BarLinesTx(ctx, tx, orderID)
    if err != nil {
        return err
    }
    sort.SliceStable(barLines, func(i, j int) bool { return barLines[i].ProductID < barLines[j].ProductID })
    for _, bl := range barLines {
        if err := b.concessions.RestoreStockTx(ctx, tx, bl.ProductID, bl.Quantity); err != nil {
            return err
        }
    }
    return nil
}

// notifyRewards runs the rewards call in the background.
func (b *BookingService) notifyRewards(userID uint64, total decimal.Decimal, orderID uint64) {
    if b.rewards == nil {
        return
    }
    b.notifications.Add(1)
    go func() {
        defer b.notifications.Done()
        ctx, cancel := context.WithTimeout(context.Background(), rewardsTimeout)
        defer cancel()
        if err := b.rewards.NotifyOrderCompleted(ctx, userID, total, orderID); err != nil {
            b.log.Warn("rewards notification failed",
                zap.Uint64("order_id", orderID),
                zap.Uint64("user_id", userID),
                zap.Error(err),
            )
        }
    }()
}

// Wait blocks until background rewards notifications have finished.
func (b *BookingService) Wait() {
    b.notifications.Wait()
}
