package service

import (
    "context"
    "errors"

    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
)

// Display defaults for lines whose catalog rows are gone or inactive.
const (
    MovieUnavailable   = "Movie unavailable"
    ProductUnavailable = "Product unavailable"
    Uncategorized      = "Uncategorized"
)

// OrderQueryService assembles orders for receipts and order history.
type OrderQueryService struct {
    orders *repository.OrderRepo
}

// NewOrderQueryService wires an OrderQueryService.
func NewOrderQueryService(orders *repository.OrderRepo) *OrderQueryService {
    return &OrderQueryService{orders: orders}
}

// GetOrder returns one order with its lines.  requestingUserID is nil for
// admins; otherwise it must own the order.
func (q *OrderQueryService) GetOrder(ctx context.Context, orderID uint64, requestingUserID *uint64) (*model.OrderDetail, error) {
    o, err := q.orders.GetByID(ctx, orderID)
    if err != nil {
        if errors.Is(err, repository.ErrOrderNotFound) {
            return nil, &NotFoundError{Resource: "order", ID: orderID}
        }
        return nil, err
    }
    if requestingUserID != nil && *requestingUserID != o.UserID {
        return nil, &ForbiddenError{OrderID: orderID}
    }
    details, err := q.assemble(ctx, []model.Order{*o})
    if err != nil {
        return nil, err
    }
    return &details[0], nil
}

// ListOrders returns a user's orders, newest first, with their lines.
func (q *OrderQueryService) ListOrders(ctx context.Context, userID uint64) ([]model.OrderDetail, error) {
    orders, err := q.orders.ListByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    return q.assemble(ctx, orders)
}

func (q *OrderQueryService) assemble(ctx context.Context, orders []model.Order) ([]model.OrderDetail, error) {
    out := make([]model.OrderDetail, len(orders))
    if len(orders) == 0 {
        return out, nil
    }
    index := make(map[uint64]int, len(orders))
    ids := make([]uint64, len(orders))
    for i, o := range orders {
        out[i] = model.OrderDetail{
            Order:      o,
            MovieLines: make([]model.MovieLineDetail, 0),
            BarLines:   make([]model.BarLineDetail, 0),
        }
        index[o.ID] = i
        ids[i] = o.ID
    }

    movieRows, err := q.orders.MovieLineRows(ctx, ids)
    if err != nil {
        return nil, err
    }
    for _, r := range movieRows {
        i := index[r.OrderID]
        out[i].MovieLines = append(out[i].MovieLines, movieLineDetail(r))
    }

    barRows, err := q.orders.BarLineRows(ctx, ids)
    if err != nil {
        return nil, err
    }
    for _, r := range barRows {
        i := index[r.OrderID]
        out[i].BarLines = append(out[i].BarLines, barLineDetail(r))
    }
    return out, nil
}

func movieLineDetail(r repository.MovieLineRow) model.MovieLineDetail {
    d := model.MovieLineDetail{
        OrderMovieLine: r.OrderMovieLine,
        MovieTitle:     MovieUnavailable,
    }
    if r.MovieTitle.Valid && r.MovieTitle.String != "" {
        d.MovieTitle = r.MovieTitle.String
        d.PosterURL = r.PosterURL.String
        d.DurationMin = int(r.DurationMin.Int64)
    }
    d.Date = r.Date.String
    d.Time = r.Time.String
    d.Room = r.Room.String
    d.Format = r.Format.String
    return d
}

func barLineDetail(r repository.BarLineRow) model.BarLineDetail {
    d := model.BarLineDetail{
        OrderBarLine: r.OrderBarLine,
        ProductName:  ProductUnavailable,
        Category:     Uncategorized,
    }
    if r.ProductName.Valid && r.ProductName.String != "" {
        d.ProductName = r.ProductName.String
    }
    if r.Category.Valid && r.Category.String != "" {
        d.Category = r.Category.String
    }
    return d
}
