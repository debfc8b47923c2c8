package handler

import (
    "context"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/model"
    "github.com/iliyamo/cinema-booking/internal/repository"
)

// ScreeningCatalog is the part of service.ScreeningCatalog the HTTP layer uses.
type ScreeningCatalog interface {
    CreateScreening(ctx context.Context, in model.NewScreening) (*model.Screening, error)
    GetScreening(ctx context.Context, id uint64) (*model.Screening, error)
    ListScreenings(ctx context.Context, f repository.ScreeningFilter) ([]model.Screening, error)
    Deactivate(ctx context.Context, id uint64) error
}

// SeatInventory is the read side of service.SeatInventory.
type SeatInventory interface {
    ListForScreening(ctx context.Context, screeningID uint64) ([]model.Seat, error)
    Availability(ctx context.Context, screeningID uint64) (model.SeatAvailability, error)
}

// ScreeningHandler serves screening browsing and admin scheduling.
type ScreeningHandler struct {
    Catalog   ScreeningCatalog
    Inventory SeatInventory
    Log       *zap.Logger
}

// NewScreeningHandler constructs a ScreeningHandler and panics if a
// dependency is missing.
func NewScreeningHandler(catalog ScreeningCatalog, seats SeatInventory, log *zap.Logger) *ScreeningHandler {
    if catalog == nil || seats == nil || log == nil {
        panic("nil dependency passed to NewScreeningHandler")
    }
    return &ScreeningHandler{Catalog: catalog, Inventory: seats, Log: log}
}

// List handles GET /v1/screenings.  Optional filters: ?movie_id= and
// ?date=YYYY-MM-DD.  Inactive screenings are hidden unless
// ?include_inactive=true.
func (h *ScreeningHandler) List(c echo.Context) error {
    f := repository.ScreeningFilter{ActiveOnly: true, Date: c.QueryParam("date")}
    if raw := c.QueryParam("movie_id"); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil || id == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
        }
        f.MovieID = id
    }
    if v, err := strconv.ParseBool(c.QueryParam("include_inactive")); err == nil && v {
        f.ActiveOnly = false
    }
    list, err := h.Catalog.ListScreenings(c.Request().Context(), f)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"screenings": list, "count": len(list)})
}

// Get handles GET /v1/screenings/:id.
func (h *ScreeningHandler) Get(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    scr, err := h.Catalog.GetScreening(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, scr)
}

type seatRow struct {
    Row   string       `json:"row"`
    Seats []model.Seat `json:"seats"`
}

// Seats handles GET /v1/screenings/:id/seats.  The grid is grouped by row
// in display order and generated on first access.
func (h *ScreeningHandler) Seats(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    seats, err := h.Inventory.ListForScreening(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    rows := make([]seatRow, 0)
    for _, s := range seats {
        if n := len(rows); n == 0 || rows[n-1].Row != s.Row {
            rows = append(rows, seatRow{Row: s.Row, Seats: make([]model.Seat, 0)})
        }
        last := &rows[len(rows)-1]
        last.Seats = append(last.Seats, s)
    }
    return c.JSON(http.StatusOK, echo.Map{"screening_id": id, "rows": rows})
}

// Availability handles GET /v1/screenings/:id/availability.
func (h *ScreeningHandler) Availability(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    a, err := h.Inventory.Availability(c.Request().Context(), id)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, a)
}

// Create handles POST /v1/admin/screenings.  The seat grid is generated
// together with the screening.
func (h *ScreeningHandler) Create(c echo.Context) error {
    var in model.NewScreening
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    scr, err := h.Catalog.CreateScreening(c.Request().Context(), in)
    if err != nil {
        return writeError(c, h.Log, err)
    }
    return c.JSON(http.StatusCreated, scr)
}

// Deactivate handles POST /v1/admin/screenings/:id/deactivate.
func (h *ScreeningHandler) Deactivate(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screening id"})
    }
    if err := h.Catalog.Deactivate(c.Request().Context(), id); err != nil {
        return writeError(c, h.Log, err)
    }
    return c.NoContent(http.StatusNoContent)
}
