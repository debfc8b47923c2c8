package handler // handler defines http handlers

import (
    "errors"   // errors provides sentinel values used in getUserID
    "net/http" // net/http provides status codes
    "strconv"  // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types
    "go.uber.org/zap"             // zap logs unexpected failures

    "github.com/iliyamo/cinema-booking/internal/middleware" // context keys set by JWTAuth
    "github.com/iliyamo/cinema-booking/internal/service"    // typed domain errors
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get(middleware.CtxUserID)
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the caller authenticated with the ADMIN role.
func isAdmin(c echo.Context) bool {
    role, _ := c.Get(middleware.CtxRole).(string)
    return role == middleware.RoleAdmin
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// writeError maps service errors onto HTTP responses.  Anything that is not
// a typed domain error is a 500 and its details are not exposed.
func writeError(c echo.Context, log *zap.Logger, err error) error {
    var (
        verr     *service.ValidationError
        seats    *service.SeatUnavailableError
        already  *service.AlreadyGeneratedError
        notFound *service.NotFoundError
        denied   *service.ForbiddenError
        state    *service.InvalidStateTransitionError
        stock    *service.OutOfStockError
    )
    switch {
    case errors.As(err, &verr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "issues": verr.Issues})
    case errors.As(err, &seats):
        body := echo.Map{"error": seats.Reason, "screening_id": seats.ScreeningID}
        if len(seats.Labels) > 0 {
            body["seats"] = seats.Labels
        }
        if len(seats.SeatIDs) > 0 {
            body["seat_ids"] = seats.SeatIDs
        }
        return c.JSON(http.StatusConflict, body)
    case errors.As(err, &already):
        return c.JSON(http.StatusConflict, echo.Map{"error": already.Error()})
    case errors.As(err, &stock):
        return c.JSON(http.StatusConflict, echo.Map{"error": stock.Error(), "product_id": stock.ProductID})
    case errors.As(err, &state):
        return c.JSON(http.StatusConflict, echo.Map{"error": state.Error(), "from": state.From, "to": state.To})
    case errors.As(err, &notFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFound.Resource + " not found"})
    case errors.As(err, &denied):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    log.Error("request failed",
        zap.String("request_id", middleware.GetRequestID(c)),
        zap.String("path", c.Path()),
        zap.Error(err),
    )
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
