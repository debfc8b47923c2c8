package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"
)

const (
    RequestIDHeader = echo.HeaderXRequestID
    requestIDKey    = "request_id"
)

// RequestID keeps an incoming X-Request-ID or assigns a new one and
// echoes it on the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(RequestIDHeader)
            if id == "" {
                id = uuid.NewString()
            }
            c.Set(requestIDKey, id)
            c.Response().Header().Set(RequestIDHeader, id)
            return next(c)
        }
    }
}

// GetRequestID returns the request id set by RequestID, or "".
func GetRequestID(c echo.Context) string {
    if id, ok := c.Get(requestIDKey).(string); ok {
        return id
    }
    return ""
}

// Logger writes one line per request.  5xx responses log at error level,
// 4xx at warn.
func Logger(log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // Let echo's error handler write the response so the
                // logged status matches what the client saw.
                c.Error(err)
            }

            req := c.Request()
            res := c.Response()
            fields := []zap.Field{
                zap.String("request_id", GetRequestID(c)),
                zap.Int("status", res.Status),
                zap.String("method", req.Method),
                zap.String("path", req.URL.Path),
                zap.String("route", c.Path()),
                zap.String("ip", c.RealIP()),
                zap.Duration("latency", time.Since(start)),
                zap.Int64("bytes_out", res.Size),
            }
            if uid, ok := authenticatedUser(c); ok {
                fields = append(fields, zap.Uint64("user_id", uid))
            }
            if err != nil {
                fields = append(fields, zap.Error(err))
            }

            switch {
            case res.Status >= 500:
                log.Error("request failed", fields...)
            case res.Status >= 400:
                log.Warn("client error", fields...)
            default:
                log.Info("request completed", fields...)
            }
            return nil
        }
    }
}
