package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"    // admin handlers
	"github.com/iliyamo/cinema-booking/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, s *handler.ScreeningHandler, o *handler.OrderHandler, jwtSecret string, cacheCfg config.CacheConfig, rdb *redis.Client) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)

	// ---- Screenings ----
	// Writes drop cached listings.
	purge := middleware.PurgeCache(cacheCfg, rdb)
	g.POST("/screenings", s.Create, purge)
	g.POST("/screenings/:id/deactivate", s.Deactivate, purge)

	// ---- Orders ----
	// Cancel and refund give seats back.
	g.GET("/orders/:id", o.Get)
	g.POST("/orders/:id/cancel", o.Cancel, purge)
	g.POST("/orders/:id/complete", o.Complete)
	g.POST("/orders/:id/refund", o.Refund, purge)
}
