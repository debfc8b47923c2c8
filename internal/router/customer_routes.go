package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT with the CUSTOMER or ADMIN role and share a
// per-user token bucket.  Ownership of an order is checked by the
// services, not here.  Placing and cancelling an order change seat
// counts, so both drop the cached screening responses.
func RegisterCustomer(e *echo.Echo, o *handler.OrderHandler, jwtSecret string, rlCfg config.RateLimitConfig,
	cacheCfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleAdmin),
		middleware.NewTokenBucket(rlCfg, rdb, log),
	)
	purge := middleware.PurgeCache(cacheCfg, rdb)
	g.POST("/orders", o.Create, purge)
	g.GET("/my-orders", o.ListMine)
	g.GET("/orders/:id", o.Get)
	g.POST("/orders/:id/cancel", o.Cancel, purge)
}
