package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"    // import the handlers that implement the HTTP surface
	"github.com/iliyamo/cinema-booking/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers non-authenticated routes on the provided Echo
// instance.  The health check pings the database.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterPublic registers unauthenticated screening endpoints.  The
// listing and the detail are served through the Redis response cache,
// which order and screening writes purge.  Seat maps and availability
// are always read fresh.
func RegisterPublic(e *echo.Echo, s *handler.ScreeningHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cache := middleware.NewRedisCache(cacheCfg, rdb)

	e.GET("/v1/screenings", s.List, cache)
	e.GET("/v1/screenings/:id", s.Get, cache)
	// Seats are generated lazily on the first request for a screening.
	e.GET("/v1/screenings/:id/seats", s.Seats)
	e.GET("/v1/screenings/:id/availability", s.Availability)
}
