package middleware

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/cinema-booking/internal/config"
)

// takeToken refills the bucket by whole intervals, then tries to take one
// token.  It returns {allowed, tokens left, ms until the next refill}.
var takeToken = redis.NewScript(`
local now, capacity, refill, every, ttl =
    tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if tokens == nil or stamp == nil then
    tokens, stamp = capacity, now
end

local steps = math.floor((now - stamp) / every)
if steps > 0 then
    tokens = math.min(capacity, tokens + steps * refill)
    stamp = stamp + steps * every
end

local allowed, wait = 0, 0
if tokens >= 1 then
    allowed, tokens = 1, tokens - 1
else
    wait = math.max(0, every - (now - stamp))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('EXPIRE', KEYS[1], ttl)
return {allowed, tokens, wait}
`)

// NewTokenBucket rate limits each caller with a bucket kept in Redis, so
// every server instance draws from the same bucket.  Callers are keyed
// by user id, or by IP when unauthenticated.  Redis errors let the
// request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := int64(cfg.TTL / time.Second)
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := bucketKey(cfg.Prefix, c)
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), cfg.Capacity, cfg.RefillTokens, cfg.RefillInterval.Milliseconds(), ttl,
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                log.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }
            retry := (res[2] + 999) / 1000
            h.Set("Retry-After", strconv.FormatInt(retry, 10))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too many requests, slow down",
                "retry_after": retry,
            })
        }
    }
}

func bucketKey(prefix string, c echo.Context) string {
    if id, ok := authenticatedUser(c); ok {
        return prefix + ":user:" + strconv.FormatUint(id, 10)
    }
    return prefix + ":ip:" + c.RealIP()
}

// authenticatedUser returns the user id JWTAuth stored, if any.
func authenticatedUser(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxUserID).(uint64)
    return id, ok && id != 0
}
