package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/cinema-booking/internal/config"
)

// cachedResponse is the Redis value stored for one GET.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// bodyRecorder copies the response body while it is sent to the client.
type bodyRecorder struct {
    http.ResponseWriter
    body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
    r.body.Write(b)
    return r.ResponseWriter.Write(b)
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// responseCacheKey hashes the path and query under prefix, so the same
// screening listing filtered two ways is cached twice.
func responseCacheKey(prefix string, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Request().URL.RequestURI()))
    return prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache serves GET responses from Redis for cfg.TTL.  Only 200
// responses no larger than cfg.MaxBodyBytes are stored.  Responses carry
// X-Cache: HIT or MISS.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := responseCacheKey(cfg.Prefix, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(hit.Status, hit.ContentType, hit.Body)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }

            if c.Response().Status != http.StatusOK {
                return nil
            }
            if cfg.MaxBodyBytes > 0 && rec.body.Len() > cfg.MaxBodyBytes {
                return nil
            }
            entry, err := json.Marshal(cachedResponse{
                Status:      http.StatusOK,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        rec.body.Bytes(),
            })
            if err == nil {
                _ = rdb.Set(context.WithoutCancel(ctx), key, entry, cfg.TTL).Err()
            }
            return nil
        }
    }
}

// PurgeCache deletes every key under cfg.Prefix once the wrapped write
// handler has succeeded.
func PurgeCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := next(c); err != nil || c.Response().Status >= http.StatusBadRequest {
                return err
            }
            ctx := context.WithoutCancel(c.Request().Context())
            var keys []string
            iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 100).Iterator()
            for iter.Next(ctx) {
                keys = append(keys, iter.Val())
            }
            if len(keys) > 0 {
                _ = rdb.Del(ctx, keys...).Err()
            }
            return nil
        }
    }
}
