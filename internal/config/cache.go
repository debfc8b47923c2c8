package config

import "time"

// CacheConfig defines settings for the response cache placed in front of
// the public screening endpoints.  When Enabled is false or no Redis
// client is configured, caching is disabled.  TTL bounds how stale a
// screening listing may get; admin writes also purge every key under
// Prefix.  Keys are the hashed request path and query.
type CacheConfig struct {
    Enabled      bool
    TTL          time.Duration
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        Prefix:       envStr("CACHE_PREFIX", "cache:screenings"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return cfg
}
