package config

import "time"

// DirectoryCacheConfig defines settings for the Redis mirror of the
// directory store.  TTL bounds how long an entry may be served without
// reconciling against MySQL.  The mirror is purely a performance
// optimization and the service runs with it disabled when no Redis
// client is available.
type DirectoryCacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadDirectoryCacheConfig reads environment variables to build a
// DirectoryCacheConfig.  Defaults are used when variables are not set.
// The TTL also bounds how long a read that raced a flag change can keep
// serving the pre-change record, so it is kept short.
func LoadDirectoryCacheConfig() DirectoryCacheConfig {
    cfg := DirectoryCacheConfig{
        Enabled: envBool("DIRECTORY_CACHE_ENABLED", true),
        TTL:     envDur("DIRECTORY_CACHE_TTL", 5*time.Minute),
        Prefix:  envStr("DIRECTORY_CACHE_PREFIX", "directory"),
    }
    if cfg.TTL <= 0 { cfg.TTL = 5 * time.Minute }
    return cfg
}
