package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig drives the Redis token-bucket middleware. The relay
// runs two buckets with separate settings: one on the admin API and
// one on the webhook, which keys by the update's sender id instead of
// the caller identity (every webhook request comes from Telegram's
// egress, not from the end-user).
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig builds the admin-side limiter settings.
func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 { def.Capacity = b }
    if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
        def.RefillTokens = 1
        def.RefillInterval = every
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

// LoadWebhookRateLimitConfig derives the webhook limiter from the
// admin settings, overriding the key strategy to per-sender buckets so
// flooding by one user never throttles another. Its knobs can be tuned
// independently through the WEBHOOK_RATE_LIMIT_* variables.
func LoadWebhookRateLimitConfig() RateLimitConfig {
    cfg := LoadRateLimitConfig()
    cfg.Enabled = envBool("WEBHOOK_RATE_LIMIT_ENABLED", cfg.Enabled)
    cfg.Capacity = envInt("WEBHOOK_RATE_LIMIT_CAPACITY", 30)
    cfg.KeyStrategy = envStr("WEBHOOK_RATE_LIMIT_KEY_STRATEGY", "sender")
    cfg.Prefix = envStr("WEBHOOK_RATE_LIMIT_PREFIX", cfg.Prefix+":wh")
    if cfg.Capacity < 1 { cfg.Capacity = 1 }
    return cfg
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
