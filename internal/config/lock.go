package config

import "time"

// LockConfig defines settings for the per-user coordination lock.  Lease
// bounds how long a holder may keep the lock before a waiter is allowed
// to re-acquire (a crashed holder cannot wedge a user's topic creation
// forever).  AcquireTimeout bounds how long a waiter blocks before the
// operation fails with a lock timeout, and RetryTick is the polling
// interval between acquisition attempts against Redis.
type LockConfig struct {
    Lease          time.Duration
    AcquireTimeout time.Duration
    RetryTick      time.Duration
    Prefix         string
}

// LoadLockConfig reads environment variables to build a LockConfig.
// Defaults are used when variables are not set.
func LoadLockConfig() LockConfig {
    cfg := LockConfig{
        Lease:          envDur("LOCK_LEASE", 5*time.Second),
        AcquireTimeout: envDur("LOCK_ACQUIRE_TIMEOUT", 3*time.Second),
        RetryTick:      envDur("LOCK_RETRY_TICK", 50*time.Millisecond),
        Prefix:         envStr("LOCK_PREFIX", "lock"),
    }
    if cfg.Lease <= 0 { cfg.Lease = 5 * time.Second }
    if cfg.AcquireTimeout <= 0 { cfg.AcquireTimeout = 3 * time.Second }
    if cfg.RetryTick <= 0 { cfg.RetryTick = 50 * time.Millisecond }
    return cfg
}
