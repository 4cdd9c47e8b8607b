package lock

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "fmt"
    "log"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/forum-relay/internal/config"
)

// releaseScript deletes the lock key only when it still holds this
// owner's token, so a holder whose lease expired cannot release a lock
// that has since been re-acquired by someone else.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// RedisLock implements UserLock with a leased key per user id
// (SET NX PX). The lease bounds the hold time of a crashed or stalled
// holder; waiters poll on a short tick until the acquire timeout.
type RedisLock struct {
    rdb *redis.Client
    cfg config.LockConfig
}

// NewRedisLock returns a RedisLock bound to the provided client.
func NewRedisLock(rdb *redis.Client, cfg config.LockConfig) *RedisLock {
    if rdb == nil {
        panic("nil redis client passed to NewRedisLock")
    }
    return &RedisLock{rdb: rdb, cfg: cfg}
}

func (l *RedisLock) key(userID int64) string {
    return fmt.Sprintf("%s:user:%d", l.cfg.Prefix, userID)
}

// Acquire obtains the lease for the user or fails with ErrLockTimeout.
func (l *RedisLock) Acquire(ctx context.Context, userID int64) (func(), error) {
    token, err := ownerToken()
    if err != nil {
        return nil, err
    }
    key := l.key(userID)

    ctx, cancel := context.WithTimeout(ctx, l.cfg.AcquireTimeout)
    defer cancel()

    ticker := time.NewTicker(l.cfg.RetryTick)
    defer ticker.Stop()

    for {
        ok, err := l.rdb.SetNX(ctx, key, token, l.cfg.Lease).Result()
        if err != nil && ctx.Err() == nil {
            return nil, err
        }
        if ok {
            release := func() {
                // Release runs on a fresh context: the operation's
                // context may already be done when the deferred
                // release fires.
                rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
                defer rcancel()
                if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
                    log.Printf("lock: release %s failed: %v", key, err)
                }
            }
            return release, nil
        }
        select {
        case <-ctx.Done():
            return nil, ErrLockTimeout
        case <-ticker.C:
        }
    }
}

// ownerToken returns a random hex token identifying this acquisition.
func ownerToken() (string, error) {
    b := make([]byte, 16)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
