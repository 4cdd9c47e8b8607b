// Package lock provides the per-user coordination lock that serializes
// topic creation and state transitions for a single user across
// concurrently processed updates. Two implementations share the same
// contract: RedisLock leases a key in Redis so multiple processes can
// coordinate, and LocalLock keys mutexes in process memory for
// single-process deployments and tests.
//
// Acquisition is bounded: a waiter that cannot obtain the lock before
// its timeout receives ErrLockTimeout and is expected to retry the
// whole lifecycle operation from scratch. Holders must always
// re-validate directory state after acquiring, never assume they are
// the first creator.
package lock

import (
    "context"
    "errors"
)

// ErrLockTimeout is returned when the lock could not be acquired
// within the configured bound. Callers treat it as transient.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// UserLock serializes lifecycle-mutating operations for one user id.
// Acquire blocks until the lock is held, the context is done or the
// acquire timeout elapses. The returned release function must be
// called exactly once; releasing an expired lease is a no-op.
type UserLock interface {
    Acquire(ctx context.Context, userID int64) (release func(), err error)
}
