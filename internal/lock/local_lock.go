package lock

import (
    "context"
    "sync"
    "time"
)

// LocalLock implements UserLock with one channel-based mutex per user
// id, held in process memory. It is the right choice when all update
// processing happens in one process: a holder cannot crash without the
// whole process dying, so no lease expiry is needed, only the bounded
// acquire. Entries are reference-counted and removed once no goroutine
// holds or waits on them, so the map does not grow with the user count.
type LocalLock struct {
    mu             sync.Mutex
    entries        map[int64]*localEntry
    acquireTimeout time.Duration
}

type localEntry struct {
    ch   chan struct{} // buffered(1); a token in the channel means "free"
    refs int
}

// NewLocalLock returns a LocalLock with the given acquire bound.
func NewLocalLock(acquireTimeout time.Duration) *LocalLock {
    if acquireTimeout <= 0 {
        acquireTimeout = 3 * time.Second
    }
    return &LocalLock{
        entries:        make(map[int64]*localEntry),
        acquireTimeout: acquireTimeout,
    }
}

func (l *LocalLock) checkout(userID int64) *localEntry {
    l.mu.Lock()
    defer l.mu.Unlock()
    e, ok := l.entries[userID]
    if !ok {
        e = &localEntry{ch: make(chan struct{}, 1)}
        e.ch <- struct{}{}
        l.entries[userID] = e
    }
    e.refs++
    return e
}

func (l *LocalLock) checkin(userID int64, e *localEntry) {
    l.mu.Lock()
    defer l.mu.Unlock()
    e.refs--
    if e.refs == 0 {
        delete(l.entries, userID)
    }
}

// Acquire obtains the per-user mutex or fails with ErrLockTimeout.
func (l *LocalLock) Acquire(ctx context.Context, userID int64) (func(), error) {
    e := l.checkout(userID)

    timer := time.NewTimer(l.acquireTimeout)
    defer timer.Stop()

    select {
    case <-e.ch:
        var once sync.Once
        release := func() {
            once.Do(func() {
                e.ch <- struct{}{}
                l.checkin(userID, e)
            })
        }
        return release, nil
    case <-ctx.Done():
        l.checkin(userID, e)
        return nil, ErrLockTimeout
    case <-timer.C:
        l.checkin(userID, e)
        return nil, ErrLockTimeout
    }
}
