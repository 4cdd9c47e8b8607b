package relay

import (
    "errors"
    "fmt"
)

// ErrNoMapping is returned when an outbound reply or an admin action
// references a topic id with no user record behind it (stale or
// foreign thread). The condition is permanent: callers must not retry.
var ErrNoMapping = errors.New("no user mapping for topic")

// errBannedDrop marks an inbound message discovered to be from a
// banned user while holding the lifecycle lock. It never escapes the
// relay: Inbound converts it into a silent drop.
var errBannedDrop = errors.New("banned user, message dropped")

// TransientError wraps a failure the transport layer may retry:
// external API timeouts and rate limits, store outages, and lock
// acquisition timeouts. The wrapped update is not marked processed, so
// the transport's own redelivery semantics apply.
type TransientError struct {
    Op  string
    Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v (retryable)", e.Op, e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }

// transient wraps err, passing nil through unchanged.
func transient(op string, err error) error {
    if err == nil {
        return nil
    }
    return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
    var te *TransientError
    return errors.As(err, &te)
}
