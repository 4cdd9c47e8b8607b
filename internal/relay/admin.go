package relay

import (
    "context"

    "github.com/iliyamo/forum-relay/internal/queue"
)

// Admin-facing operations. Ban and unban only toggle the flag: banning
// does not archive the topic (admins keep the history) and unbanning
// does not reopen an archived topic — the next inbound message does.

// Ban marks a user as banned. The user record is created on the spot
// when the user has never been seen, so a ban can precede first
// contact. Banning an already banned user is a no-op.
func (s *Service) Ban(ctx context.Context, userID int64) error {
    release, err := s.locks.Acquire(ctx, userID)
    if err != nil {
        return transient("acquire user lock", err)
    }
    defer release()

    rec, err := s.freshByUser(ctx, userID)
    if err != nil {
        return err
    }
    if rec == nil {
        rec, err = s.createRecord(ctx, userID)
        if err != nil {
            return err
        }
    }
    if rec.Banned {
        return nil
    }
    if err := s.setBanned(ctx, rec, true); err != nil {
        return err
    }
    s.emitAudit(ctx, queue.KindUserBanned, userID, rec.TopicID)
    return nil
}

// Unban clears the ban flag. Unbanning an unknown user yields
// ErrNoMapping; unbanning a user who is not banned is a no-op.
func (s *Service) Unban(ctx context.Context, userID int64) error {
    release, err := s.locks.Acquire(ctx, userID)
    if err != nil {
        return transient("acquire user lock", err)
    }
    defer release()

    rec, err := s.freshByUser(ctx, userID)
    if err != nil {
        return err
    }
    if rec == nil {
        return ErrNoMapping
    }
    if !rec.Banned {
        return nil
    }
    if err := s.setBanned(ctx, rec, false); err != nil {
        return err
    }
    s.emitAudit(ctx, queue.KindUserUnbanned, userID, rec.TopicID)
    return nil
}

// IsBanned reports whether the user is banned. Unknown users are not
// banned.
func (s *Service) IsBanned(ctx context.Context, userID int64) (bool, error) {
    rec, err := s.lookupByUser(ctx, userID)
    if err != nil {
        return false, err
    }
    return rec != nil && rec.Banned, nil
}

// ResolveUserForTopic returns the user owning the given topic, or
// ErrNoMapping for unknown and foreign topics.
func (s *Service) ResolveUserForTopic(ctx context.Context, topicID int64) (int64, error) {
    rec, err := s.lookupByTopic(ctx, topicID)
    if err != nil {
        return 0, err
    }
    if rec == nil {
        return 0, ErrNoMapping
    }
    return rec.UserID, nil
}
