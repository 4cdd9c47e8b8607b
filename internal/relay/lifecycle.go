package relay

import (
    "context"
    "fmt"
    "log"

    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/queue"
)

// Topic lifecycle: Absent -> Active (first inbound message) ->
// Archived (admin) -> Active (reopened by the next inbound message).
// Both mutating transitions run under the per-user lock with a
// re-validation read after acquisition, so concurrent first-contact
// messages create exactly one topic and an archive racing a reopen is
// settled by whoever acquires the lock first.

// ensureActiveTopic resolves the user's record with an open topic,
// creating the record, the topic, or reopening an archived topic as
// needed. It returns errBannedDrop when the user turns out to be
// banned, including a ban that landed while this call waited on the
// lock.
func (s *Service) ensureActiveTopic(ctx context.Context, userID int64, sender model.UserCard) (*model.UserRecord, error) {
    // Fast path: an existing open mapping needs no lock. Stale reads
    // are safe here because flag changes invalidate the cache and the
    // slow path re-validates against the store.
    rec, err := s.lookupByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    if rec != nil && rec.TopicState() == model.TopicActive && !rec.Banned {
        return rec, nil
    }

    release, err := s.locks.Acquire(ctx, userID)
    if err != nil {
        return nil, transient("acquire user lock", err)
    }
    defer release()

    // Re-validate: another holder may have created the topic, reopened
    // it, or banned the user while we waited.
    rec, err = s.freshByUser(ctx, userID)
    if err != nil {
        return nil, err
    }
    if rec == nil {
        rec, err = s.createRecord(ctx, userID)
        if err != nil {
            return nil, err
        }
    }
    if rec.Banned {
        return nil, errBannedDrop
    }

    switch rec.TopicState() {
    case model.TopicAbsent:
        if err := s.createTopic(ctx, rec, sender); err != nil {
            return nil, err
        }
    case model.TopicArchived:
        if err := s.reopenTopic(ctx, rec); err != nil {
            return nil, err
        }
    }
    return rec, nil
}

func (s *Service) createRecord(ctx context.Context, userID int64) (*model.UserRecord, error) {
    rec, err := s.store.Create(ctx, userID)
    if err != nil {
        return nil, transient("create user record", err)
    }
    s.cachePut(ctx, rec)
    return rec, nil
}

// createTopic performs the Absent -> Active transition. The external
// topic is created first and the assignment recorded after; a crash in
// between leaves an orphaned external thread but never a dangling
// mapping, and the audit event carries both ids so operators can spot
// the orphan.
func (s *Service) createTopic(ctx context.Context, rec *model.UserRecord, sender model.UserCard) error {
    topicID, err := s.forum.CreateTopic(ctx, topicTitle(rec.UserID, sender))
    if err != nil {
        return transient("create forum topic", err)
    }
    if err := s.assignTopic(ctx, rec, topicID); err != nil {
        return err
    }
    s.emitAudit(ctx, queue.KindTopicCreated, rec.UserID, topicID)

    // The pinned sender card is informational; its failure must not
    // fail the message that triggered the topic.
    card := sender
    card.UserID = rec.UserID
    if err := s.forum.PostUserCard(ctx, topicID, card); err != nil {
        log.Printf("relay: user card for topic %d failed: %v", topicID, err)
    }
    return nil
}

// reopenTopic performs the Archived -> Active transition.
func (s *Service) reopenTopic(ctx context.Context, rec *model.UserRecord) error {
    if err := s.forum.ReopenTopic(ctx, rec.TopicID); err != nil {
        return transient("reopen forum topic", err)
    }
    if err := s.setArchived(ctx, rec, false); err != nil {
        return err
    }
    s.emitAudit(ctx, queue.KindTopicReopened, rec.UserID, rec.TopicID)
    return nil
}

// Archive closes the topic identified by topicID. Archiving an already
// archived topic is a no-op that issues no external call. The
// transition runs under the owner's lock so it serializes against a
// concurrent reopen; whichever acquires the lock last wins.
func (s *Service) Archive(ctx context.Context, topicID int64) error {
    rec, err := s.lookupByTopic(ctx, topicID)
    if err != nil {
        return err
    }
    if rec == nil {
        return ErrNoMapping
    }

    release, err := s.locks.Acquire(ctx, rec.UserID)
    if err != nil {
        return transient("acquire user lock", err)
    }
    defer release()

    rec, err = s.freshByUser(ctx, rec.UserID)
    if err != nil {
        return err
    }
    if rec == nil || rec.TopicID != topicID {
        return ErrNoMapping
    }
    if rec.Archived {
        return nil
    }
    if err := s.forum.ArchiveTopic(ctx, topicID); err != nil {
        return transient("archive forum topic", err)
    }
    if err := s.setArchived(ctx, rec, true); err != nil {
        return err
    }
    s.emitAudit(ctx, queue.KindTopicArchived, rec.UserID, topicID)
    return nil
}

// topicTitle names the forum topic after the sender the way admins see
// contacts, falling back to the numeric id for senders without a name.
func topicTitle(userID int64, sender model.UserCard) string {
    if sender.FirstName != "" {
        return sender.FirstName
    }
    if sender.Username != "" {
        return sender.Username
    }
    return fmt.Sprintf("User %d", userID)
}
