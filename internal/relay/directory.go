package relay

import (
    "context"
    "errors"
    "log"

    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/repository"
)

// This file implements the read-through and write-through discipline
// over the store/cache pair. Readers consult the cache first and fall
// back to the store on a miss, repopulating the cache. Every mutation
// commits to the store before the cache is touched, so a crash between
// the two writes can only lose the mirror, never the durable record.
// Flag changes invalidate the mirror rather than updating it, forcing
// the next read to reconcile with durable state.
//
// One window remains: a reader that fetched the row just before a flag
// commit can repopulate the mirror after the commit's invalidation,
// so the fast path may serve the pre-change record until the entry's
// TTL runs out. Lifecycle and admin paths are immune — they re-read
// the store under the lock — and the cache TTL bounds the staleness
// of the rest.

// lookupByUser resolves a record by user id; (nil, nil) means the user
// has never been seen.
func (s *Service) lookupByUser(ctx context.Context, userID int64) (*model.UserRecord, error) {
    if rec, err := s.cache.GetByUser(ctx, userID); err == nil {
        return rec, nil
    }
    rec, err := s.store.GetByUserID(ctx, userID)
    if errors.Is(err, repository.ErrRecordNotFound) {
        return nil, nil
    }
    if err != nil {
        return nil, transient("directory lookup by user", err)
    }
    s.cachePut(ctx, rec)
    return rec, nil
}

// lookupByTopic resolves a record by topic id; (nil, nil) means no
// mapping exists for the topic.
func (s *Service) lookupByTopic(ctx context.Context, topicID int64) (*model.UserRecord, error) {
    if rec, err := s.cache.GetByTopic(ctx, topicID); err == nil {
        return rec, nil
    }
    rec, err := s.store.GetByTopicID(ctx, topicID)
    if errors.Is(err, repository.ErrRecordNotFound) {
        return nil, nil
    }
    if err != nil {
        return nil, transient("directory lookup by topic", err)
    }
    s.cachePut(ctx, rec)
    return rec, nil
}

// freshByUser reads the durable store directly, bypassing the cache.
// Lock holders use it to re-validate state after acquisition: the
// mirror may be stale, the store never is.
func (s *Service) freshByUser(ctx context.Context, userID int64) (*model.UserRecord, error) {
    rec, err := s.store.GetByUserID(ctx, userID)
    if errors.Is(err, repository.ErrRecordNotFound) {
        return nil, nil
    }
    if err != nil {
        return nil, transient("directory read", err)
    }
    return rec, nil
}

// assignTopic durably records the topic assignment, then mirrors the
// updated record.
func (s *Service) assignTopic(ctx context.Context, rec *model.UserRecord, topicID int64) error {
    if err := s.store.SetTopic(ctx, rec.UserID, topicID); err != nil {
        return transient("assign topic", err)
    }
    rec.TopicID = topicID
    s.cachePut(ctx, rec)
    return nil
}

// setArchived durably flips the archive flag, then invalidates the
// mirror for the pair.
func (s *Service) setArchived(ctx context.Context, rec *model.UserRecord, archived bool) error {
    if err := s.store.SetArchived(ctx, rec.UserID, archived); err != nil {
        return transient("set archived", err)
    }
    rec.Archived = archived
    s.cacheInvalidate(ctx, rec.UserID, rec.TopicID)
    return nil
}

// setBanned durably flips the ban flag, then invalidates the mirror
// for the pair.
func (s *Service) setBanned(ctx context.Context, rec *model.UserRecord, banned bool) error {
    if err := s.store.SetBanned(ctx, rec.UserID, banned); err != nil {
        return transient("set banned", err)
    }
    rec.Banned = banned
    s.cacheInvalidate(ctx, rec.UserID, rec.TopicID)
    return nil
}

func (s *Service) cachePut(ctx context.Context, rec *model.UserRecord) {
    if err := s.cache.Put(ctx, rec); err != nil {
        log.Printf("relay: cache put for user %d failed: %v", rec.UserID, err)
    }
}

func (s *Service) cacheInvalidate(ctx context.Context, userID, topicID int64) {
    if err := s.cache.Invalidate(ctx, userID, topicID); err != nil {
        log.Printf("relay: cache invalidate for user %d failed: %v", userID, err)
    }
}
