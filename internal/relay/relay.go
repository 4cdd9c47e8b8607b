// Package relay contains the user-topic directory and the bidirectional
// message router: the mapping between each end-user and their
// dedicated forum topic, the ban/archive state machine, and the
// routing of messages user->topic and topic->user. Everything it talks
// to — the durable store, the Redis mirror, the per-user lock, the
// forum and chat APIs, the audit sink — is injected, so the core can be
// exercised against fakes.
package relay

import (
    "context"
    "log"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/forum-relay/internal/lock"
    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/queue"
)

// Store is the durable directory: one record per user, single
// writer-of-record for topic assignment and the ban/archive flags.
// Lookups return repository.ErrRecordNotFound for unknown ids.
type Store interface {
    GetByUserID(ctx context.Context, userID int64) (*model.UserRecord, error)
    GetByTopicID(ctx context.Context, topicID int64) (*model.UserRecord, error)
    Create(ctx context.Context, userID int64) (*model.UserRecord, error)
    SetTopic(ctx context.Context, userID, topicID int64) error
    SetBanned(ctx context.Context, userID int64, banned bool) error
    SetArchived(ctx context.Context, userID int64, archived bool) error
}

// Cache mirrors the store for low-latency reads. It is never
// authoritative; lookup errors are treated as misses and write errors
// are logged, not propagated.
type Cache interface {
    GetByUser(ctx context.Context, userID int64) (*model.UserRecord, error)
    GetByTopic(ctx context.Context, topicID int64) (*model.UserRecord, error)
    Put(ctx context.Context, rec *model.UserRecord) error
    Invalidate(ctx context.Context, userID, topicID int64) error
}

// ForumAPI is the outward surface for the shared forum group.
type ForumAPI interface {
    CreateTopic(ctx context.Context, title string) (int64, error)
    ArchiveTopic(ctx context.Context, topicID int64) error
    ReopenTopic(ctx context.Context, topicID int64) error
    PostMessage(ctx context.Context, topicID int64, payload model.MessagePayload) error
    PostUserCard(ctx context.Context, topicID int64, card model.UserCard) error
}

// ChatAPI delivers messages to a user's private chat.
type ChatAPI interface {
    SendPrivate(ctx context.Context, userID int64, payload model.MessagePayload) error
}

// AuditSink receives audit events. Publishing is best-effort from the
// relay's perspective; failures never fail routing.
type AuditSink interface {
    Publish(ctx context.Context, ev queue.AuditEvent) error
}

// AuditFunc adapts a plain function to the AuditSink interface.
type AuditFunc func(ctx context.Context, ev queue.AuditEvent) error

// Publish implements AuditSink.
func (f AuditFunc) Publish(ctx context.Context, ev queue.AuditEvent) error { return f(ctx, ev) }

// Service wires the directory, lock, forum/chat APIs and audit sink
// into the relay operations. All lifecycle-mutating paths run under the
// per-user lock; read-only routing relies on the write-through and
// invalidate discipline of the store/cache pair.
type Service struct {
    store Store
    cache Cache
    locks lock.UserLock
    forum ForumAPI
    chat  ChatAPI
    audit AuditSink
}

// New constructs a Service. All dependencies except audit must be
// non-nil; a nil audit sink disables audit events.
func New(store Store, cache Cache, locks lock.UserLock, forum ForumAPI, chat ChatAPI, audit AuditSink) *Service {
    if store == nil || cache == nil || locks == nil || forum == nil || chat == nil {
        panic("nil dependency passed to relay.New")
    }
    return &Service{
        store: store,
        cache: cache,
        locks: locks,
        forum: forum,
        chat:  chat,
        audit: audit,
    }
}

// emitAudit publishes an audit event, logging (not returning) failures.
func (s *Service) emitAudit(ctx context.Context, kind string, userID, topicID int64) {
    if s.audit == nil {
        return
    }
    ev := queue.AuditEvent{
        ID:      uuid.NewString(),
        Kind:    kind,
        UserID:  userID,
        TopicID: topicID,
        At:      time.Now().UTC(),
    }
    if err := s.audit.Publish(ctx, ev); err != nil {
        log.Printf("relay: audit %s for user %d failed: %v", kind, userID, err)
    }
}
