package relay

import (
    "context"
    "errors"

    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/queue"
)

// Inbound routes a private message from a user into their forum topic,
// creating or reopening the topic first when necessary. Exactly one
// forum delivery call is issued per accepted update.
//
// A nil return means the update is processed and must not be
// redelivered — including the silent drop of a banned user's message.
// A TransientError means nothing was delivered and the transport
// should redeliver. The ban gate runs before any lifecycle step and is
// re-checked under the lock, so a ban that lands while a reopen waits
// on the lock wins.
func (s *Service) Inbound(ctx context.Context, upd model.InboundUpdate) error {
    banned, err := s.IsBanned(ctx, upd.UserID)
    if err != nil {
        return err
    }
    if banned {
        s.emitAudit(ctx, queue.KindMessageDropped, upd.UserID, 0)
        return nil
    }

    rec, err := s.ensureActiveTopic(ctx, upd.UserID, upd.Sender)
    if errors.Is(err, errBannedDrop) {
        s.emitAudit(ctx, queue.KindMessageDropped, upd.UserID, 0)
        return nil
    }
    if err != nil {
        return err
    }

    if err := s.forum.PostMessage(ctx, rec.TopicID, upd.Payload); err != nil {
        return transient("post message to topic", err)
    }
    return nil
}

// Outbound routes a reply posted inside a forum topic to the owning
// user's private chat. Replies in topics with no mapping (stale or
// foreign threads) are rejected with ErrNoMapping and nothing is
// delivered. No ban check applies: banning stops the user's inbound
// flow, not the admins' outbound one.
func (s *Service) Outbound(ctx context.Context, topicID int64, payload model.MessagePayload) error {
    rec, err := s.lookupByTopic(ctx, topicID)
    if err != nil {
        return err
    }
    if rec == nil {
        return ErrNoMapping
    }
    if err := s.chat.SendPrivate(ctx, rec.UserID, payload); err != nil {
        return transient("send private message", err)
    }
    return nil
}
