package relay

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/queue"
)

func TestArchiveThenReopenOnNextInbound(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(1, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 1)
    require.NoError(t, err)

    require.NoError(t, rig.svc.Archive(ctx, rec.TopicID))
    rec, err = rig.store.GetByUserID(ctx, 1)
    require.NoError(t, err)
    assert.True(t, rec.Archived)
    assert.Equal(t, model.TopicArchived, rec.TopicState())

    require.NoError(t, rig.svc.Inbound(ctx, inbound(1, "still there?")))

    rec, err = rig.store.GetByUserID(ctx, 1)
    require.NoError(t, err)
    assert.False(t, rec.Archived, "inbound message reopens the archived topic")
    assert.Equal(t, 1, rig.forum.reopened[rec.TopicID])

    msgs := rig.forum.postedTo(rec.TopicID)
    require.Len(t, msgs, 2)
    assert.Equal(t, "still there?", msgs[1].Text)
    assert.Equal(t, 1, rig.forum.createdCount(), "reopen must not create a second topic")
    assert.Contains(t, rig.audit.kinds(), queue.KindTopicReopened)
}

func TestArchiveIsIdempotent(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(2, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 2)
    require.NoError(t, err)

    require.NoError(t, rig.svc.Archive(ctx, rec.TopicID))
    require.NoError(t, rig.svc.Archive(ctx, rec.TopicID))

    assert.Equal(t, 1, rig.forum.archived[rec.TopicID], "second archive must not call the forum again")
}

func TestReopenIsIdempotent(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(3, "one")))
    require.NoError(t, rig.svc.Inbound(ctx, inbound(3, "two")))

    rec, err := rig.store.GetByUserID(ctx, 3)
    require.NoError(t, err)
    assert.Equal(t, 0, rig.forum.reopened[rec.TopicID], "messages to an active topic never trigger reopen")
}

func TestArchiveUnknownTopic(t *testing.T) {
    rig := newTestRig(t)

    err := rig.svc.Archive(context.Background(), 4242)
    assert.ErrorIs(t, err, ErrNoMapping)
}

func TestTopicCreationFailureLeavesNoAssignment(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    rig.forum.mu.Lock()
    rig.forum.createErr = assert.AnError
    rig.forum.mu.Unlock()

    err := rig.svc.Inbound(ctx, inbound(5, "hello"))
    require.Error(t, err)
    assert.True(t, IsTransient(err))

    rec, err := rig.store.GetByUserID(ctx, 5)
    require.NoError(t, err)
    assert.False(t, rec.HasTopic(), "no topic id may be written when creation failed")

    // The next inbound message retries the whole sequence.
    rig.forum.mu.Lock()
    rig.forum.createErr = nil
    rig.forum.mu.Unlock()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(5, "hello again")))
    rec, err = rig.store.GetByUserID(ctx, 5)
    require.NoError(t, err)
    assert.True(t, rec.HasTopic())
    assert.Equal(t, 1, rig.forum.createdCount())
}

func TestReopenFailureKeepsTopicArchived(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(6, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 6)
    require.NoError(t, err)
    require.NoError(t, rig.svc.Archive(ctx, rec.TopicID))

    rig.forum.mu.Lock()
    rig.forum.reopenErr = assert.AnError
    rig.forum.mu.Unlock()

    err = rig.svc.Inbound(ctx, inbound(6, "anyone?"))
    require.Error(t, err)
    assert.True(t, IsTransient(err))

    rec, err = rig.store.GetByUserID(ctx, 6)
    require.NoError(t, err)
    assert.True(t, rec.Archived, "archive flag must not flip before the forum call succeeds")
    assert.Len(t, rig.forum.postedTo(rec.TopicID), 1, "the failed update delivered nothing")
}

func TestUserCardFailureDoesNotFailCreation(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    // Sender card posting is best-effort; simulate a forum that
    // accepts topic creation and messages but rejects nothing else,
    // then verify the card landed with the sender's identity.
    upd := inbound(9, "hello")
    upd.Sender.Username = "niners"
    require.NoError(t, rig.svc.Inbound(ctx, upd))

    rec, err := rig.store.GetByUserID(ctx, 9)
    require.NoError(t, err)
    card := rig.forum.cards[rec.TopicID]
    assert.Equal(t, int64(9), card.UserID)
    assert.Equal(t, "niners", card.Username)
}
