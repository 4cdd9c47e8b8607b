package relay

import (
    "context"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/goleak"

    "github.com/iliyamo/forum-relay/internal/lock"
    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/queue"
)

func TestMain(m *testing.M) {
    goleak.VerifyTestMain(m)
}

type testRig struct {
    svc   *Service
    store *fakeStore
    cache *fakeCache
    forum *fakeForum
    chat  *fakeChat
    audit *fakeAudit
}

func newTestRig(t *testing.T) *testRig {
    t.Helper()
    rig := &testRig{
        store: newFakeStore(),
        cache: newFakeCache(),
        forum: newFakeForum(),
        chat:  newFakeChat(),
        audit: &fakeAudit{},
    }
    rig.svc = New(rig.store, rig.cache, lock.NewLocalLock(time.Second), rig.forum, rig.chat, rig.audit)
    return rig
}

func inbound(userID int64, text string) model.InboundUpdate {
    return model.InboundUpdate{
        UserID:  userID,
        Kind:    model.PrivateFromUser,
        Sender:  model.UserCard{UserID: userID, FirstName: "U"},
        Payload: model.MessagePayload{Text: text},
    }
}

func TestInbound_FirstContactCreatesTopicAndDelivers(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(1, "hello")))

    assert.Equal(t, 1, rig.forum.createdCount())

    rec, err := rig.store.GetByUserID(ctx, 1)
    require.NoError(t, err)
    require.True(t, rec.HasTopic())
    assert.Equal(t, model.TopicActive, rec.TopicState())

    msgs := rig.forum.postedTo(rec.TopicID)
    require.Len(t, msgs, 1)
    assert.Equal(t, "hello", msgs[0].Text)

    // The pinned sender card went into the new topic.
    assert.Contains(t, rig.forum.cards, rec.TopicID)
    assert.Contains(t, rig.audit.kinds(), queue.KindTopicCreated)
}

func TestInbound_ExistingTopicReused(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(1, "first")))
    require.NoError(t, rig.svc.Inbound(ctx, inbound(1, "second")))

    assert.Equal(t, 1, rig.forum.createdCount())
    rec, err := rig.store.GetByUserID(ctx, 1)
    require.NoError(t, err)
    require.Len(t, rig.forum.postedTo(rec.TopicID), 2)
}

func TestInbound_ConcurrentFirstContactCreatesOneTopic(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    const n = 32
    var wg sync.WaitGroup
    errs := make([]error, n)
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            errs[i] = rig.svc.Inbound(ctx, inbound(55, "hi"))
        }(i)
    }
    wg.Wait()

    for i, err := range errs {
        require.NoError(t, err, "update %d", i)
    }
    assert.Equal(t, 1, rig.forum.createdCount(), "exactly one topic must be created")

    rec, err := rig.store.GetByUserID(ctx, 55)
    require.NoError(t, err)
    require.True(t, rec.HasTopic())
    assert.Len(t, rig.forum.postedTo(rec.TopicID), n, "every accepted update delivers exactly once")
}

func TestInbound_ConcurrentDistinctUsersGetDistinctTopics(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    const n = 16
    var wg sync.WaitGroup
    for i := 0; i < n; i++ {
        wg.Add(1)
        go func(userID int64) {
            defer wg.Done()
            assert.NoError(t, rig.svc.Inbound(ctx, inbound(userID, "hi")))
        }(int64(100 + i))
    }
    wg.Wait()

    assert.Equal(t, n, rig.forum.createdCount())

    seen := make(map[int64]int64) // topic id -> user id
    for i := 0; i < n; i++ {
        userID := int64(100 + i)
        rec, err := rig.store.GetByUserID(ctx, userID)
        require.NoError(t, err)
        require.True(t, rec.HasTopic())
        if owner, dup := seen[rec.TopicID]; dup {
            t.Fatalf("topic %d shared by users %d and %d", rec.TopicID, owner, userID)
        }
        seen[rec.TopicID] = userID
    }
}

func TestInbound_BannedUserDroppedSilently(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Ban(ctx, 2))
    require.NoError(t, rig.svc.Inbound(ctx, inbound(2, "let me in")))

    assert.Equal(t, 0, rig.forum.createdCount(), "no topic for a banned user")
    assert.Equal(t, 0, rig.forum.totalPosted())
    assert.Contains(t, rig.audit.kinds(), queue.KindMessageDropped)
}

func TestInbound_BanWithExistingTopicStillGates(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(3, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 3)
    require.NoError(t, err)

    require.NoError(t, rig.svc.Ban(ctx, 3))
    require.NoError(t, rig.svc.Inbound(ctx, inbound(3, "blocked")))

    assert.Len(t, rig.forum.postedTo(rec.TopicID), 1, "no delivery after the ban")
}

func TestInbound_DeliveryFailureIsRetryableAndRetrySucceeds(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(4, "first")))

    rig.forum.mu.Lock()
    rig.forum.postErr = assert.AnError
    rig.forum.mu.Unlock()

    err := rig.svc.Inbound(ctx, inbound(4, "flaky"))
    require.Error(t, err)
    assert.True(t, IsTransient(err), "delivery failure must be retryable")

    rig.forum.mu.Lock()
    rig.forum.postErr = nil
    rig.forum.mu.Unlock()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(4, "flaky")))
    assert.Equal(t, 1, rig.forum.createdCount(), "retry reuses the existing topic")
}

func TestOutbound_DeliversToOwningUser(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(7, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 7)
    require.NoError(t, err)

    require.NoError(t, rig.svc.Outbound(ctx, rec.TopicID, model.MessagePayload{Text: "reply"}))

    sent := rig.chat.sentTo(7)
    require.Len(t, sent, 1)
    assert.Equal(t, "reply", sent[0].Text)
}

func TestOutbound_UnknownTopicRejected(t *testing.T) {
    rig := newTestRig(t)

    err := rig.svc.Outbound(context.Background(), 9999, model.MessagePayload{Text: "reply"})
    assert.ErrorIs(t, err, ErrNoMapping)
    assert.False(t, IsTransient(err), "no-mapping is permanent, not retryable")
    assert.Empty(t, rig.chat.sends)
}

func TestOutbound_IgnoresBanFlag(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(8, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 8)
    require.NoError(t, err)

    require.NoError(t, rig.svc.Ban(ctx, 8))
    require.NoError(t, rig.svc.Outbound(ctx, rec.TopicID, model.MessagePayload{Text: "final word"}))

    assert.Len(t, rig.chat.sentTo(8), 1)
}

func TestCacheCoherence_ReadsReflectLastWrite(t *testing.T) {
    rig := newTestRig(t)
    ctx := context.Background()

    require.NoError(t, rig.svc.Inbound(ctx, inbound(10, "hello")))
    rec, err := rig.store.GetByUserID(ctx, 10)
    require.NoError(t, err)

    // The mapping is cached from the routing path. Mutations must not
    // leave that stale entry observable.
    require.NoError(t, rig.svc.Ban(ctx, 10))
    banned, err := rig.svc.IsBanned(ctx, 10)
    require.NoError(t, err)
    assert.True(t, banned)

    require.NoError(t, rig.svc.Archive(ctx, rec.TopicID))
    rec2, err := rig.store.GetByUserID(ctx, 10)
    require.NoError(t, err)
    assert.True(t, rec2.Archived)

    require.NoError(t, rig.svc.Unban(ctx, 10))
    banned, err = rig.svc.IsBanned(ctx, 10)
    require.NoError(t, err)
    assert.False(t, banned)

    assert.Greater(t, rig.cache.invalidates, 0, "flag changes must invalidate, not update")
}
