package relay

import (
    "context"
    "fmt"
    "sync"
    "time"

    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/queue"
    "github.com/iliyamo/forum-relay/internal/repository"
)

// In-memory doubles for the injected collaborators. The store fake
// mirrors the MySQL repository's behavior including its sentinel
// errors and at-most-once topic assignment; the forum and chat fakes
// count calls so tests can assert on external effects.

type fakeStore struct {
    mu      sync.Mutex
    records map[int64]*model.UserRecord
    byTopic map[int64]int64 // topic id -> user id
}

func newFakeStore() *fakeStore {
    return &fakeStore{
        records: make(map[int64]*model.UserRecord),
        byTopic: make(map[int64]int64),
    }
}

func (f *fakeStore) GetByUserID(_ context.Context, userID int64) (*model.UserRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    rec, ok := f.records[userID]
    if !ok {
        return nil, repository.ErrRecordNotFound
    }
    cp := *rec
    return &cp, nil
}

func (f *fakeStore) GetByTopicID(_ context.Context, topicID int64) (*model.UserRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    userID, ok := f.byTopic[topicID]
    if !ok {
        return nil, repository.ErrRecordNotFound
    }
    cp := *f.records[userID]
    return &cp, nil
}

func (f *fakeStore) Create(_ context.Context, userID int64) (*model.UserRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if rec, ok := f.records[userID]; ok {
        cp := *rec
        return &cp, nil
    }
    rec := &model.UserRecord{UserID: userID, CreatedAt: time.Now().UTC()}
    f.records[userID] = rec
    cp := *rec
    return &cp, nil
}

func (f *fakeStore) SetTopic(_ context.Context, userID, topicID int64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    rec, ok := f.records[userID]
    if !ok {
        return repository.ErrRecordNotFound
    }
    if owner, taken := f.byTopic[topicID]; taken && owner != userID {
        return repository.ErrTopicTaken
    }
    if rec.HasTopic() {
        if rec.TopicID == topicID {
            return nil
        }
        return repository.ErrTopicAssigned
    }
    rec.TopicID = topicID
    f.byTopic[topicID] = userID
    return nil
}

func (f *fakeStore) SetBanned(_ context.Context, userID int64, banned bool) error {
    return f.setFlag(userID, func(rec *model.UserRecord) { rec.Banned = banned })
}

func (f *fakeStore) SetArchived(_ context.Context, userID int64, archived bool) error {
    return f.setFlag(userID, func(rec *model.UserRecord) { rec.Archived = archived })
}

func (f *fakeStore) setFlag(userID int64, apply func(*model.UserRecord)) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    rec, ok := f.records[userID]
    if !ok {
        return repository.ErrRecordNotFound
    }
    apply(rec)
    return nil
}

type fakeCache struct {
    mu          sync.Mutex
    byUser      map[int64]model.UserRecord
    byTopic     map[int64]model.UserRecord
    puts        int
    invalidates int
}

func newFakeCache() *fakeCache {
    return &fakeCache{
        byUser:  make(map[int64]model.UserRecord),
        byTopic: make(map[int64]model.UserRecord),
    }
}

func (f *fakeCache) GetByUser(_ context.Context, userID int64) (*model.UserRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if rec, ok := f.byUser[userID]; ok {
        cp := rec
        return &cp, nil
    }
    return nil, fmt.Errorf("miss")
}

func (f *fakeCache) GetByTopic(_ context.Context, topicID int64) (*model.UserRecord, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if rec, ok := f.byTopic[topicID]; ok {
        cp := rec
        return &cp, nil
    }
    return nil, fmt.Errorf("miss")
}

func (f *fakeCache) Put(_ context.Context, rec *model.UserRecord) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.puts++
    f.byUser[rec.UserID] = *rec
    if rec.HasTopic() {
        f.byTopic[rec.TopicID] = *rec
    }
    return nil
}

func (f *fakeCache) Invalidate(_ context.Context, userID, topicID int64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.invalidates++
    delete(f.byUser, userID)
    delete(f.byTopic, topicID)
    return nil
}

type fakeForum struct {
    mu          sync.Mutex
    nextTopicID int64
    created     int
    archived    map[int64]int
    reopened    map[int64]int
    posted      map[int64][]model.MessagePayload
    cards       map[int64]model.UserCard

    createErr error
    postErr   error
    reopenErr error
    archiveErr error
}

func newFakeForum() *fakeForum {
    return &fakeForum{
        nextTopicID: 1000,
        archived:    make(map[int64]int),
        reopened:    make(map[int64]int),
        posted:      make(map[int64][]model.MessagePayload),
        cards:       make(map[int64]model.UserCard),
    }
}

func (f *fakeForum) CreateTopic(_ context.Context, _ string) (int64, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.createErr != nil {
        return 0, f.createErr
    }
    f.created++
    f.nextTopicID++
    return f.nextTopicID, nil
}

func (f *fakeForum) ArchiveTopic(_ context.Context, topicID int64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.archiveErr != nil {
        return f.archiveErr
    }
    f.archived[topicID]++
    return nil
}

func (f *fakeForum) ReopenTopic(_ context.Context, topicID int64) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.reopenErr != nil {
        return f.reopenErr
    }
    f.reopened[topicID]++
    return nil
}

func (f *fakeForum) PostMessage(_ context.Context, topicID int64, payload model.MessagePayload) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.postErr != nil {
        return f.postErr
    }
    f.posted[topicID] = append(f.posted[topicID], payload)
    return nil
}

func (f *fakeForum) PostUserCard(_ context.Context, topicID int64, card model.UserCard) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.cards[topicID] = card
    return nil
}

func (f *fakeForum) createdCount() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.created
}

func (f *fakeForum) postedTo(topicID int64) []model.MessagePayload {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]model.MessagePayload(nil), f.posted[topicID]...)
}

func (f *fakeForum) totalPosted() int {
    f.mu.Lock()
    defer f.mu.Unlock()
    n := 0
    for _, msgs := range f.posted {
        n += len(msgs)
    }
    return n
}

type fakeChat struct {
    mu    sync.Mutex
    sends map[int64][]model.MessagePayload
    err   error
}

func newFakeChat() *fakeChat {
    return &fakeChat{sends: make(map[int64][]model.MessagePayload)}
}

func (f *fakeChat) SendPrivate(_ context.Context, userID int64, payload model.MessagePayload) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    if f.err != nil {
        return f.err
    }
    f.sends[userID] = append(f.sends[userID], payload)
    return nil
}

func (f *fakeChat) sentTo(userID int64) []model.MessagePayload {
    f.mu.Lock()
    defer f.mu.Unlock()
    return append([]model.MessagePayload(nil), f.sends[userID]...)
}

type fakeAudit struct {
    mu     sync.Mutex
    events []queue.AuditEvent
}

func (f *fakeAudit) Publish(_ context.Context, ev queue.AuditEvent) error {
    f.mu.Lock()
    defer f.mu.Unlock()
    f.events = append(f.events, ev)
    return nil
}

func (f *fakeAudit) kinds() []string {
    f.mu.Lock()
    defer f.mu.Unlock()
    out := make([]string, 0, len(f.events))
    for _, ev := range f.events {
        out = append(out, ev.Kind)
    }
    return out
}
