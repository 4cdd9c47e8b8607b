// Package cache implements the Redis mirror of the directory store.
// Entries are keyed both by user id and by topic id so either direction
// of the router resolves without a MySQL round trip. The mirror is
// never authoritative: every entry carries a TTL, mutations of the ban
// or archive flags invalidate rather than update, and the whole
// keyspace can be dropped without correctness loss.
package cache

import (
    "context"
    "fmt"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/forum-relay/internal/config"
    "github.com/iliyamo/forum-relay/internal/model"
)

// ErrCacheMiss is returned when no entry exists for the requested key.
var ErrCacheMiss = redis.Nil

// DirectoryCache mirrors user records in Redis under
// "<prefix>:user:<id>" and "<prefix>:topic:<id>" keys. The value is a
// colon-packed record so a lookup costs a single GET.
type DirectoryCache struct {
    rdb    *redis.Client
    ttl    time.Duration
    prefix string
}

// New returns a DirectoryCache bound to the provided client. The
// client may be nil; in that case every lookup misses and writes are
// no-ops, which keeps the wiring uniform when Redis is unavailable.
func New(rdb *redis.Client, cfg config.DirectoryCacheConfig) *DirectoryCache {
    if !cfg.Enabled {
        rdb = nil
    }
    return &DirectoryCache{rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix}
}

func (c *DirectoryCache) userKey(userID int64) string {
    return fmt.Sprintf("%s:user:%d", c.prefix, userID)
}

func (c *DirectoryCache) topicKey(topicID int64) string {
    return fmt.Sprintf("%s:topic:%d", c.prefix, topicID)
}

// GetByUser returns the cached record for a user id, or ErrCacheMiss.
func (c *DirectoryCache) GetByUser(ctx context.Context, userID int64) (*model.UserRecord, error) {
    if c.rdb == nil {
        return nil, ErrCacheMiss
    }
    raw, err := c.rdb.Get(ctx, c.userKey(userID)).Result()
    if err != nil {
        return nil, err
    }
    return decodeRecord(raw)
}

// GetByTopic returns the cached record owning a topic id, or ErrCacheMiss.
func (c *DirectoryCache) GetByTopic(ctx context.Context, topicID int64) (*model.UserRecord, error) {
    if c.rdb == nil {
        return nil, ErrCacheMiss
    }
    raw, err := c.rdb.Get(ctx, c.topicKey(topicID)).Result()
    if err != nil {
        return nil, err
    }
    return decodeRecord(raw)
}

// Put stores the record under its user key and, when a topic is
// assigned, its topic key. Both writes and their TTLs go through one
// pipeline so the pair stays consistent.
func (c *DirectoryCache) Put(ctx context.Context, rec *model.UserRecord) error {
    if c.rdb == nil {
        return nil
    }
    val := encodeRecord(rec)
    pipe := c.rdb.TxPipeline()
    pipe.Set(ctx, c.userKey(rec.UserID), val, c.ttl)
    if rec.HasTopic() {
        pipe.Set(ctx, c.topicKey(rec.TopicID), val, c.ttl)
    }
    _, err := pipe.Exec(ctx)
    return err
}

// Invalidate drops both keys for a user/topic pair, forcing the next
// read to reconcile with the durable store.
func (c *DirectoryCache) Invalidate(ctx context.Context, userID, topicID int64) error {
    if c.rdb == nil {
        return nil
    }
    keys := []string{c.userKey(userID)}
    if topicID != 0 {
        keys = append(keys, c.topicKey(topicID))
    }
    return c.rdb.Del(ctx, keys...).Err()
}

// encodeRecord packs a record as "userID:topicID:banned:archived:createdUnix".
// The user id is included so a topic-keyed lookup restores the full record.
func encodeRecord(rec *model.UserRecord) string {
    return fmt.Sprintf("%d:%d:%s:%s:%d",
        rec.UserID,
        rec.TopicID,
        boolField(rec.Banned),
        boolField(rec.Archived),
        rec.CreatedAt.UTC().Unix(),
    )
}

func decodeRecord(raw string) (*model.UserRecord, error) {
    parts := strings.Split(raw, ":")
    if len(parts) != 5 {
        return nil, fmt.Errorf("cache: malformed record %q", raw)
    }
    userID, err := strconv.ParseInt(parts[0], 10, 64)
    if err != nil {
        return nil, fmt.Errorf("cache: bad user id in %q: %w", raw, err)
    }
    topicID, err := strconv.ParseInt(parts[1], 10, 64)
    if err != nil {
        return nil, fmt.Errorf("cache: bad topic id in %q: %w", raw, err)
    }
    created, err := strconv.ParseInt(parts[4], 10, 64)
    if err != nil {
        return nil, fmt.Errorf("cache: bad timestamp in %q: %w", raw, err)
    }
    return &model.UserRecord{
        UserID:    userID,
        TopicID:   topicID,
        Banned:    parts[2] == "1",
        Archived:  parts[3] == "1",
        CreatedAt: time.Unix(created, 0).UTC(),
    }, nil
}

func boolField(b bool) string {
    if b {
        return "1"
    }
    return "0"
}
