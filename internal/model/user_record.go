package model

import "time"

// TopicState describes the lifecycle state of a user's forum topic.
// A record with no topic assignment is Absent; once a topic exists it is
// either Active (open) or Archived (closed but reopenable).
type TopicState string

const (
    TopicAbsent   TopicState = "ABSENT"
    TopicActive   TopicState = "ACTIVE"
    TopicArchived TopicState = "ARCHIVED"
)

// UserRecord represents one end-user as stored in the `user_records`
// table. Each user maps to at most one forum topic and each topic maps
// back to exactly one user; the topic id is assigned once and never
// reused. Ban and archive are reversible flags set by admin actions,
// records are never deleted.
//
// Fields:
//  UserID    – external identity of the user (private chat id); immutable.
//  TopicID   – forum topic assigned to the user; zero means not yet assigned.
//  Banned    – inbound messages from this user are dropped.
//  Archived  – the topic exists but is currently closed.
//  CreatedAt – timestamp of first contact.
type UserRecord struct {
    UserID    int64     // user_records.user_id
    TopicID   int64     // user_records.topic_id (NULL -> 0)
    Banned    bool      // user_records.banned
    Archived  bool      // user_records.archived
    CreatedAt time.Time // user_records.created_at
}

// TopicState derives the lifecycle state from the record's fields.
func (r *UserRecord) TopicState() TopicState {
    switch {
    case r.TopicID == 0:
        return TopicAbsent
    case r.Archived:
        return TopicArchived
    default:
        return TopicActive
    }
}

// HasTopic reports whether a forum topic has been assigned.
func (r *UserRecord) HasTopic() bool { return r.TopicID != 0 }
