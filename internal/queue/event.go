// Package queue defines the audit events emitted by the relay core and
// the consumer that drains them. Events are informational: publishing
// failures never fail the routing path.
package queue

import "time"

// AuditQueueName is the durable queue audit events are published to.
const AuditQueueName = "relay.audit"

// Audit event kinds.
const (
    KindTopicCreated   = "topic_created"
    KindTopicArchived  = "topic_archived"
    KindTopicReopened  = "topic_reopened"
    KindUserBanned     = "user_banned"
    KindUserUnbanned   = "user_unbanned"
    KindMessageDropped = "message_dropped"
)

// AuditEvent records one admin-relevant action taken by the relay:
// lifecycle transitions, ban toggles and inbound messages dropped at
// the ban gate. TopicID is zero for events on users without a topic.
type AuditEvent struct {
    ID      string    `json:"id"`
    Kind    string    `json:"kind"`
    UserID  int64     `json:"user_id"`
    TopicID int64     `json:"topic_id,omitempty"`
    At      time.Time `json:"at"`
}
