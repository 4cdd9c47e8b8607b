// Package repository implements the durable directory store on top of
// MySQL. The sentinel errors defined here let higher layers such as
// the relay core and HTTP handlers distinguish between different
// failure scenarios without inspecting driver errors. For example,
// ErrRecordNotFound maps to a "no mapping" condition when resolving
// an outbound reply, while ErrTopicAssigned signals an attempt to
// assign a second topic to a user whose record already carries one.
package repository

import "errors"

// ErrRecordNotFound is returned when no user record exists for the
// given user id or topic id.
var ErrRecordNotFound = errors.New("user record not found")

// ErrTopicAssigned is returned by SetTopic when the record already
// carries a topic id. Topic ids are assigned at most once and never
// replaced or reused.
var ErrTopicAssigned = errors.New("topic already assigned")

// ErrTopicTaken is returned by SetTopic when the topic id is already
// bound to a different user. The unique key on topic_id enforces the
// user/topic bijection at the schema level.
var ErrTopicTaken = errors.New("topic already mapped to another user")
