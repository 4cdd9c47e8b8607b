package model

// ChatKind tells the router where an update originated: a private chat
// with an end-user or a reply inside a forum topic.
type ChatKind string

const (
    PrivateFromUser  ChatKind = "PRIVATE"
    ReplyInForumTopic ChatKind = "TOPIC_REPLY"
)

// MessagePayload is the opaque content carried through the router. When
// SourceChatID/SourceMessageID are set the delivery layer copies the
// original message (preserving media); otherwise Text is sent as-is.
type MessagePayload struct {
    Text            string
    SourceChatID    int64
    SourceMessageID int64
}

// InboundUpdate is a normalized update handed to the router by the
// transport layer. The transport has already authenticated and
// deduplicated it. For ReplyInForumTopic updates TopicID identifies the
// thread the reply was posted in; for PrivateFromUser updates UserID
// identifies the sender.
type InboundUpdate struct {
    UserID  int64
    Kind    ChatKind
    TopicID int64
    Sender  UserCard
    Payload MessagePayload
}

// UserCard carries the sender details posted (and pinned) into a freshly
// created topic so admins can see who they are talking to.
type UserCard struct {
    UserID       int64
    FirstName    string
    Username     string
    LanguageCode string
}
