package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/forum-relay/internal/config"
    "github.com/iliyamo/forum-relay/internal/model"
    "github.com/iliyamo/forum-relay/internal/relay"
)

// Relay is the slice of the relay service the webhook drives. Declared
// here so the handler can be exercised against a fake in tests.
type Relay interface {
    Inbound(ctx context.Context, upd model.InboundUpdate) error
    Outbound(ctx context.Context, topicID int64, payload model.MessagePayload) error
}

// WebhookHandler receives Telegram updates, normalizes them and hands
// them to the relay. Telegram redelivers an update whenever the webhook
// answers with a non-2xx status, so the handler returns 503 exactly for
// transient failures and 200 for everything it considers settled.
type WebhookHandler struct {
    Cfg   config.Config
    Relay Relay
    Chat  relay.ChatAPI
}

func NewWebhookHandler(cfg config.Config, r Relay, chat relay.ChatAPI) *WebhookHandler {
    if r == nil || chat == nil {
        panic("nil dependency passed to NewWebhookHandler")
    }
    return &WebhookHandler{Cfg: cfg, Relay: r, Chat: chat}
}

// ----- Telegram update shapes (only the fields the relay reads) -----

type tgUpdate struct {
    UpdateID int64      `json:"update_id"`
    Message  *tgMessage `json:"message"`
}

type tgMessage struct {
    MessageID       int64   `json:"message_id"`
    From            *tgUser `json:"from"`
    Chat            tgChat  `json:"chat"`
    MessageThreadID int64   `json:"message_thread_id"`
    Text            string  `json:"text"`
}

type tgUser struct {
    ID           int64  `json:"id"`
    IsBot        bool   `json:"is_bot"`
    FirstName    string `json:"first_name"`
    Username     string `json:"username"`
    LanguageCode string `json:"language_code"`
}

type tgChat struct {
    ID   int64  `json:"id"`
    Type string `json:"type"`
}

// Receive handles POST /webhook/:secret. The path secret is the only
// authentication Telegram offers for plain webhooks; a mismatch gets a
// 404 so the endpoint does not advertise itself.
func (h *WebhookHandler) Receive(c echo.Context) error {
    if c.Param("secret") != h.Cfg.WebhookSecret {
        return c.NoContent(http.StatusNotFound)
    }

    var upd tgUpdate
    if err := c.Bind(&upd); err != nil {
        // Unparseable bodies are settled: redelivery would not help.
        log.Printf("webhook: bad update body: %v", err)
        return c.NoContent(http.StatusOK)
    }
    msg := upd.Message
    if msg == nil || msg.From == nil || msg.From.IsBot {
        return c.NoContent(http.StatusOK)
    }

    ctx := c.Request().Context()

    switch {
    case msg.Chat.Type == "private":
        return h.fromUser(ctx, c, msg)
    case msg.Chat.ID == h.Cfg.ForumID && msg.MessageThreadID != 0:
        return h.fromTopic(ctx, c, msg)
    default:
        // Updates from other chats (or the forum's general thread) are
        // outside the relay's scope.
        return c.NoContent(http.StatusOK)
    }
}

// fromUser routes a private-chat message into the sender's topic, or
// answers the bot commands directly.
func (h *WebhookHandler) fromUser(ctx context.Context, c echo.Context, msg *tgMessage) error {
    if reply, ok := h.commandReply(msg.Text); ok {
        if err := h.Chat.SendPrivate(ctx, msg.From.ID, model.MessagePayload{Text: reply}); err != nil {
            log.Printf("webhook: greeting for user %d failed: %v", msg.From.ID, err)
            return c.NoContent(http.StatusServiceUnavailable)
        }
        return c.NoContent(http.StatusOK)
    }

    err := h.Relay.Inbound(ctx, model.InboundUpdate{
        UserID: msg.From.ID,
        Kind:   model.PrivateFromUser,
        Sender: model.UserCard{
            UserID:       msg.From.ID,
            FirstName:    msg.From.FirstName,
            Username:     msg.From.Username,
            LanguageCode: msg.From.LanguageCode,
        },
        Payload: model.MessagePayload{
            Text:            msg.Text,
            SourceChatID:    msg.Chat.ID,
            SourceMessageID: msg.MessageID,
        },
    })
    return h.settle(c, err, msg.From.ID)
}

// fromTopic routes an admin reply in a forum topic back to the mapped
// user's private chat.
func (h *WebhookHandler) fromTopic(ctx context.Context, c echo.Context, msg *tgMessage) error {
    err := h.Relay.Outbound(ctx, msg.MessageThreadID, model.MessagePayload{
        Text:            msg.Text,
        SourceChatID:    msg.Chat.ID,
        SourceMessageID: msg.MessageID,
    })
    if errors.Is(err, relay.ErrNoMapping) {
        // A topic nobody owns (created by hand, or left over after the
        // directory lost its record). Dropping is the settled outcome.
        log.Printf("webhook: reply in unmapped topic %d dropped", msg.MessageThreadID)
        return c.NoContent(http.StatusOK)
    }
    return h.settle(c, err, msg.From.ID)
}

// commandReply returns the configured greeting for the bot commands.
func (h *WebhookHandler) commandReply(text string) (string, bool) {
    switch strings.TrimSpace(text) {
    case "/start":
        return h.Cfg.GreetingStart, true
    case "/help":
        return h.Cfg.GreetingHelp, true
    }
    return "", false
}

// settle maps a relay outcome to the webhook's answer. Any failure
// left here means the update was not delivered, so the webhook asks
// Telegram to redeliver; permanent outcomes (drops, unmapped topics)
// were already settled by the relay or the caller.
func (h *WebhookHandler) settle(c echo.Context, err error, userID int64) error {
    if err == nil {
        return c.NoContent(http.StatusOK)
    }
    if relay.IsTransient(err) {
        log.Printf("webhook: transient failure for user %d, requesting redelivery: %v", userID, err)
    } else {
        log.Printf("webhook: update for user %d failed: %v", userID, err)
    }
    return c.NoContent(http.StatusServiceUnavailable)
}
