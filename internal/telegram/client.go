// Package telegram implements the forum and chat API surfaces against
// the Telegram Bot API. The client is deliberately thin: one JSON POST
// per call with a bounded timeout, no session state. Transport-level
// failures and Bot API errors both surface as plain errors for the
// relay to classify as retryable.
package telegram

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "math/rand"
    "net/http"
    "time"

    "github.com/iliyamo/forum-relay/internal/model"
)

const defaultBaseURL = "https://api.telegram.org"

// topicIconColors are the accent colors the Bot API accepts for
// createForumTopic; one is picked at random per topic.
// https://core.telegram.org/bots/api#createforumtopic
var topicIconColors = []int{
    7322096, 16766590, 13338331, 9367192, 16749490, 16478047,
}

// Client talks to the Bot API for one bot and one forum group.
type Client struct {
    http    *http.Client
    baseURL string
    token   string
    forumID int64
}

// New returns a Client for the given bot token and forum chat id.
func New(token string, forumID int64) *Client {
    return &Client{
        http:    &http.Client{Timeout: 10 * time.Second},
        baseURL: defaultBaseURL,
        token:   token,
        forumID: forumID,
    }
}

// apiResponse is the Bot API envelope common to all methods.
type apiResponse struct {
    OK          bool            `json:"ok"`
    Result      json.RawMessage `json:"result"`
    Description string          `json:"description"`
}

// call POSTs params to the named Bot API method and decodes the result
// into out when out is non-nil.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
    body, err := json.Marshal(params)
    if err != nil {
        return err
    }
    url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := c.http.Do(req)
    if err != nil {
        return err
    }
    defer func() { _ = resp.Body.Close() }()

    var env apiResponse
    if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
        return fmt.Errorf("telegram: decode %s response: %w", method, err)
    }
    if !env.OK {
        return fmt.Errorf("telegram: %s failed: %s", method, env.Description)
    }
    if out != nil {
        if err := json.Unmarshal(env.Result, out); err != nil {
            return fmt.Errorf("telegram: decode %s result: %w", method, err)
        }
    }
    return nil
}

// CreateTopic creates a forum topic in the configured group and
// returns its thread id.
func (c *Client) CreateTopic(ctx context.Context, title string) (int64, error) {
    var result struct {
        MessageThreadID int64 `json:"message_thread_id"`
    }
    err := c.call(ctx, "createForumTopic", map[string]any{
        "chat_id":    c.forumID,
        "name":       title,
        "icon_color": topicIconColors[rand.Intn(len(topicIconColors))],
    }, &result)
    if err != nil {
        return 0, err
    }
    return result.MessageThreadID, nil
}

// ArchiveTopic closes the forum topic.
func (c *Client) ArchiveTopic(ctx context.Context, topicID int64) error {
    return c.call(ctx, "closeForumTopic", map[string]any{
        "chat_id":           c.forumID,
        "message_thread_id": topicID,
    }, nil)
}

// ReopenTopic reopens a closed forum topic.
func (c *Client) ReopenTopic(ctx context.Context, topicID int64) error {
    return c.call(ctx, "reopenForumTopic", map[string]any{
        "chat_id":           c.forumID,
        "message_thread_id": topicID,
    }, nil)
}

// PostMessage forwards a payload into the topic. Payloads carrying a
// source reference are copied (preserving media); plain text payloads
// are sent directly.
func (c *Client) PostMessage(ctx context.Context, topicID int64, payload model.MessagePayload) error {
    if payload.SourceMessageID != 0 {
        return c.call(ctx, "copyMessage", map[string]any{
            "chat_id":           c.forumID,
            "message_thread_id": topicID,
            "from_chat_id":      payload.SourceChatID,
            "message_id":        payload.SourceMessageID,
        }, nil)
    }
    return c.call(ctx, "sendMessage", map[string]any{
        "chat_id":           c.forumID,
        "message_thread_id": topicID,
        "text":              payload.Text,
    }, nil)
}

// PostUserCard posts the sender details into the topic and pins them.
func (c *Client) PostUserCard(ctx context.Context, topicID int64, card model.UserCard) error {
    text := fmt.Sprintf("%s\nid: %d\nusername: %s\nlanguage: %s",
        orDash(card.FirstName), card.UserID, orDash(card.Username), orDash(card.LanguageCode))

    var msg struct {
        MessageID int64 `json:"message_id"`
    }
    err := c.call(ctx, "sendMessage", map[string]any{
        "chat_id":           c.forumID,
        "message_thread_id": topicID,
        "text":              text,
    }, &msg)
    if err != nil {
        return err
    }
    return c.call(ctx, "pinChatMessage", map[string]any{
        "chat_id":    c.forumID,
        "message_id": msg.MessageID,
    }, nil)
}

// SendPrivate delivers a payload to the user's private chat.
func (c *Client) SendPrivate(ctx context.Context, userID int64, payload model.MessagePayload) error {
    if payload.SourceMessageID != 0 {
        return c.call(ctx, "copyMessage", map[string]any{
            "chat_id":      userID,
            "from_chat_id": payload.SourceChatID,
            "message_id":   payload.SourceMessageID,
        }, nil)
    }
    return c.call(ctx, "sendMessage", map[string]any{
        "chat_id": userID,
        "text":    payload.Text,
    }, nil)
}

func orDash(s string) string {
    if s == "" {
        return "-"
    }
    return s
}
