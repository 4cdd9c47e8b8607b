package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/forum-relay/internal/relay"
)

// Moderator is the slice of the relay service the admin API exposes.
type Moderator interface {
    Ban(ctx context.Context, userID int64) error
    Unban(ctx context.Context, userID int64) error
    IsBanned(ctx context.Context, userID int64) (bool, error)
    Archive(ctx context.Context, topicID int64) error
    ResolveUserForTopic(ctx context.Context, topicID int64) (int64, error)
}

// AdminHandler exposes the moderation operations over HTTP. Routes are
// registered behind JWT auth with the ADMIN role.
type AdminHandler struct {
    Relay Moderator
}

func NewAdminHandler(r Moderator) *AdminHandler {
    if r == nil {
        panic("nil Moderator passed to NewAdminHandler")
    }
    return &AdminHandler{Relay: r}
}

// Ban handles POST /v1/admin/users/:id/ban.
func (h *AdminHandler) Ban(c echo.Context) error {
    uid, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if err := h.Relay.Ban(c.Request().Context(), uid); err != nil {
        return adminError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"user_id": uid, "banned": true})
}

// Unban handles POST /v1/admin/users/:id/unban.
func (h *AdminHandler) Unban(c echo.Context) error {
    uid, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if err := h.Relay.Unban(c.Request().Context(), uid); err != nil {
        return adminError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"user_id": uid, "banned": false})
}

// Banned handles GET /v1/admin/users/:id/banned.
func (h *AdminHandler) Banned(c echo.Context) error {
    uid, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    banned, err := h.Relay.IsBanned(c.Request().Context(), uid)
    if err != nil {
        return adminError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"user_id": uid, "banned": banned})
}

// Archive handles POST /v1/admin/topics/:id/archive.
func (h *AdminHandler) Archive(c echo.Context) error {
    tid, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid topic id"})
    }
    if err := h.Relay.Archive(c.Request().Context(), tid); err != nil {
        return adminError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"topic_id": tid, "archived": true})
}

// ResolveTopic handles GET /v1/admin/topics/:id/user.
func (h *AdminHandler) ResolveTopic(c echo.Context) error {
    tid, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid topic id"})
    }
    uid, err := h.Relay.ResolveUserForTopic(c.Request().Context(), tid)
    if err != nil {
        return adminError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"topic_id": tid, "user_id": uid})
}

func pathID(c echo.Context) (int64, error) {
    return strconv.ParseInt(c.Param("id"), 10, 64)
}

// adminError maps relay errors onto HTTP statuses.
func adminError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, relay.ErrNoMapping):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no mapping"})
    case relay.IsTransient(err):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
