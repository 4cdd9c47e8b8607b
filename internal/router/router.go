package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/forum-relay/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/forum-relay/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems probe this endpoint to
    // verify that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterWebhook registers the Telegram update endpoint. No JWT applies
// here: the path secret is the authentication Telegram supports, and the
// optional rate limit keeps a flooding peer from starving the relay.
func RegisterWebhook(e *echo.Echo, w *handler.WebhookHandler, limit echo.MiddlewareFunc) {
    g := e.Group("/webhook")
    if limit != nil {
        g.Use(limit)
    }
    g.POST("/:secret", w.Receive)
}

// RegisterAuth registers the operator login endpoint under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
    e.POST("/v1/auth/login", a.Login)
}

// RegisterAdmin registers the moderation endpoints under /v1/admin. All
// of them require a valid access token carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string, limit echo.MiddlewareFunc) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole("ADMIN"))
    if limit != nil {
        g.Use(limit)
    }
    g.POST("/users/:id/ban", h.Ban)
    g.POST("/users/:id/unban", h.Unban)
    g.GET("/users/:id/banned", h.Banned)
    g.POST("/topics/:id/archive", h.Archive)
    g.GET("/topics/:id/user", h.ResolveTopic)
}
