package handler

import (
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/forum-relay/internal/config" // app configuration
    "github.com/iliyamo/forum-relay/internal/utils"  // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints. The relay has a
// single operator account configured through the environment, so there
// is no user table behind this handler.
type AuthHandler struct {
    Cfg config.Config
}

func NewAuthHandler(cfg config.Config) *AuthHandler {
    return &AuthHandler{Cfg: cfg}
}

// ----- DTOs -----

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type loginResp struct {
    Token   string `json:"token"`
    Expires string `json:"expires"`
}

// Login: verify the operator credentials and issue an access token with
// the ADMIN role. The stored credential is a bcrypt hash, so a constant
// dummy comparison is not needed; bcrypt compare is already slow-path.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
    }

    if req.Username != h.Cfg.AdminUser || !utils.VerifyPassword(h.Cfg.AdminPassHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Username, "ADMIN", h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, loginResp{
        Token:   access.Token,
        Expires: access.Exp.Format("2006-01-02T15:04:05Z07:00"),
    })
}
