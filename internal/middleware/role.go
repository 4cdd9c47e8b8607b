package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole enforces that the authenticated caller carries one of the
// given roles in its JWT "role" claim. A missing or unknown role gets a
// 403. It assumes JWTAuth already ran and stored the role under "role".
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
