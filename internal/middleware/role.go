package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole gates a route group on the role claim JWTAuth put in the
// context.  The staff group accepts both roles since admins attend like
// anyone else; the admin group accepts only "admin".
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
