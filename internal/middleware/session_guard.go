package middleware

import (
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// SessionGuardKey builds the Redis key caching the session id of a
// user's most recent login.
func SessionGuardKey(userID uint64) string {
    return fmt.Sprintf("sessguard:%d", userID)
}

// SessionGuardTTL bounds how long a claim survives without a fresh
// login. Long enough to outlive any access token.
const SessionGuardTTL = 30 * 24 * time.Hour

// SessionGuard returns a middleware enforcing the advisory
// one-session-per-user check: each login overwrites the cached session
// id for the user, and requests carrying an older id are rejected so
// that the superseded client signs itself out. This is advisory only,
// not a distributed lock: it runs after the fact, and when Redis is
// unavailable (nil client or read error) the guard stands down and
// lets the request through.
func SessionGuard(rdb *redis.Client) echo.MiddlewareFunc {
    if rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            uid, ok := c.Get("user_id").(uint64)
            if !ok {
                return next(c)
            }
            sid, _ := c.Get("session_id").(string)
            if sid == "" {
                return next(c)
            }
            claimed, err := rdb.Get(c.Request().Context(), SessionGuardKey(uid)).Result()
            if err != nil {
                // Missing claim or Redis trouble: stand down.
                return next(c)
            }
            if claimed != sid {
                return c.JSON(http.StatusConflict, echo.Map{"error": "session superseded by a newer sign-in"})
            }
            return next(c)
        }
    }
}
