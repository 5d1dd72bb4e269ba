package handler

import (
    "context"
    "database/sql"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/staff-attendance/internal/middleware"
    "github.com/iliyamo/staff-attendance/internal/repository"
)

// SessionHandler answers the landing-page question "is this stored
// session still the live one?".  Clients keep the session id from
// login and ask here before routing to the staff or admin view.
type SessionHandler struct {
    Users *repository.UserRepo
    Guard *redis.Client
}

func NewSessionHandler(u *repository.UserRepo, guard *redis.Client) *SessionHandler {
    return &SessionHandler{Users: u, Guard: guard}
}

type validateReq struct {
    UserID    uint64 `json:"user_id"`
    SessionID string `json:"session_id"`
}

// Validate handles POST /v1/session/validate.  The answer is advisory:
// a stale or unknown session simply comes back invalid, it is not an
// error.  Without the guard cache no session can be confirmed.
func (h *SessionHandler) Validate(c echo.Context) error {
    var req validateReq
    if err := c.Bind(&req); err != nil || req.UserID == 0 || strings.TrimSpace(req.SessionID) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id/session_id required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if h.Guard == nil {
        return c.JSON(http.StatusOK, echo.Map{"valid": false})
    }
    claimed, err := h.Guard.Get(ctx, middleware.SessionGuardKey(req.UserID)).Result()
    if err != nil || claimed != strings.TrimSpace(req.SessionID) {
        return c.JSON(http.StatusOK, echo.Map{"valid": false})
    }

    u, err := h.Users.GetByID(ctx, req.UserID)
    if err != nil {
        if err != sql.ErrNoRows {
            log.Printf("session validate: load user failed: %v", err)
        }
        return c.JSON(http.StatusOK, echo.Map{"valid": false})
    }
    if !u.IsActive {
        return c.JSON(http.StatusOK, echo.Map{"valid": false})
    }
    return c.JSON(http.StatusOK, echo.Map{"valid": true, "role": u.Role})
}
