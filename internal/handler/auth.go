package handler

import (
    "context"      // provides context with cancellation for DB calls
    "database/sql" // SQL sentinel errors
    "log"          // remote failures are logged before being masked
    "net/http"     // HTTP status codes and primitives
    "strings"      // string manipulation utilities
    "time"         // timeouts for DB calls

    "github.com/labstack/echo/v4"  // Echo framework for HTTP routing
    "github.com/redis/go-redis/v9" // session-claim cache

    "github.com/iliyamo/staff-attendance/internal/config"     // app configuration
    "github.com/iliyamo/staff-attendance/internal/middleware"  // session guard key helpers
    "github.com/iliyamo/staff-attendance/internal/model"       // domain types
    "github.com/iliyamo/staff-attendance/internal/repository"  // DB repositories
    "github.com/iliyamo/staff-attendance/internal/utils"       // helper functions (hashing, token issuing)
)

// AuthHandler bundles dependencies for auth endpoints.  Guard may be
// nil, in which case the advisory session claim is simply not written.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
    Guard  *redis.Client
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, guard *redis.Client) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Guard: guard}
}

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type forgotReq struct {
    Email string `json:"email"`
}
type resetReq struct {
    Token       string `json:"token"`
    NewPassword string `json:"new_password"`
}
type changePasswordReq struct {
    CurrentPassword string `json:"current_password"`
    NewPassword     string `json:"new_password"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID       uint64 `json:"id"`
    FullName string `json:"full_name"`
    Email    string `json:"email"`
    Role     string `json:"role"`
}
type authResp struct {
    User      userPart  `json:"user"`
    SessionID string    `json:"session_id"`
    Access    tokenPart `json:"access"`
    Refresh   tokenPart `json:"refresh"`
}

// issueSession mints the session id, access and refresh tokens for a
// user and records the advisory session claim.  Used by login and the
// rotating refresh.
func (h *AuthHandler) issueSession(ctx context.Context, u model.User) (authResp, error) {
    sid, err := utils.NewSessionID()
    if err != nil {
        return authResp{}, err
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, sid, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashTokenRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    if h.Guard != nil {
        // Advisory claim: the newest login owns the account. Failure to
        // write it only disables the guard, never the login.
        if err := h.Guard.Set(ctx, middleware.SessionGuardKey(u.ID), sid, middleware.SessionGuardTTL).Err(); err != nil {
            log.Printf("session guard: claim write failed for user %d: %v", u.ID, err)
        }
    }
    return authResp{
        User:      userPart{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role},
        SessionID: sid,
        Access:    tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh:   tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Login: verify credentials and return a fresh session.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        log.Printf("login: query failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !u.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "account disabled"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    resp, err := h.issueSession(ctx, u)
    if err != nil {
        log.Printf("login: issue session failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: validate by hash, revoke old, issue a new session pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashTokenRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        log.Printf("refresh: load user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    resp, err := h.issueSession(ctx, u)
    if err != nil {
        log.Printf("refresh: issue session failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// RefreshAccess: validate a refresh token and return a new access token
// WITHOUT rotating the refresh token.  The existing session claim is
// reused so the new access token stays within the same guarded session.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashTokenRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        log.Printf("refresh-access: load user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    sid := ""
    if h.Guard != nil {
        sid, _ = h.Guard.Get(ctx, middleware.SessionGuardKey(userID)).Result()
    }
    if sid == "" {
        if sid, err = utils.NewSessionID(); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
        }
        if h.Guard != nil {
            _ = h.Guard.Set(ctx, middleware.SessionGuardKey(userID), sid, middleware.SessionGuardTTL).Err()
        }
    }
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, u.Role, sid, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout revokes a session.  With a refresh token in the body that one
// session ends; an authenticated call without a body token revokes all
// of the user's refresh tokens and releases the session claim, which
// is also the forced sign-out used when the guard reports a mismatch.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if refreshToken != "" {
        hash := utils.HashTokenRaw(refreshToken)
        userID, err := h.Tokens.ValidateRefresh(ctx, hash)
        if err != nil {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
        }
        if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
            log.Printf("logout: revoke failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        h.releaseGuard(ctx, userID)
        return c.NoContent(http.StatusNoContent)
    }

    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide refresh_token or authenticate"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
        log.Printf("logout: revoke all failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    h.releaseGuard(ctx, uid)
    return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) releaseGuard(ctx context.Context, userID uint64) {
    if h.Guard != nil {
        _ = h.Guard.Del(ctx, middleware.SessionGuardKey(userID)).Err()
    }
}

// Forgot starts a password reset.  The response is identical whether
// or not the email exists so account presence is not leaked.  With no
// mailer in this deployment the raw token is written to the server log
// for an operator to relay.
func (h *AuthHandler) Forgot(c echo.Context) error {
    var req forgotReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
    }
    email := strings.ToLower(strings.TrimSpace(req.Email))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, email)
    if err == nil {
        reset, tokErr := utils.NewResetToken(h.Cfg.ResetTTLMin)
        if tokErr == nil {
            if storeErr := h.Tokens.StorePasswordReset(ctx, u.ID, utils.HashTokenRaw(reset.Raw), reset.Exp); storeErr == nil {
                log.Printf("password reset for user %d issued, expires %s: token=%s", u.ID, reset.Exp.Format(time.RFC3339), reset.Raw)
            } else {
                log.Printf("forgot: store reset failed: %v", storeErr)
            }
        }
    } else if err != sql.ErrNoRows {
        log.Printf("forgot: query failed: %v", err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Reset consumes a password-reset token and sets the new password.
// All refresh tokens are revoked so stolen sessions die with the old
// password.
func (h *AuthHandler) Reset(c echo.Context) error {
    var req resetReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Token) == "" || req.NewPassword == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/new_password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    userID, err := h.Tokens.ConsumePasswordReset(ctx, utils.HashTokenRaw(strings.TrimSpace(req.Token)))
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
    }
    hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }
    if err := h.Users.UpdatePassword(ctx, userID, hash); err != nil {
        log.Printf("reset: update password failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
    }
    _ = h.Tokens.RevokeAllForUser(ctx, userID)
    return c.NoContent(http.StatusNoContent)
}

// ChangePassword updates the caller's own credential.  The current
// password must be re-verified on this very request; holding a valid
// access token alone is not enough.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req changePasswordReq
    if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "current_password/new_password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        log.Printf("change password: load user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password incorrect"})
    }
    hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }
    if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
        log.Printf("change password: update failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update password failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id":    c.Get("user_id"),
        "role":       c.Get("role"),
        "session_id": c.Get("session_id"),
    })
}
