// Package router wires handlers to routes.  Grouping mirrors the
// access model: public auth endpoints, a staff group every signed-in
// user can reach, and an admin group behind the role gate.
package router

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/staff-attendance/internal/config"
    "github.com/iliyamo/staff-attendance/internal/handler"
    "github.com/iliyamo/staff-attendance/internal/middleware"
)

// Handlers collects the handler set the router mounts.
type Handlers struct {
    Auth       *handler.AuthHandler
    Session    *handler.SessionHandler
    Attendance *handler.AttendanceHandler
    Notes      *handler.NotesHandler
    Admin      *handler.AdminHandler
}

// Register mounts every route on the Echo instance.  rdb may be nil;
// the rate limiter, response cache and session guard all degrade to
// pass-through without Redis.
func Register(e *echo.Echo, cfg config.Config, h Handlers, rdb *redis.Client) {
    e.GET("/healthz", handler.Health)

    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

    // Public: credential exchange and the advisory session check.
    auth := e.Group("/v1/auth", limiter)
    auth.POST("/login", h.Auth.Login)
    auth.POST("/refresh", h.Auth.Refresh)
    auth.POST("/refresh-access", h.Auth.RefreshAccess)
    auth.POST("/logout", h.Auth.Logout)
    auth.POST("/forgot", h.Auth.Forgot)
    auth.POST("/reset", h.Auth.Reset)

    e.POST("/v1/session/validate", h.Session.Validate, limiter)

    // Staff: everything behind a valid access token and the session
    // guard.  Admins pass too; their accounts attend like anyone's.
    staff := e.Group("/v1",
        middleware.JWTAuth(cfg.JWTSecret),
        middleware.SessionGuard(rdb),
        middleware.RequireRole("staff", "admin"),
    )
    staff.GET("/me", h.Auth.Me)
    staff.PUT("/me/password", h.Auth.ChangePassword)
    staff.POST("/me/logout", h.Auth.Logout)

    staff.POST("/attendance/sign-in", h.Attendance.SignIn)
    staff.POST("/attendance/sign-out", h.Attendance.SignOut)
    staff.POST("/attendance/break/start", h.Attendance.BreakStart)
    staff.POST("/attendance/break/end", h.Attendance.BreakEnd)
    staff.GET("/attendance/today", h.Attendance.Today)
    staff.GET("/attendance/history", h.Attendance.History)
    staff.GET("/attendance/stream", h.Attendance.Stream)

    staff.POST("/notes", h.Notes.Create)
    staff.GET("/notes", h.Notes.List)
    staff.DELETE("/notes/:id", h.Notes.Delete)

    // Admin: roster management and per-user review.  Roster reads go
    // through the short-lived response cache.
    admin := e.Group("/v1/admin",
        middleware.JWTAuth(cfg.JWTSecret),
        middleware.SessionGuard(rdb),
        middleware.RequireRole("admin"),
        middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
    )
    admin.POST("/users", h.Admin.CreateUser)
    admin.GET("/users", h.Admin.ListUsers)
    admin.GET("/users/:id", h.Admin.GetUser)
    admin.PATCH("/users/:id", h.Admin.UpdateUser)
    admin.DELETE("/users/:id", h.Admin.DeleteUser)
    admin.PUT("/users/:id/password", h.Admin.SetPassword)
    admin.GET("/users/:id/attendance", h.Admin.UserAttendance)
    admin.POST("/users/:id/notes", h.Notes.AdminCreate)
    admin.GET("/users/:id/notes", h.Notes.AdminList)
}
