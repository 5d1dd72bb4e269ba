package handler

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/staff-attendance/internal/attendance"
    "github.com/iliyamo/staff-attendance/internal/config"
    "github.com/iliyamo/staff-attendance/internal/model"
    "github.com/iliyamo/staff-attendance/internal/repository"
    "github.com/iliyamo/staff-attendance/internal/utils"
)

// AdminHandler serves the roster endpoints: account provisioning,
// profile edits, removal and per-user attendance review.  Every route
// sits behind the admin role gate.
type AdminHandler struct {
    Cfg     config.Config
    Users   *repository.UserRepo
    Records *repository.AttendanceRepo
    Tokens  *repository.TokenRepo

    now func() time.Time
}

func NewAdminHandler(cfg config.Config, u *repository.UserRepo, r *repository.AttendanceRepo, t *repository.TokenRepo) *AdminHandler {
    return &AdminHandler{Cfg: cfg, Users: u, Records: r, Tokens: t, now: func() time.Time { return time.Now().UTC() }}
}

type createUserReq struct {
    FullName     string `json:"full_name"`
    Email        string `json:"email"`
    Password     string `json:"password"`
    Role         string `json:"role"`
    Designation  string `json:"designation"`
    WorkFromHome bool   `json:"work_from_home"`
}

type updateUserReq struct {
    FullName     *string `json:"full_name"`
    Role         *string `json:"role"`
    Designation  *string `json:"designation"`
    WorkFromHome *bool   `json:"work_from_home"`
    IsActive     *bool   `json:"is_active"`
}

type setPasswordReq struct {
    Password string `json:"password"`
}

// rosterEntry is the roster view of a user: profile fields plus the
// live attendance mirror, never the password hash.
type rosterEntry struct {
    ID           uint64     `json:"id"`
    FullName     string     `json:"full_name"`
    Email        string     `json:"email"`
    Role         string     `json:"role"`
    Designation  string     `json:"designation"`
    WorkFromHome bool       `json:"work_from_home"`
    Status       string     `json:"status"`
    SignInTime   *time.Time `json:"sign_in_time"`
    SignOutTime  *time.Time `json:"sign_out_time"`
    WorkingHours float64    `json:"working_hours"`
    IsActive     bool       `json:"is_active"`
    State        string     `json:"state"`
}

func toRosterEntry(u model.User) rosterEntry {
    // The roster state is derived from the mirror columns the same way
    // the record state is, minus break visibility (breaks live only on
    // the attendance record).
    state := attendance.StateSignedOut
    if u.SignInTime != nil && u.SignOutTime == nil {
        state = attendance.StateWorking
    }
    return rosterEntry{
        ID:           u.ID,
        FullName:     u.FullName,
        Email:        u.Email,
        Role:         u.Role,
        Designation:  u.Designation,
        WorkFromHome: u.WorkFromHome,
        Status:       u.Status,
        SignInTime:   u.SignInTime,
        SignOutTime:  u.SignOutTime,
        WorkingHours: u.WorkingHours,
        IsActive:     u.IsActive,
        State:        string(state),
    }
}

func pathUserID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid user id")
    }
    return id, nil
}

func validRole(r string) bool { return r == model.RoleStaff || r == model.RoleAdmin }

// CreateUser handles POST /v1/admin/users.  Accounts are provisioned
// by admins only; there is no self-registration.
func (h *AdminHandler) CreateUser(c echo.Context) error {
    var req createUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.FullName = strings.TrimSpace(req.FullName)
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.FullName == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name/email/password required"})
    }
    if req.Role == "" {
        req.Role = model.RoleStaff
    }
    if !validRole(req.Role) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be staff or admin"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u := model.User{
        FullName:     req.FullName,
        Email:        req.Email,
        Role:         req.Role,
        Designation:  req.Designation,
        WorkFromHome: req.WorkFromHome,
    }
    id, err := h.Users.Create(ctx, &u, req.Password, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        log.Printf("admin: create user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
    }

    created, err := h.Users.GetByID(ctx, id)
    if err != nil {
        // The insert succeeded; fall back to echoing the input.
        u.ID = id
        return c.JSON(http.StatusCreated, toRosterEntry(u))
    }
    return c.JSON(http.StatusCreated, toRosterEntry(created))
}

// ListUsers handles GET /v1/admin/users: the full roster with live
// attendance mirror fields.
func (h *AdminHandler) ListUsers(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Users.List(ctx)
    if err != nil {
        log.Printf("admin: list users failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
    }
    out := make([]rosterEntry, 0, len(users))
    for _, u := range users {
        out = append(out, toRosterEntry(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// GetUser handles GET /v1/admin/users/:id.
func (h *AdminHandler) GetUser(c echo.Context) error {
    id, err := pathUserID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        log.Printf("admin: get user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toRosterEntry(u))
}

// UpdateUser handles PATCH /v1/admin/users/:id.  Absent fields keep
// their current value.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
    id, err := pathUserID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var req updateUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        log.Printf("admin: load user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    if req.FullName != nil {
        if strings.TrimSpace(*req.FullName) == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name must not be empty"})
        }
        u.FullName = strings.TrimSpace(*req.FullName)
    }
    if req.Role != nil {
        if !validRole(*req.Role) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be staff or admin"})
        }
        u.Role = *req.Role
    }
    if req.Designation != nil {
        u.Designation = *req.Designation
    }
    if req.WorkFromHome != nil {
        u.WorkFromHome = *req.WorkFromHome
    }

    if err := h.Users.UpdateProfile(ctx, id, u.FullName, u.Role, u.Designation, u.WorkFromHome); err != nil {
        log.Printf("admin: update user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
    }
    if req.IsActive != nil && *req.IsActive != u.IsActive {
        if err := h.Users.SetActive(ctx, id, *req.IsActive); err != nil {
            log.Printf("admin: set active failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
        }
        u.IsActive = *req.IsActive
        if !u.IsActive {
            // A disabled account loses its sessions right away.
            _ = h.Tokens.RevokeAllForUser(ctx, id)
        }
    }
    return c.JSON(http.StatusOK, toRosterEntry(u))
}

// DeleteUser handles DELETE /v1/admin/users/:id.  Attendance rows and
// refresh tokens cascade away with the account.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
    id, err := pathUserID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    if self, err := getUserID(c); err == nil && self == id {
        return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete own account"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Users.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        log.Printf("admin: delete user failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// SetPassword handles PUT /v1/admin/users/:id/password: an admin
// override that also revokes the user's refresh tokens.
func (h *AdminHandler) SetPassword(c echo.Context) error {
    id, err := pathUserID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    var req setPasswordReq
    if err := c.Bind(&req); err != nil || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
    }
    if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        log.Printf("admin: set password failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set password failed"})
    }
    _ = h.Tokens.RevokeAllForUser(ctx, id)
    return c.NoContent(http.StatusNoContent)
}

// UserAttendance handles GET /v1/admin/users/:id/attendance?from=&to=.
func (h *AdminHandler) UserAttendance(c echo.Context) error {
    id, err := pathUserID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    from := c.QueryParam("from")
    to := c.QueryParam("to")
    now := h.now().In(h.Cfg.Timezone)
    if from == "" {
        from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.Cfg.Timezone).Format(time.DateOnly)
    }
    if to == "" {
        to = now.Format(time.DateOnly)
    }
    if !validDateKey(from) || !validDateKey(to) || from > to {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "from/to must be YYYY-MM-DD with from <= to"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    recs, err := h.Records.ListRange(ctx, id, from, to)
    if err != nil {
        log.Printf("admin: list attendance failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list records failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"user_id": id, "from": from, "to": to, "records": recs})
}
