package handler

import (
    "context"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.mongodb.org/mongo-driver/v2/mongo"

    "github.com/iliyamo/staff-attendance/internal/model"
    "github.com/iliyamo/staff-attendance/internal/notestore"
)

// maxNoteLen bounds free-text notes; the store is schemaless so the
// limit lives here.
const maxNoteLen = 2000

// NotesHandler serves daily notes, the free-text record attached to a
// user and a date.  Staff manage their own notes; admins can read any
// user's notes and attach notes to a user's day.
type NotesHandler struct {
    Notes *notestore.NoteStore
    Loc   *time.Location

    now func() time.Time
}

func NewNotesHandler(notes *notestore.NoteStore, loc *time.Location) *NotesHandler {
    if loc == nil {
        loc = time.UTC
    }
    return &NotesHandler{Notes: notes, Loc: loc, now: func() time.Time { return time.Now().UTC() }}
}

type noteReq struct {
    Date string `json:"date"`
    Note string `json:"note"`
}

func (h *NotesHandler) defaultDate() string {
    return h.now().In(h.Loc).Format(time.DateOnly)
}

// create validates the body and writes a note owned by userID and
// authored by authorID.
func (h *NotesHandler) create(c echo.Context, userID, authorID uint64) error {
    var req noteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Note = strings.TrimSpace(req.Note)
    if req.Note == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "note required"})
    }
    if len(req.Note) > maxNoteLen {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "note too long"})
    }
    if req.Date == "" {
        req.Date = h.defaultDate()
    }
    if !validDateKey(req.Date) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }

    n := &model.DailyNote{UserID: userID, AuthorID: authorID, Date: req.Date, Note: req.Note}
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Notes.Create(ctx, n); err != nil {
        log.Printf("notes: create failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save note failed"})
    }
    return c.JSON(http.StatusCreated, n)
}

// list returns the notes of one user for one date.
func (h *NotesHandler) list(c echo.Context, userID uint64) error {
    date := c.QueryParam("date")
    if date == "" {
        date = h.defaultDate()
    }
    if !validDateKey(date) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    notes, err := h.Notes.ListByUserDate(ctx, userID, date)
    if err != nil {
        log.Printf("notes: list failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notes failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"date": date, "notes": notes})
}

// Create handles POST /v1/notes: a staff member's own note for a day.
func (h *NotesHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return h.create(c, uid, uid)
}

// List handles GET /v1/notes?date=.
func (h *NotesHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return h.list(c, uid)
}

// Delete handles DELETE /v1/notes/:id.  The store scopes the delete to
// the caller so a foreign note id comes back as not found.
func (h *NotesHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id := c.Param("id")

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Notes.Delete(ctx, id, uid); err != nil {
        if err == mongo.ErrNoDocuments {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "note not found"})
        }
        log.Printf("notes: delete failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete note failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// AdminCreate handles POST /v1/admin/users/:id/notes, attaching a note
// to a staff member's day on their behalf.
func (h *NotesHandler) AdminCreate(c echo.Context) error {
    adminID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    target, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || target == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    return h.create(c, target, adminID)
}

// AdminList handles GET /v1/admin/users/:id/notes?date=.
func (h *NotesHandler) AdminList(c echo.Context) error {
    target, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || target == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    return h.list(c, target)
}
