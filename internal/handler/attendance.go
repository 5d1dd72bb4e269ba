package handler

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/staff-attendance/internal/attendance"
    "github.com/iliyamo/staff-attendance/internal/model"
    "github.com/iliyamo/staff-attendance/internal/queue"
    "github.com/iliyamo/staff-attendance/internal/repository"
    queue_publisher "github.com/iliyamo/staff-attendance/internal/service"
    "github.com/iliyamo/staff-attendance/internal/watch"
)

// AttendanceHandler serves the sign-in/sign-out/break endpoints plus
// the read side (today, history, live stream).  Loc decides which
// calendar day "today" falls on; timestamps themselves stay UTC.
type AttendanceHandler struct {
    Users   *repository.UserRepo
    Records *repository.AttendanceRepo
    Hub     *watch.Hub
    Loc     *time.Location

    // now is swappable in tests; defaults to time.Now.
    now func() time.Time
}

func NewAttendanceHandler(u *repository.UserRepo, r *repository.AttendanceRepo, hub *watch.Hub, loc *time.Location) *AttendanceHandler {
    if loc == nil {
        loc = time.UTC
    }
    return &AttendanceHandler{Users: u, Records: r, Hub: hub, Loc: loc, now: func() time.Time { return time.Now().UTC() }}
}

// dateKey maps an instant to the YYYY-MM-DD business day in the
// configured timezone.
func (h *AttendanceHandler) dateKey(t time.Time) string {
    return t.In(h.Loc).Format(time.DateOnly)
}

// snapshot builds the uniform payload returned by every transition and
// by the today endpoint, and fanned out on the stream.
func (h *AttendanceHandler) snapshot(userID uint64, date string, rec *model.AttendanceRecord, now time.Time) watch.Snapshot {
    return watch.Snapshot{
        UserID:           userID,
        Date:             date,
        State:            attendance.Derive(rec),
        Record:           rec,
        EffectiveMinutes: attendance.EffectiveMinutes(rec, now),
        At:               now,
    }
}

// broadcast fans a successful transition out to stream subscribers and
// the message queue.  Neither path may fail the transition, which is
// already persisted by the time this runs.
func (h *AttendanceHandler) broadcast(snap watch.Snapshot, transition, fullName string) {
    h.Hub.Publish(snap)

    ev := queue.AttendanceEvent{
        UserID:           snap.UserID,
        FullName:         fullName,
        Date:             snap.Date,
        Transition:       transition,
        State:            string(snap.State),
        EffectiveMinutes: snap.EffectiveMinutes,
        OccurredAt:       snap.At.Format(time.RFC3339),
    }
    if snap.Record != nil {
        ev.WorkingHours = snap.Record.WorkingHours
        ev.BreakMinutes = snap.Record.BreakMinutes
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = queue_publisher.PublishAttendanceEvent(ctx, ev)
    }()
}

// transitionStatus maps the state-machine sentinels onto HTTP codes.
// Precondition violations are 409 with the message verbatim; the
// integrity sentinel is a 500 because it signals bad data, not a bad
// request.
func transitionStatus(err error) int {
    switch {
    case errors.Is(err, attendance.ErrBreakCorrupt):
        return http.StatusInternalServerError
    case errors.Is(err, attendance.ErrAlreadySignedIn),
        errors.Is(err, attendance.ErrNotSignedIn),
        errors.Is(err, attendance.ErrAlreadySignedOut),
        errors.Is(err, attendance.ErrShiftTooShort),
        errors.Is(err, attendance.ErrAlreadyOnBreak),
        errors.Is(err, attendance.ErrNotOnBreak):
        return http.StatusConflict
    default:
        return http.StatusInternalServerError
    }
}

// SignIn handles POST /v1/attendance/sign-in.  The precondition is
// re-checked against a fresh read, and the day-record unique key turns
// a lost race into the same "already signed in" answer.
func (h *AttendanceHandler) SignIn(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    now := h.now()
    date := h.dateKey(now)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        log.Printf("sign-in: load user %d failed: %v", uid, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
    }

    rec, err := h.Records.GetByDate(ctx, uid, date)
    if err != nil {
        log.Printf("sign-in: read record failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read record failed"})
    }

    if rec == nil {
        rec = attendance.NewRecord(uid, date, u.WorkFromHome, now)
        if err := h.Records.Create(ctx, rec); err != nil {
            if errors.Is(err, repository.ErrConflict) {
                return c.JSON(http.StatusConflict, echo.Map{"error": attendance.ErrAlreadySignedIn.Error()})
            }
            log.Printf("sign-in: create record failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write record failed"})
        }
    } else {
        if err := attendance.SignIn(rec, now); err != nil {
            return c.JSON(transitionStatus(err), echo.Map{"error": err.Error()})
        }
        if err := h.Records.Update(ctx, rec); err != nil {
            log.Printf("sign-in: update record failed: %v", err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write record failed"})
        }
    }

    // Profile mirror is a second independent write; a failure here
    // leaves the record authoritative and is reported, not rolled back.
    if err := h.Users.MirrorSignIn(ctx, uid, now); err != nil {
        log.Printf("sign-in: profile mirror failed for user %d: %v", uid, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile mirror failed"})
    }

    snap := h.snapshot(uid, date, rec, now)
    h.broadcast(snap, "sign_in", u.FullName)
    return c.JSON(http.StatusCreated, snap)
}

// SignOut handles POST /v1/attendance/sign-out.
func (h *AttendanceHandler) SignOut(c echo.Context) error {
    return h.mutate(c, "sign_out", attendance.SignOut)
}

// BreakStart handles POST /v1/attendance/break/start.
func (h *AttendanceHandler) BreakStart(c echo.Context) error {
    return h.mutate(c, "break_start", attendance.BreakStart)
}

// BreakEnd handles POST /v1/attendance/break/end.
func (h *AttendanceHandler) BreakEnd(c echo.Context) error {
    return h.mutate(c, "break_end", attendance.BreakEnd)
}

// mutate is the shared fresh-read / pure-transition / persist pipeline
// for every transition except the record-creating sign-in.
func (h *AttendanceHandler) mutate(c echo.Context, transition string, apply func(*model.AttendanceRecord, time.Time) error) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    now := h.now()
    date := h.dateKey(now)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, err := h.Records.GetByDate(ctx, uid, date)
    if err != nil {
        log.Printf("%s: read record failed: %v", transition, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read record failed"})
    }
    if rec == nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": attendance.ErrNotSignedIn.Error()})
    }

    breaksBefore := len(rec.Breaks)
    if err := apply(rec, now); err != nil {
        return c.JSON(transitionStatus(err), echo.Map{"error": err.Error()})
    }

    // A closed break is an immutable row of its own; it commits in one
    // transaction with the record so a failed write rolls both back and
    // a retry cannot append the same break twice.
    if len(rec.Breaks) > breaksBefore {
        b := &rec.Breaks[len(rec.Breaks)-1]
        b.RecordID = rec.ID
        if err := h.Records.CompleteBreak(ctx, rec, b); err != nil {
            log.Printf("%s: complete break failed: %v", transition, err)
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write record failed"})
        }
    } else if err := h.Records.Update(ctx, rec); err != nil {
        log.Printf("%s: update record failed: %v", transition, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "write record failed"})
    }

    fullName := ""
    if u, uerr := h.Users.GetByID(ctx, uid); uerr == nil {
        fullName = u.FullName
        if transition == "sign_out" && rec.SignOutTime != nil {
            if err := h.Users.MirrorSignOut(ctx, uid, *rec.SignOutTime, rec.WorkingHours); err != nil {
                log.Printf("sign_out: profile mirror failed for user %d: %v", uid, err)
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile mirror failed"})
            }
        }
    } else if transition == "sign_out" {
        log.Printf("sign_out: load user %d failed: %v", uid, uerr)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile mirror failed"})
    }

    snap := h.snapshot(uid, date, rec, now)
    h.broadcast(snap, transition, fullName)
    return c.JSON(http.StatusOK, snap)
}

// Today handles GET /v1/attendance/today.  Absent record means a clean
// signed-out day; the payload shape is the same either way.
func (h *AttendanceHandler) Today(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    now := h.now()
    date := h.dateKey(now)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, err := h.Records.GetByDate(ctx, uid, date)
    if err != nil {
        log.Printf("today: read record failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "read record failed"})
    }
    return c.JSON(http.StatusOK, h.snapshot(uid, date, rec, now))
}

// History handles GET /v1/attendance/history?from=&to=.  Defaults to
// the current calendar month in the configured timezone.
func (h *AttendanceHandler) History(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    from, to, err := h.rangeParams(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    recs, err := h.Records.ListRange(ctx, uid, from, to)
    if err != nil {
        log.Printf("history: list failed: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list records failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"from": from, "to": to, "records": recs})
}

// rangeParams validates from/to query params, defaulting to the
// current month.
func (h *AttendanceHandler) rangeParams(c echo.Context) (from, to string, err error) {
    now := h.now().In(h.Loc)
    from = c.QueryParam("from")
    to = c.QueryParam("to")
    if from == "" {
        from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, h.Loc).Format(time.DateOnly)
    }
    if to == "" {
        to = now.Format(time.DateOnly)
    }
    if !validDateKey(from) || !validDateKey(to) {
        return "", "", errors.New("from/to must be YYYY-MM-DD")
    }
    if from > to {
        return "", "", errors.New("from must not be after to")
    }
    return from, to, nil
}

// Stream handles GET /v1/attendance/stream as server-sent events.  An
// initial snapshot is pushed immediately; afterwards every transition
// for the caller arrives as one `data:` frame.  Heartbeat comments
// keep intermediaries from closing the idle connection.
func (h *AttendanceHandler) Stream(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }

    res := c.Response()
    res.Header().Set(echo.HeaderContentType, "text/event-stream")
    res.Header().Set(echo.HeaderCacheControl, "no-cache")
    res.Header().Set("Connection", "keep-alive")
    res.WriteHeader(http.StatusOK)

    now := h.now()
    date := h.dateKey(now)

    readCtx, cancelRead := context.WithTimeout(c.Request().Context(), 5*time.Second)
    rec, err := h.Records.GetByDate(readCtx, uid, date)
    cancelRead()
    if err != nil {
        log.Printf("stream: initial read failed: %v", err)
        return nil
    }
    if err := writeEvent(res, h.snapshot(uid, date, rec, now)); err != nil {
        return nil
    }

    ch, cancel := h.Hub.Subscribe(uid)
    defer cancel()

    heartbeat := time.NewTicker(25 * time.Second)
    defer heartbeat.Stop()

    ctx := c.Request().Context()
    for {
        select {
        case <-ctx.Done():
            return nil
        case snap, ok := <-ch:
            if !ok {
                return nil
            }
            if err := writeEvent(res, snap); err != nil {
                return nil
            }
        case <-heartbeat.C:
            if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
                return nil
            }
            res.Flush()
        }
    }
}

func writeEvent(res *echo.Response, snap watch.Snapshot) error {
    body, err := json.Marshal(snap)
    if err != nil {
        return err
    }
    if _, err := fmt.Fprintf(res, "data: %s\n\n", body); err != nil {
        return err
    }
    res.Flush()
    return nil
}
