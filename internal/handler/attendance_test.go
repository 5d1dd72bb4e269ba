package handler

import (
    "errors"
    "net/http"
    "net/http/httptest"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/staff-attendance/internal/repository"
    "github.com/iliyamo/staff-attendance/internal/watch"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newAttendanceTestHandler(t *testing.T) (*AttendanceHandler, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    h := NewAttendanceHandler(repository.NewUserRepo(db), repository.NewAttendanceRepo(db), watch.NewHub(), time.UTC)
    h.now = func() time.Time { return fixedNow }
    return h, mock
}

func postAs(userID uint64) (echo.Context, *httptest.ResponseRecorder) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", userID)
    return c, rec
}

func expectUserRow(mock sqlmock.Sqlmock, id uint64, wfh bool) {
    rows := sqlmock.NewRows([]string{"id", "full_name", "email", "password_hash", "role",
        "designation", "work_from_home", "status", "sign_in_time", "sign_out_time",
        "working_hours", "is_active", "created_at", "updated_at"}).
        AddRow(id, "Sara Haddad", "sara@example.com", "hash", "staff",
            "Designer", wfh, "offline", nil, nil, 0.0, true, fixedNow, fixedNow)
    mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").WithArgs(id).WillReturnRows(rows)
}

func recordRows() *sqlmock.Rows {
    return sqlmock.NewRows([]string{"id", "user_id", "record_date", "sign_in_time",
        "sign_out_time", "working_hours", "break_minutes", "break_start_time",
        "work_from_home", "created_at", "updated_at"})
}

func TestSignInCreatesRecordAndMirrorsProfile(t *testing.T) {
    h, mock := newAttendanceTestHandler(t)

    expectUserRow(mock, 7, true)
    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows())
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_records")).
        WillReturnResult(sqlmock.NewResult(42, 1))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status=?, sign_in_time=?, sign_out_time=NULL WHERE id=?")).
        WillReturnResult(sqlmock.NewResult(0, 1))

    c, rec := postAs(7)
    require.NoError(t, h.SignIn(c))

    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Contains(t, rec.Body.String(), `"state":"working"`)
    assert.Contains(t, rec.Body.String(), `"date":"2025-03-10"`)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignInTwiceIsConflict(t *testing.T) {
    h, mock := newAttendanceTestHandler(t)

    expectUserRow(mock, 7, false)
    signIn := fixedNow.Add(-time.Hour)
    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows().AddRow(42, 7, "2025-03-10", signIn, nil, 0.0, 0, nil, false, fixedNow, fixedNow))
    mock.ExpectQuery("SELECT (.+) FROM attendance_breaks").
        WillReturnRows(sqlmock.NewRows([]string{"id", "record_id", "start_time", "end_time", "duration_min"}))

    c, rec := postAs(7)
    require.NoError(t, h.SignIn(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "already signed in")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignOutBeforeMinimumShiftIsConflict(t *testing.T) {
    h, mock := newAttendanceTestHandler(t)

    signIn := fixedNow.Add(-2 * time.Minute)
    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows().AddRow(42, 7, "2025-03-10", signIn, nil, 0.0, 0, nil, false, fixedNow, fixedNow))
    mock.ExpectQuery("SELECT (.+) FROM attendance_breaks").
        WillReturnRows(sqlmock.NewRows([]string{"id", "record_id", "start_time", "end_time", "duration_min"}))

    c, rec := postAs(7)
    require.NoError(t, h.SignOut(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "too short to count")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignOutWithoutRecordIsConflict(t *testing.T) {
    h, mock := newAttendanceTestHandler(t)

    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows())

    c, rec := postAs(7)
    require.NoError(t, h.SignOut(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.Contains(t, rec.Body.String(), "not signed in")
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBreakEndRetryAfterFailedWriteCountsBreakOnce(t *testing.T) {
    h, mock := newAttendanceTestHandler(t)
    signIn := fixedNow.Add(-2 * time.Hour)
    breakStart := fixedNow.Add(-30 * time.Minute)
    emptyBreaks := func() *sqlmock.Rows {
        return sqlmock.NewRows([]string{"id", "record_id", "start_time", "end_time", "duration_min"})
    }

    // First attempt: the record write fails, which must roll the break
    // row back with it and leave the stored state untouched.
    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows().AddRow(42, 7, "2025-03-10", signIn, nil, 0.0, 0, breakStart, false, fixedNow, fixedNow))
    mock.ExpectQuery("SELECT (.+) FROM attendance_breaks").
        WillReturnRows(emptyBreaks())
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_breaks")).
        WillReturnResult(sqlmock.NewResult(5, 1))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_records SET")).
        WillReturnError(errors.New("connection reset"))
    mock.ExpectRollback()

    c, rec := postAs(7)
    require.NoError(t, h.BreakEnd(c))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)

    // Retry: the fresh read still shows the open break and no stored
    // break rows, so exactly one row commits and the total is the
    // single break's 30 minutes, not a doubled 60.
    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows().AddRow(42, 7, "2025-03-10", signIn, nil, 0.0, 0, breakStart, false, fixedNow, fixedNow))
    mock.ExpectQuery("SELECT (.+) FROM attendance_breaks").
        WillReturnRows(emptyBreaks())
    mock.ExpectBegin()
    mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_breaks")).
        WithArgs(uint64(42), breakStart, fixedNow, 30).
        WillReturnResult(sqlmock.NewResult(5, 1))
    mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance_records SET")).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()
    expectUserRow(mock, 7, false)

    c, rec = postAs(7)
    require.NoError(t, h.BreakEnd(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"break_minutes":30`)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTodayWithoutRecordIsCleanSignedOutDay(t *testing.T) {
    h, mock := newAttendanceTestHandler(t)

    mock.ExpectQuery("SELECT (.+) FROM attendance_records WHERE user_id=").
        WithArgs(uint64(7), "2025-03-10").
        WillReturnRows(recordRows())

    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(7))

    require.NoError(t, h.Today(c))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"state":"signed_out"`)
    assert.Contains(t, rec.Body.String(), `"effective_minutes":0`)
    assert.NoError(t, mock.ExpectationsWereMet())
}
