package attendance

import (
	"errors"
	"math"
	"time"

	"github.com/iliyamo/staff-attendance/internal/model"
)

// MinimumShift is the shortest elapsed time since sign-in that a
// sign-out will accept.  Anything shorter is rejected as too short to
// count as a shift.
const MinimumShift = 5 * time.Minute

// Precondition violations surfaced to the user.  Handlers translate
// these into HTTP 409 responses with the message as-is.
var (
	ErrAlreadySignedIn  = errors.New("already signed in")
	ErrNotSignedIn      = errors.New("not signed in")
	ErrAlreadySignedOut = errors.New("already signed out")
	ErrShiftTooShort    = errors.New("too short to count")
	ErrAlreadyOnBreak   = errors.New("already on break")
	ErrNotOnBreak       = errors.New("not on break")
	// ErrBreakCorrupt marks a data-integrity gap: a break end with no
	// usable break start.  It is surfaced, never silently repaired.
	ErrBreakCorrupt = errors.New("break record corrupt")
)

// NewRecord builds the attendance record created by the first sign-in
// of a day.
func NewRecord(userID uint64, date string, workFromHome bool, now time.Time) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		UserID:       userID,
		Date:         date,
		SignInTime:   &now,
		WorkFromHome: workFromHome,
	}
}

// SignIn initializes the record for the day.  A record that already
// carries a sign-in time is rejected rather than overwritten, which
// makes a doubled button press (or a second browser) harmless.
func SignIn(rec *model.AttendanceRecord, now time.Time) error {
	if rec.SignInTime != nil {
		return ErrAlreadySignedIn
	}
	rec.SignInTime = &now
	rec.SignOutTime = nil
	rec.WorkingHours = 0
	rec.BreakMinutes = 0
	rec.BreakStartTime = nil
	rec.Breaks = nil
	return nil
}

// SignOut closes the day from either the working or on-break state.
// WorkingHours is the raw elapsed time in hours rounded to 3 decimals;
// break time is deliberately not subtracted from the persisted field
// (the display computation subtracts it).  An open break is discarded.
func SignOut(rec *model.AttendanceRecord, now time.Time) error {
	if rec == nil || rec.SignInTime == nil {
		return ErrNotSignedIn
	}
	if rec.SignOutTime != nil {
		return ErrAlreadySignedOut
	}
	elapsed := now.Sub(*rec.SignInTime)
	if elapsed < MinimumShift {
		return ErrShiftTooShort
	}
	rec.SignOutTime = &now
	rec.WorkingHours = roundHours(elapsed)
	rec.BreakStartTime = nil
	return nil
}

// BreakStart opens a break.  Only one break may be open at a time and
// breaks require an active working session.
func BreakStart(rec *model.AttendanceRecord, now time.Time) error {
	switch Derive(rec) {
	case StateSignedOut:
		if rec != nil && rec.SignOutTime != nil {
			return ErrAlreadySignedOut
		}
		return ErrNotSignedIn
	case StateOnBreak:
		return ErrAlreadyOnBreak
	}
	rec.BreakStartTime = &now
	return nil
}

// BreakEnd closes the open break, appends the immutable Break entry
// and recomputes the cumulative break minutes from the full list.
func BreakEnd(rec *model.AttendanceRecord, now time.Time) error {
	if Derive(rec) != StateOnBreak {
		return ErrNotOnBreak
	}
	start := rec.BreakStartTime
	if start == nil {
		return ErrBreakCorrupt
	}
	if !now.After(*start) {
		return ErrBreakCorrupt
	}
	rec.Breaks = append(rec.Breaks, model.Break{
		RecordID: rec.ID,
		Start:    *start,
		End:      now,
		// Integer division floors exactly; going through float64
		// minutes can misplace the floor at minute boundaries.
		DurationMin: int(now.Sub(*start) / time.Minute),
	})
	total := 0
	for _, b := range rec.Breaks {
		total += b.DurationMin
	}
	rec.BreakMinutes = total
	rec.BreakStartTime = nil
	return nil
}

// roundHours converts a duration to hours rounded to 3 decimal places.
func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*1000) / 1000
}
