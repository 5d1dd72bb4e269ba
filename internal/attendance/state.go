// Package attendance implements the sign-in/sign-out/break lifecycle
// for one staff member on one calendar day.  All functions are pure:
// they operate on an AttendanceRecord plus a caller-supplied clock
// value and never touch storage themselves.  The handler layer loads
// the freshest record, applies a transition and persists the result,
// so preconditions are always evaluated against current data rather
// than whatever state a client cached.
package attendance

import (
	"time"

	"github.com/iliyamo/staff-attendance/internal/model"
)

// State is the derived lifecycle position of a record.  It is computed
// from the stored timestamps on every read and never persisted as an
// enum of its own.
type State string

const (
	StateSignedOut State = "signed_out"
	StateWorking   State = "working"
	StateOnBreak   State = "on_break"
)

// Derive returns the state implied by the record's timestamps:
// signed_out when there is no sign-in or a sign-out already exists,
// on_break when an unterminated break is open, working otherwise.
func Derive(rec *model.AttendanceRecord) State {
	if rec == nil || rec.SignInTime == nil || rec.SignOutTime != nil {
		return StateSignedOut
	}
	if rec.BreakStartTime != nil {
		return StateOnBreak
	}
	return StateWorking
}

// EffectiveMinutes returns the working time to display for the record
// at the given instant: whole elapsed minutes since sign-in, minus
// completed break minutes, clamped at zero.  Once a sign-out time is
// set the value stops advancing.  This is a presentation computation
// only; nothing here is persisted.
func EffectiveMinutes(rec *model.AttendanceRecord, now time.Time) int {
	if rec == nil || rec.SignInTime == nil {
		return 0
	}
	end := now
	if rec.SignOutTime != nil {
		end = *rec.SignOutTime
	}
	elapsed := int(end.Sub(*rec.SignInTime) / time.Minute)
	if elapsed <= 0 {
		return 0
	}
	deducted := rec.BreakMinutes
	if deducted > elapsed {
		deducted = elapsed
	}
	return elapsed - deducted
}
