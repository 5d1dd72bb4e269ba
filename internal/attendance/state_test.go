package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/staff-attendance/internal/model"
)

func ts(t time.Time) *time.Time { return &t }

func TestDeriveIsPureFunctionOfTimestamps(t *testing.T) {
	in := at(9, 0, 0)
	out := at(17, 0, 0)
	brk := at(10, 0, 0)

	cases := []struct {
		name string
		rec  *model.AttendanceRecord
		want State
	}{
		{"nil record", nil, StateSignedOut},
		{"no sign-in", &model.AttendanceRecord{}, StateSignedOut},
		{"signed out", &model.AttendanceRecord{SignInTime: ts(in), SignOutTime: ts(out)}, StateSignedOut},
		{"working", &model.AttendanceRecord{SignInTime: ts(in)}, StateWorking},
		{"on break", &model.AttendanceRecord{SignInTime: ts(in), BreakStartTime: ts(brk)}, StateOnBreak},
		// A sign-out trumps a lingering break start.
		{"signed out with stale break start", &model.AttendanceRecord{SignInTime: ts(in), SignOutTime: ts(out), BreakStartTime: ts(brk)}, StateSignedOut},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Derive(tc.rec))
		})
	}
}

func TestEffectiveMinutesSubtractsBreaks(t *testing.T) {
	rec := &model.AttendanceRecord{SignInTime: ts(at(9, 0, 0)), BreakMinutes: 15}
	assert.Equal(t, 105, EffectiveMinutes(rec, at(11, 0, 0)))
}

func TestEffectiveMinutesNeverNegative(t *testing.T) {
	// Break minutes exceeding elapsed time clamp the display at zero.
	rec := &model.AttendanceRecord{SignInTime: ts(at(9, 0, 0)), BreakMinutes: 600}
	assert.Equal(t, 0, EffectiveMinutes(rec, at(10, 0, 0)))

	// A clock that went backwards also clamps at zero.
	rec = &model.AttendanceRecord{SignInTime: ts(at(9, 0, 0))}
	assert.Equal(t, 0, EffectiveMinutes(rec, at(8, 0, 0)))
}

func TestEffectiveMinutesExactAtMinuteBoundaries(t *testing.T) {
	rec := &model.AttendanceRecord{SignInTime: ts(at(9, 0, 0))}
	assert.Equal(t, 480, EffectiveMinutes(rec, at(17, 0, 0)))
	assert.Equal(t, 479, EffectiveMinutes(rec, at(16, 59, 59)), "a second short of the boundary floors down")
}

func TestEffectiveMinutesStopsAtSignOut(t *testing.T) {
	rec := &model.AttendanceRecord{
		SignInTime:   ts(at(9, 0, 0)),
		SignOutTime:  ts(at(17, 0, 0)),
		BreakMinutes: 30,
	}
	frozen := EffectiveMinutes(rec, at(17, 0, 0))
	assert.Equal(t, 7*60+30, frozen)
	assert.Equal(t, frozen, EffectiveMinutes(rec, at(23, 0, 0)), "value must not advance after sign-out")
}

func TestEffectiveMinutesZeroWithoutSignIn(t *testing.T) {
	assert.Equal(t, 0, EffectiveMinutes(&model.AttendanceRecord{}, at(12, 0, 0)))
	assert.Equal(t, 0, EffectiveMinutes(nil, at(12, 0, 0)))
}
