package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/staff-attendance/internal/model"
)

func at(hour, min, sec int) time.Time {
	return time.Date(2025, time.March, 10, hour, min, sec, 0, time.UTC)
}

func TestSignInInitializesRecord(t *testing.T) {
	now := at(9, 0, 0)
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}

	require.NoError(t, SignIn(rec, now))
	require.NotNil(t, rec.SignInTime)
	assert.True(t, rec.SignInTime.Equal(now))
	assert.Nil(t, rec.SignOutTime)
	assert.Nil(t, rec.BreakStartTime)
	assert.Zero(t, rec.WorkingHours)
	assert.Zero(t, rec.BreakMinutes)
	assert.Empty(t, rec.Breaks)
}

func TestDoubleSignInRejectedWithoutOverwrite(t *testing.T) {
	first := at(9, 0, 0)
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, first))

	err := SignIn(rec, at(9, 30, 0))
	require.ErrorIs(t, err, ErrAlreadySignedIn)
	assert.True(t, rec.SignInTime.Equal(first), "first sign-in time must survive a repeated call")
}

func TestSignOutRejectedWhenNotSignedIn(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.ErrorIs(t, SignOut(rec, at(17, 0, 0)), ErrNotSignedIn)
	assert.Nil(t, rec.SignOutTime)
}

func TestSignOutRejectedWhenAlreadySignedOut(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))
	require.NoError(t, SignOut(rec, at(17, 0, 0)))

	require.ErrorIs(t, SignOut(rec, at(18, 0, 0)), ErrAlreadySignedOut)
	assert.True(t, rec.SignOutTime.Equal(at(17, 0, 0)))
}

func TestSignOutUnderMinimumShiftRejected(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))

	err := SignOut(rec, at(9, 4, 59))
	require.ErrorIs(t, err, ErrShiftTooShort)
	assert.Nil(t, rec.SignOutTime, "persisted state must be unchanged on rejection")
	assert.Zero(t, rec.WorkingHours)
}

func TestSignOutComputesRawElapsedHours(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))

	require.NoError(t, SignOut(rec, at(17, 30, 0)))
	require.NotNil(t, rec.SignOutTime)
	assert.InDelta(t, 8.5, rec.WorkingHours, 0.0005)
}

func TestSignOutRoundsToThreeDecimals(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))

	// 7h23m17s = 7.38805... hours -> 7.388
	require.NoError(t, SignOut(rec, at(16, 23, 17)))
	assert.Equal(t, 7.388, rec.WorkingHours)
}

func TestBreakStartRequiresWorkingState(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.ErrorIs(t, BreakStart(rec, at(10, 0, 0)), ErrNotSignedIn)

	require.NoError(t, SignIn(rec, at(9, 0, 0)))
	require.NoError(t, BreakStart(rec, at(10, 0, 0)))
	require.ErrorIs(t, BreakStart(rec, at(10, 5, 0)), ErrAlreadyOnBreak)

	require.NoError(t, BreakEnd(rec, at(10, 15, 0)))
	require.NoError(t, SignOut(rec, at(17, 0, 0)))
	require.ErrorIs(t, BreakStart(rec, at(17, 5, 0)), ErrAlreadySignedOut)
}

func TestBreakEndAppendsAndAccumulates(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))

	require.NoError(t, BreakStart(rec, at(10, 0, 0)))
	require.NoError(t, BreakEnd(rec, at(10, 15, 0)))
	require.Len(t, rec.Breaks, 1)
	assert.Equal(t, 15, rec.Breaks[0].DurationMin)
	assert.Equal(t, 15, rec.BreakMinutes)
	assert.Nil(t, rec.BreakStartTime)

	require.NoError(t, BreakStart(rec, at(13, 0, 0)))
	require.NoError(t, BreakEnd(rec, at(13, 42, 30)))
	require.Len(t, rec.Breaks, 2)
	assert.Equal(t, 42, rec.Breaks[1].DurationMin, "duration is floored to whole minutes")
	assert.Equal(t, 57, rec.BreakMinutes, "cumulative minutes equal the sum over the list")
}

func TestBreakDurationExactAtMinuteBoundaries(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))

	// An exact multiple of a minute must not lose a minute to floating
	// point rounding on the way to the floor.
	require.NoError(t, BreakStart(rec, at(10, 0, 0)))
	require.NoError(t, BreakEnd(rec, at(10, 45, 0)))
	assert.Equal(t, 45, rec.Breaks[0].DurationMin)

	// One second short of the boundary still floors down.
	require.NoError(t, BreakStart(rec, at(13, 0, 0)))
	require.NoError(t, BreakEnd(rec, at(13, 12, 59)))
	assert.Equal(t, 12, rec.Breaks[1].DurationMin)
	assert.Equal(t, 57, rec.BreakMinutes)
}

func TestBreakEndRejectedWhenNotOnBreak(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))
	require.ErrorIs(t, BreakEnd(rec, at(10, 0, 0)), ErrNotOnBreak)
	assert.Empty(t, rec.Breaks)
}

func TestBreakEndWithNonAdvancingClockIsIntegrityFailure(t *testing.T) {
	start := at(10, 0, 0)
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))
	rec.BreakStartTime = &start

	require.ErrorIs(t, BreakEnd(rec, start), ErrBreakCorrupt)
	require.ErrorIs(t, BreakEnd(rec, at(9, 59, 0)), ErrBreakCorrupt)
	assert.Empty(t, rec.Breaks, "a corrupt break is surfaced, not appended")
}

func TestOpenBreakDiscardedAtSignOut(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}
	require.NoError(t, SignIn(rec, at(9, 0, 0)))
	require.NoError(t, BreakStart(rec, at(16, 0, 0)))

	require.NoError(t, SignOut(rec, at(17, 0, 0)))
	assert.Nil(t, rec.BreakStartTime)
	assert.Empty(t, rec.Breaks, "an unterminated break is not turned into a completed one")
}

// Full-day scenario from the product walkthrough: sign in at 09:00,
// break 10:00-10:15, sign out at 17:00.  The persisted workingHours is
// the raw 8.000 elapsed hours while the displayed time nets out the
// break at 7h45m.  The two figures diverging for days with breaks is a
// known quirk of the persisted-field contract, kept on purpose.
func TestFullDayScenario(t *testing.T) {
	rec := &model.AttendanceRecord{UserID: 7, Date: "2025-03-10"}

	require.NoError(t, SignIn(rec, at(9, 0, 0)))
	require.NoError(t, BreakStart(rec, at(10, 0, 0)))
	require.NoError(t, BreakEnd(rec, at(10, 15, 0)))

	require.Len(t, rec.Breaks, 1)
	assert.True(t, rec.Breaks[0].Start.Equal(at(10, 0, 0)))
	assert.True(t, rec.Breaks[0].End.Equal(at(10, 15, 0)))
	assert.Equal(t, 15, rec.Breaks[0].DurationMin)
	assert.Equal(t, 15, rec.BreakMinutes)

	require.NoError(t, SignOut(rec, at(17, 0, 0)))
	assert.Equal(t, 8.0, rec.WorkingHours)
	assert.Equal(t, 7*60+45, EffectiveMinutes(rec, at(17, 0, 0)))
}
