package model

import "time"

// AttendanceRecord is the per-user, per-calendar-day entity stored in
// the `attendance_records` table.  Exactly one record exists per
// (user, date) pair; it is created on the first sign-in of the day and
// mutated by break and sign-out transitions.  The record, not the user
// profile, is the source of truth for break data.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – owner of the record.
//  Date           – calendar day as "YYYY-MM-DD".
//  SignInTime     – first sign-in of the day (nil only on a stub row).
//  SignOutTime    – sign-out timestamp (nil until signed out).
//  WorkingHours   – raw elapsed hours at sign-out, rounded to 3
//                   decimals.  Break time is NOT subtracted here; the
//                   display-side computation subtracts it.
//  BreakMinutes   – sum of completed break durations in whole minutes.
//  BreakStartTime – start of the currently open break (nil when none).
//  WorkFromHome   – whether the day was worked remotely.
//  Breaks         – completed breaks, ordered by start time.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type AttendanceRecord struct {
    ID             uint64     `json:"id"`               // attendance_records.id
    UserID         uint64     `json:"user_id"`          // attendance_records.user_id
    Date           string     `json:"date"`             // attendance_records.record_date
    SignInTime     *time.Time `json:"sign_in_time"`     // attendance_records.sign_in_time (nullable)
    SignOutTime    *time.Time `json:"sign_out_time"`    // attendance_records.sign_out_time (nullable)
    WorkingHours   float64    `json:"working_hours"`    // attendance_records.working_hours
    BreakMinutes   int        `json:"break_minutes"`    // attendance_records.break_minutes
    BreakStartTime *time.Time `json:"break_start_time"` // attendance_records.break_start_time (nullable)
    WorkFromHome   bool       `json:"work_from_home"`   // attendance_records.work_from_home
    Breaks         []Break    `json:"breaks"`           // attendance_breaks rows for this record
    CreatedAt      time.Time  `json:"created_at"`       // attendance_records.created_at
    UpdatedAt      time.Time  `json:"updated_at"`       // attendance_records.updated_at
}

// Break is an immutable start/end/duration triple appended to a
// record's break list when a break ends.  Duration is the floor of the
// elapsed whole minutes.
//
// Fields:
//  ID          – primary key identifier.
//  RecordID    – attendance record this break belongs to.
//  Start       – break start timestamp.
//  End         – break end timestamp (always after Start).
//  DurationMin – floor((End-Start)/60s) in minutes.
type Break struct {
    ID          uint64    `json:"id"`           // attendance_breaks.id
    RecordID    uint64    `json:"record_id"`    // attendance_breaks.record_id
    Start       time.Time `json:"start"`        // attendance_breaks.start_time
    End         time.Time `json:"end"`          // attendance_breaks.end_time
    DurationMin int       `json:"duration_min"` // attendance_breaks.duration_min
}
