// Package queue defines message payloads exchanged over the message broker.
package queue

// AttendanceEvent is published after every successful attendance
// transition (sign-in, sign-out, break start, break end). It carries
// enough information for downstream consumers to log, notify, or feed
// analytics without querying the primary database.
type AttendanceEvent struct {
    UserID           uint64  `json:"user_id"`
    FullName         string  `json:"full_name"`
    Date             string  `json:"date"`
    Transition       string  `json:"transition"` // sign_in | sign_out | break_start | break_end
    State            string  `json:"state"`      // derived state after the transition
    WorkingHours     float64 `json:"working_hours"`
    BreakMinutes     int     `json:"break_minutes"`
    EffectiveMinutes int     `json:"effective_minutes"`
    OccurredAt       string  `json:"occurred_at"`
}
