package model

import "time"

// DailyNote is a free-text note keyed by user and date.  Notes are
// stored as documents in MongoDB rather than rows in MySQL because
// they carry no relational structure and no schema beyond these
// fields.  AuthorID differs from UserID when an admin posts a note
// onto a staff member's day.
type DailyNote struct {
    ID        string    `bson:"_id,omitempty" json:"id"`
    UserID    uint64    `bson:"user_id" json:"user_id"`
    AuthorID  uint64    `bson:"author_id" json:"author_id"`
    Date      string    `bson:"date" json:"date"` // YYYY-MM-DD
    Note      string    `bson:"note" json:"note"`
    CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
