package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/staff-attendance/internal/model"
)

// AttendanceRepo provides persistence for per-day attendance records
// and their break lists. One record exists per (user, date); the
// unique key on those columns is what makes a racing double sign-in
// collapse into ErrConflict instead of a duplicate row. All timestamps
// are stored in UTC.
type AttendanceRepo struct{ DB *sql.DB }

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{DB: db} }

const recordColumns = "id, user_id, record_date, sign_in_time, sign_out_time, " +
	"working_hours, break_minutes, break_start_time, work_from_home, created_at, updated_at"

// GetByDate returns the record for one user and day, with its breaks
// loaded, or nil when no record exists yet.
func (r *AttendanceRepo) GetByDate(ctx context.Context, userID uint64, date string) (*model.AttendanceRecord, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance_records WHERE user_id=? AND record_date=? LIMIT 1",
		userID, date)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadBreaks(ctx, []*model.AttendanceRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// Create inserts the record made by the first sign-in of a day and
// populates its generated ID. A duplicate (user, date) pair returns
// ErrConflict.
func (r *AttendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO attendance_records (user_id, record_date, sign_in_time, sign_out_time, working_hours, break_minutes, break_start_time, work_from_home) VALUES (?,?,?,?,?,?,?,?)",
		rec.UserID, rec.Date, rec.SignInTime, rec.SignOutTime,
		rec.WorkingHours, rec.BreakMinutes, rec.BreakStartTime, rec.WorkFromHome)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// Update persists the mutable transition fields of an existing record.
func (r *AttendanceRepo) Update(ctx context.Context, rec *model.AttendanceRecord) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE attendance_records SET sign_in_time=?, sign_out_time=?, working_hours=?, break_minutes=?, break_start_time=?, work_from_home=? WHERE id=?",
		rec.SignInTime, rec.SignOutTime, rec.WorkingHours,
		rec.BreakMinutes, rec.BreakStartTime, rec.WorkFromHome, rec.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, scanErr := r.GetByID(ctx, rec.ID); scanErr == ErrNotFound {
			return ErrNotFound
		}
	}
	return nil
}

// GetByID fetches a single record without its breaks.
func (r *AttendanceRepo) GetByID(ctx context.Context, id uint64) (*model.AttendanceRecord, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM attendance_records WHERE id=? LIMIT 1", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

// CompleteBreak persists a closed break together with the record it
// mutated in one transaction. The pairing matters: if the break row
// landed but the record update failed, break_start_time would still be
// set and a retry would re-derive the on-break state and append the
// same break a second time. Rolling both back keeps a break-end
// all-or-nothing, so a failed write leaves the prior state untouched.
// Break rows are append-only; they are never updated or deleted.
func (r *AttendanceRepo) CompleteBreak(ctx context.Context, rec *model.AttendanceRecord, b *model.Break) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO attendance_breaks (record_id, start_time, end_time, duration_min) VALUES (?,?,?,?)",
		b.RecordID, b.Start, b.End, b.DurationMin)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE attendance_records SET sign_in_time=?, sign_out_time=?, working_hours=?, break_minutes=?, break_start_time=?, work_from_home=? WHERE id=?",
		rec.SignInTime, rec.SignOutTime, rec.WorkingHours,
		rec.BreakMinutes, rec.BreakStartTime, rec.WorkFromHome, rec.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	b.ID = uint64(id)
	return nil
}

// ListRange returns a user's records between two inclusive dates
// (YYYY-MM-DD strings, which order correctly as text), breaks loaded,
// newest day first.
func (r *AttendanceRepo) ListRange(ctx context.Context, userID uint64, from, to string) ([]*model.AttendanceRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM attendance_records WHERE user_id=? AND record_date BETWEEN ? AND ? ORDER BY record_date DESC",
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AttendanceRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadBreaks(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadBreaks attaches break rows to the given records in one query.
func (r *AttendanceRepo) loadBreaks(ctx context.Context, recs []*model.AttendanceRecord) error {
	if len(recs) == 0 {
		return nil
	}
	byID := make(map[uint64]*model.AttendanceRecord, len(recs))
	query := "SELECT id, record_id, start_time, end_time, duration_min FROM attendance_breaks WHERE record_id IN ("
	args := make([]any, 0, len(recs))
	for i, rec := range recs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, rec.ID)
		byID[rec.ID] = rec
	}
	query += ") ORDER BY start_time"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b model.Break
		if err := rows.Scan(&b.ID, &b.RecordID, &b.Start, &b.End, &b.DurationMin); err != nil {
			return err
		}
		if rec, ok := byID[b.RecordID]; ok {
			rec.Breaks = append(rec.Breaks, b)
		}
	}
	return rows.Err()
}

func scanRecord(row rowScanner) (*model.AttendanceRecord, error) {
	var (
		rec     model.AttendanceRecord
		signIn  sql.NullTime
		signOut sql.NullTime
		brk     sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Date, &signIn, &signOut,
		&rec.WorkingHours, &rec.BreakMinutes, &brk, &rec.WorkFromHome,
		&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if signIn.Valid {
		t := signIn.Time
		rec.SignInTime = &t
	}
	if signOut.Valid {
		t := signOut.Time
		rec.SignOutTime = &t
	}
	if brk.Valid {
		t := brk.Time
		rec.BreakStartTime = &t
	}
	return &rec, nil
}
