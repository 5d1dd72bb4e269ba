package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/staff-attendance/internal/model"
	"github.com/iliyamo/staff-attendance/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id, full_name, email, password_hash, role, designation, " +
	"work_from_home, status, sign_in_time, sign_out_time, working_hours, " +
	"is_active, created_at, updated_at"

// Create inserts a provisioned account and returns its ID. The email
// is normalized and the password hashed with bcrypt before storage.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (full_name, email, password_hash, role, designation, work_from_home) VALUES (?,?,?,?,?,?)",
		u.FullName, email, hash, u.Role, u.Designation, u.WorkFromHome)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// List returns all users ordered by name, including the live
// attendance mirror columns that the admin roster displays.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY full_name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile changes the admin-editable account fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, role, designation string, workFromHome bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, role=?, designation=?, work_from_home=? WHERE id=?",
		fullName, role, designation, workFromHome, id)
	return err
}

// SetActive flips the account flag. Disabled accounts keep their rows
// but can no longer log in.
func (r *UserRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET is_active=? WHERE id=?", active, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword replaces the stored bcrypt hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an account. Attendance rows and tokens cascade away
// with it via foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// MirrorSignIn writes the profile side of a sign-in: online status and
// the fresh sign-in time. This is the second of the two sequential
// writes a sign-in performs; the attendance record write comes first
// and the pair is deliberately not wrapped in one transaction.
func (r *UserRepo) MirrorSignIn(ctx context.Context, id uint64, t time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=?, sign_in_time=?, sign_out_time=NULL WHERE id=?",
		model.StatusOnline, t, id)
	return err
}

// MirrorSignOut writes the profile side of a sign-out, including the
// working-hours figure shown on the roster.
func (r *UserRepo) MirrorSignOut(ctx context.Context, id uint64, t time.Time, workingHours float64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=?, sign_out_time=?, working_hours=? WHERE id=?",
		model.StatusOffline, t, workingHours, id)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		signIn  sql.NullTime
		signOut sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role,
		&u.Designation, &u.WorkFromHome, &u.Status, &signIn, &signOut,
		&u.WorkingHours, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if signIn.Valid {
		t := signIn.Time
		u.SignInTime = &t
	}
	if signOut.Valid {
		t := signOut.Time
		u.SignOutTime = &t
	}
	return u, nil
}
