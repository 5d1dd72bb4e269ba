package model

import "time"

// Role values stored in users.role.  Staff members operate their own
// attendance; admins additionally manage the roster and can read any
// staff member's records.
const (
    RoleStaff = "staff"
    RoleAdmin = "admin"
)

// Status values stored in users.status.  A user is online iff their
// profile carries a sign-in time without a matching sign-out time; the
// status column is a mirror maintained by the attendance transitions.
const (
    StatusOnline  = "online"
    StatusOffline = "offline"
)

// User represents an application user record as stored in the
// `users` table.  Besides the account fields it carries the live
// attendance mirror (status, sign-in/out times, last working hours)
// that the admin roster screen reads without touching the per-day
// attendance records.
//
// Fields:
//  ID           – primary key identifier of the user.
//  FullName     – display name of the staff member.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "staff" or "admin".
//  Designation  – free-form job title.
//  WorkFromHome – whether this member works remotely.
//  Status       – "online" or "offline", mirrored by transitions.
//  SignInTime   – current day's sign-in timestamp (nil when signed out).
//  SignOutTime  – current day's sign-out timestamp (nil while working).
//  WorkingHours – hours computed at the last sign-out, 3 decimals.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64     // users.id
    FullName     string     // users.full_name
    Email        string     // users.email
    PasswordHash string     // users.password_hash
    Role         string     // users.role
    Designation  string     // users.designation
    WorkFromHome bool       // users.work_from_home
    Status       string     // users.status
    SignInTime   *time.Time // users.sign_in_time (nullable)
    SignOutTime  *time.Time // users.sign_out_time (nullable)
    WorkingHours float64    // users.working_hours
    IsActive     bool       // users.is_active
    CreatedAt    time.Time  // users.created_at
    UpdatedAt    time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
