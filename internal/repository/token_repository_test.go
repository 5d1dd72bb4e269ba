package repository

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTokenMock(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return NewTokenRepo(db), mock
}

func TestValidateRefreshAcceptsLiveToken(t *testing.T) {
    repo, mock := newTokenMock(t)

    rows := sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
        AddRow(7, time.Now().UTC().Add(time.Hour), nil)
    mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1")).
        WithArgs("abc123").
        WillReturnRows(rows)

    userID, err := repo.ValidateRefresh(context.Background(), "abc123")
    require.NoError(t, err)
    assert.Equal(t, uint64(7), userID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefreshRejectsRevokedToken(t *testing.T) {
    repo, mock := newTokenMock(t)

    rows := sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
        AddRow(7, time.Now().UTC().Add(time.Hour), time.Now().UTC())
    mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?")).
        WithArgs("abc123").
        WillReturnRows(rows)

    _, err := repo.ValidateRefresh(context.Background(), "abc123")
    assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestValidateRefreshRejectsExpiredToken(t *testing.T) {
    repo, mock := newTokenMock(t)

    rows := sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
        AddRow(7, time.Now().UTC().Add(-time.Minute), nil)
    mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?")).
        WithArgs("abc123").
        WillReturnRows(rows)

    _, err := repo.ValidateRefresh(context.Background(), "abc123")
    assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestConsumePasswordResetBurnsTokenInOneTransaction(t *testing.T) {
    repo, mock := newTokenMock(t)

    mock.ExpectBegin()
    rows := sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}).
        AddRow(7, time.Now().UTC().Add(time.Hour), nil)
    mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, used_at FROM password_resets WHERE token_hash=? LIMIT 1 FOR UPDATE")).
        WithArgs("resethash").
        WillReturnRows(rows)
    mock.ExpectExec(regexp.QuoteMeta("UPDATE password_resets SET used_at=NOW() WHERE token_hash=?")).
        WithArgs("resethash").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    userID, err := repo.ConsumePasswordReset(context.Background(), "resethash")
    require.NoError(t, err)
    assert.Equal(t, uint64(7), userID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumePasswordResetRejectsUsedToken(t *testing.T) {
    repo, mock := newTokenMock(t)

    mock.ExpectBegin()
    rows := sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}).
        AddRow(7, time.Now().UTC().Add(time.Hour), time.Now().UTC())
    mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, expires_at, used_at FROM password_resets WHERE token_hash=?")).
        WithArgs("resethash").
        WillReturnRows(rows)
    mock.ExpectRollback()

    _, err := repo.ConsumePasswordReset(context.Background(), "resethash")
    assert.ErrorIs(t, err, sql.ErrNoRows)
    assert.NoError(t, mock.ExpectationsWereMet())
}
