package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridtrain/eval-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "company_id", "name", "email", "password_hash", "role", "active", "last_login", "created_at", "updated_at"}

func TestFindByEmailLowercases(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "c1", "Operator", "user@example.com", "hash", string(models.RoleTrainer), true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "User@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, "c1", user.CompanyIDValue())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Email: "dup@example.com", Role: models.RoleStudent})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersByCompany(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	role := models.RoleStudent
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "c1", "A", "a@example.com", "hash", string(role), true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + userColumns + " FROM users WHERE company_id = $1 AND role = $2 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("c1", role).
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE company_id = $1 AND role = $2")).
		WithArgs("c1", role).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.List(context.Background(), models.UserFilter{CompanyID: "c1", Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserRevokesTokens(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = FALSE")).WithArgs("u1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE refresh_tokens SET revoked = TRUE")).WithArgs("u1", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	token := &models.RefreshToken{UserID: "u1", Token: "token", ExpiresAt: time.Now()}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))
	assert.Equal(t, models.HashRefreshToken("token"), token.TokenHash)
	assert.Len(t, token.TokenHash, 64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRefreshTokenQueriesByDigest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked", "revoked_at", "ip_address", "user_agent"}).
		AddRow("rt1", "u1", models.HashRefreshToken("raw"), time.Now().Add(time.Hour), time.Now(), false, nil, "10.0.0.1", "curl")
	mock.ExpectQuery("SELECT id, user_id, token_hash").WithArgs(models.HashRefreshToken("raw")).WillReturnRows(rows)

	rt, err := repo.FindRefreshToken(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, "rt1", rt.ID)
	assert.Empty(t, rt.Token)
	assert.True(t, rt.Usable(time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.AuditLog{Action: models.AuditActionLogin, Resource: "auth"}
	require.NoError(t, NewAuditRepository(db).Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserOrderFallsBack(t *testing.T) {
	assert.Equal(t, "name ASC", userOrder("name", "asc"))
	assert.Equal(t, "created_at DESC", userOrder("password_hash", "asc; DROP TABLE users"))
	assert.Equal(t, "email DESC", userOrder("email", ""))
}

func TestRevokeUserRefreshTokensSkipsRevoked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $1 AND revoked = FALSE")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
