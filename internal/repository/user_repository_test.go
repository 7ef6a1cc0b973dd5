package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "email", "password_hash", "full_name", "role", "college_name", "department", "phone", "dob", "place", "year_of_study", "avatar_url", "notification_preferences", "last_login", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "user@example.com", "hash", "User", string(models.RoleUser), "IIT", nil, nil, "2001-04-09", nil, "3rd", nil,
			[]byte(`{"tests":{"email":true}}`), now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), " user@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	require.NotNil(t, user.CollegeName)
	assert.Equal(t, "IIT", *user.CollegeName)
	require.NotNil(t, user.DOB)
	assert.Equal(t, "2001-04-09", user.DOB.String())
	assert.True(t, user.NotificationPreferences.Tests.Email)
	assert.False(t, user.NotificationPreferences.Classes.Push)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 LIMIT 1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDefaultsRole(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id, email, password_hash, full_name, role, notification_preferences, created_at, updated_at)")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{Email: "new@example.com", PasswordHash: "hash", FullName: "New"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileMissingUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET full_name = ")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateProfile(context.Background(), &models.User{ID: "ghost", FullName: "Ghost"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateNotificationPreferences(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	prefs := models.NotificationPreferences{Classes: models.ChannelPreferences{Push: true}}
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET notification_preferences = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateNotificationPreferences(context.Background(), "u1", prefs))
	assert.NoError(t, mock.ExpectationsWereMet())
}
