package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

func TestTestRepositoryListBySemesterJoinsSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "subject_id", "subject_code", "subject_name", "name", "test_datetime", "status", "created_at", "updated_at"}).
		AddRow("t1", "sub-1", "CS101", "Algorithms", "Midterm", now.Add(48*time.Hour), "Pending", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tests t JOIN subjects s ON s.id = t.subject_id WHERE s.semester_id = $1 ORDER BY t.test_datetime ASC")).
		WithArgs("sem-1").
		WillReturnRows(rows)

	tests, err := repo.ListBySemester(context.Background(), "sem-1")
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "CS101", tests[0].SubjectCode)
	assert.Equal(t, models.TestPending, tests[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTestRepositoryCreateDefaultsPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTestRepository(db)

	when := time.Date(2024, 9, 10, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tests (id, subject_id, name, test_datetime, status, created_at, updated_at)")).
		WithArgs(sqlmock.AnyArg(), "sub-1", "Quiz 1", when, "Pending", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	test := &models.Test{SubjectID: "sub-1", Name: "Quiz 1", TestDatetime: when}
	require.NoError(t, repo.Create(context.Background(), test))
	assert.Equal(t, models.TestPending, test.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryReminderCandidates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	from := time.Date(2024, 9, 10, 9, 0, 0, 0, time.UTC)
	to := from.Add(25 * time.Hour)
	rows := sqlmock.NewRows([]string{"item_id", "name", "due_at", "subject_code", "subject_name", "user_id", "email", "full_name", "notification_preferences"}).
		AddRow("a1", "Lab report", from.Add(3*time.Hour), "CS101", "Algorithms", "u1", "a@example.com", "A", []byte(`{"assignments":{"email":true,"push":true}}`))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.status = 'Pending' AND sem.is_archived = FALSE AND a.deadline BETWEEN $1 AND $2")).
		WithArgs(from, to).
		WillReturnRows(rows)

	candidates, err := repo.ListReminderCandidates(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "a1", candidates[0].ItemID)
	assert.True(t, candidates[0].Preferences.Assignments.Push)
	assert.False(t, candidates[0].Preferences.Tests.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}
