package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const testSelect = `SELECT t.id, t.subject_id, s.code AS subject_code, s.name AS subject_name, t.name, t.test_datetime, t.status, t.created_at, t.updated_at
FROM tests t
JOIN subjects s ON s.id = t.subject_id`

// TestRepository persists scheduled tests.
type TestRepository struct {
	db *sqlx.DB
}

// NewTestRepository constructs the repository.
func NewTestRepository(db *sqlx.DB) *TestRepository {
	return &TestRepository{db: db}
}

// ListBySemester returns the tests of every subject in the semester, soonest first.
func (r *TestRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Test, error) {
	query := testSelect + ` WHERE s.semester_id = $1 ORDER BY t.test_datetime ASC`
	var tests []models.Test
	if err := r.db.SelectContext(ctx, &tests, query, semesterID); err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	return tests, nil
}

// FindByID loads a test with its subject code and name.
func (r *TestRepository) FindByID(ctx context.Context, id string) (*models.Test, error) {
	query := testSelect + ` WHERE t.id = $1`
	var test models.Test
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find test: %w", err)
	}
	return &test, nil
}

// Create inserts a test.
func (r *TestRepository) Create(ctx context.Context, test *models.Test) error {
	if test.ID == "" {
		test.ID = uuid.NewString()
	}
	if test.Status == "" {
		test.Status = models.TestPending
	}
	now := time.Now().UTC()
	test.CreatedAt = now
	test.UpdatedAt = now
	const query = `INSERT INTO tests (id, subject_id, name, test_datetime, status, created_at, updated_at)
VALUES (:id, :subject_id, :name, :test_datetime, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, test); err != nil {
		return fmt.Errorf("create test: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a test.
func (r *TestRepository) Update(ctx context.Context, test *models.Test) error {
	test.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tests SET subject_id = :subject_id, name = :name, test_datetime = :test_datetime, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, test)
	if err != nil {
		return fmt.Errorf("update test: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a test.
func (r *TestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	return expectAffected(res)
}

// ListReminderCandidates returns pending tests of active semesters due in [from, to], joined with their owners.
func (r *TestRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	const query = `SELECT t.id AS item_id, t.name, t.test_datetime AS due_at, s.code AS subject_code, s.name AS subject_name,
u.id AS user_id, u.email, u.full_name, u.notification_preferences
FROM tests t
JOIN subjects s ON s.id = t.subject_id
JOIN semesters sem ON sem.id = s.semester_id
JOIN users u ON u.id = sem.user_id
WHERE t.status = 'Pending' AND sem.is_archived = FALSE AND t.test_datetime BETWEEN $1 AND $2
ORDER BY t.test_datetime ASC`
	var candidates []models.ReminderCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, from, to); err != nil {
		return nil, fmt.Errorf("list test reminder candidates: %w", err)
	}
	return candidates, nil
}
