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

const assignmentSelect = `SELECT a.id, a.subject_id, s.code AS subject_code, s.name AS subject_name, a.name, a.deadline, a.status, a.created_at, a.updated_at
FROM assignments a
JOIN subjects s ON s.id = a.subject_id`

// AssignmentRepository persists assignments and their deadlines.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListBySemester returns the assignments of every subject in the semester, soonest first.
func (r *AssignmentRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Assignment, error) {
	query := assignmentSelect + ` WHERE s.semester_id = $1 ORDER BY a.deadline ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, semesterID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// FindByID loads an assignment with its subject code and name.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := assignmentSelect + ` WHERE a.id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &assignment, nil
}

// Create inserts an assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentPending
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, subject_id, name, deadline, status, created_at, updated_at)
VALUES (:id, :subject_id, :name, :deadline, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update replaces the editable fields of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET subject_id = :subject_id, name = :name, deadline = :deadline, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return expectAffected(res)
}

// ListReminderCandidates returns pending assignments of active semesters due in [from, to], joined with their owners.
func (r *AssignmentRepository) ListReminderCandidates(ctx context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	const query = `SELECT a.id AS item_id, a.name, a.deadline AS due_at, s.code AS subject_code, s.name AS subject_name,
u.id AS user_id, u.email, u.full_name, u.notification_preferences
FROM assignments a
JOIN subjects s ON s.id = a.subject_id
JOIN semesters sem ON sem.id = s.semester_id
JOIN users u ON u.id = sem.user_id
WHERE a.status = 'Pending' AND sem.is_archived = FALSE AND a.deadline BETWEEN $1 AND $2
ORDER BY a.deadline ASC`
	var candidates []models.ReminderCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, from, to); err != nil {
		return nil, fmt.Errorf("list assignment reminder candidates: %w", err)
	}
	return candidates, nil
}
