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

const subjectColumns = `id, semester_id, code, name, professor_name, attendance_goal, weekly_slots, created_at, updated_at`

// SubjectRepository persists subjects and their weekly slots.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// ListBySemester returns the subjects of a semester ordered by code.
func (r *SubjectRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE semester_id = $1 ORDER BY code ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, semesterID); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID loads a subject.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject: %w", err)
	}
	return &subject, nil
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	const query = `INSERT INTO subjects (id, semester_id, code, name, professor_name, attendance_goal, weekly_slots, created_at, updated_at)
VALUES (:id, :semester_id, :code, :name, :professor_name, :attendance_goal, :weekly_slots, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, subject); err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

// Update replaces the editable fields of a subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	subject.UpdatedAt = time.Now().UTC()
	const query = `UPDATE subjects SET code = :code, name = :name, professor_name = :professor_name, attendance_goal = :attendance_goal,
weekly_slots = :weekly_slots, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, subject)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a subject. Records, tests and assignments cascade.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM subjects WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return expectAffected(res)
}
