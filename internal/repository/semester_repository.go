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

const semesterColumns = `id, user_id, name, year, start_date, end_date, is_archived, created_at, updated_at`

// SemesterRepository persists semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// FindActive returns the user's single unarchived semester.
func (r *SemesterRepository) FindActive(ctx context.Context, userID string) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE user_id = $1 AND is_archived = FALSE ORDER BY created_at DESC LIMIT 1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active semester: %w", err)
	}
	return &semester, nil
}

// ListArchived returns the user's archived semesters, newest first.
func (r *SemesterRepository) ListArchived(ctx context.Context, userID string) ([]models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE user_id = $1 AND is_archived = TRUE ORDER BY start_date DESC`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, userID); err != nil {
		return nil, fmt.Errorf("list archived semesters: %w", err)
	}
	return semesters, nil
}

// FindByID loads a semester by id.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := `SELECT ` + semesterColumns + ` FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester: %w", err)
	}
	return &semester, nil
}

// CreateActive archives the user's current active semester and inserts the new one in a single transaction.
func (r *SemesterRepository) CreateActive(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	semester.CreatedAt = now
	semester.UpdatedAt = now
	semester.IsArchived = false

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create semester tx: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const archiveQuery = `UPDATE semesters SET is_archived = TRUE, updated_at = $2 WHERE user_id = $1 AND is_archived = FALSE`
	if _, err := tx.ExecContext(ctx, archiveQuery, semester.UserID, now); err != nil {
		return fmt.Errorf("archive previous semester: %w", err)
	}

	const insertQuery = `INSERT INTO semesters (id, user_id, name, year, start_date, end_date, is_archived, created_at, updated_at)
VALUES (:id, :user_id, :name, :year, :start_date, :end_date, :is_archived, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, semester); err != nil {
		return fmt.Errorf("insert semester: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create semester tx: %w", err)
	}
	commit = true
	return nil
}

// Update changes the editable fields of a semester owned by semester.UserID.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semesters SET name = :name, year = :year, start_date = :start_date, end_date = :end_date, updated_at = :updated_at
WHERE id = :id AND user_id = :user_id`
	res, err := r.db.NamedExecContext(ctx, query, semester)
	if err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return expectAffected(res)
}

// Archive marks the semester read-only.
func (r *SemesterRepository) Archive(ctx context.Context, id string) error {
	const query = `UPDATE semesters SET is_archived = TRUE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("archive semester: %w", err)
	}
	return expectAffected(res)
}

// ListActiveWithClassReminders returns active semesters whose owners enabled any class reminder channel.
func (r *SemesterRepository) ListActiveWithClassReminders(ctx context.Context) ([]models.SemesterOwner, error) {
	const query = `SELECT s.id, s.user_id, s.name, s.year, s.start_date, s.end_date, s.is_archived, s.created_at, s.updated_at,
u.email, u.full_name, u.notification_preferences
FROM semesters s
JOIN users u ON u.id = s.user_id
WHERE s.is_archived = FALSE
AND (COALESCE((u.notification_preferences->'classes'->>'email')::boolean, FALSE)
  OR COALESCE((u.notification_preferences->'classes'->>'push')::boolean, FALSE))`
	var owners []models.SemesterOwner
	if err := r.db.SelectContext(ctx, &owners, query); err != nil {
		return nil, fmt.Errorf("list semesters with class reminders: %w", err)
	}
	return owners, nil
}
