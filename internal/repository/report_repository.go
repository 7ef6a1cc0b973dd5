package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const reportJobColumns = `id, semester_id, format, params, status, progress, result_url, created_by, created_at, finished_at, error_message`

// ReportRepository persists semester export jobs.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a queued export job.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO report_jobs (` + reportJobColumns + `)
VALUES (:id, :semester_id, :format, :params, :status, :progress, :result_url, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// GetByID loads one job. A missing row surfaces as a wrapped sql.ErrNoRows.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, fmt.Errorf("get report job %s: %w", id, err)
	}
	return &job, nil
}

// Update writes the non-nil fields of params.
func (r *ReportRepository) Update(ctx context.Context, id string, params models.UpdateReportJobParams) error {
	type assignment struct {
		column string
		value  interface{}
	}
	var changes []assignment
	if params.Status != nil {
		changes = append(changes, assignment{"status", *params.Status})
	}
	if params.Progress != nil {
		changes = append(changes, assignment{"progress", *params.Progress})
	}
	if params.ResultURL != nil {
		changes = append(changes, assignment{"result_url", *params.ResultURL})
	}
	if params.ErrorMessage != nil {
		changes = append(changes, assignment{"error_message", *params.ErrorMessage})
	}
	if params.FinishedAt != nil {
		changes = append(changes, assignment{"finished_at", *params.FinishedAt})
	}
	if len(changes) == 0 {
		return nil
	}

	set := make([]string, len(changes))
	args := make([]interface{}, 0, len(changes)+1)
	for i, change := range changes {
		set[i] = fmt.Sprintf("%s = $%d", change.column, i+1)
		args = append(args, change.value)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE report_jobs SET %s WHERE id = $%d", strings.Join(set, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report job %s: %w", id, err)
	}
	return nil
}

// RequeueInterrupted moves jobs left in PROCESSING by a stopped worker back to QUEUED.
func (r *ReportRepository) RequeueInterrupted(ctx context.Context) (int64, error) {
	const query = `UPDATE report_jobs SET status = $1, progress = 0 WHERE status = $2`
	res, err := r.db.ExecContext(ctx, query, models.ReportStatusQueued, models.ReportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("requeue interrupted report jobs: %w", err)
	}
	return res.RowsAffected()
}

// ListQueued returns the oldest queued jobs first.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportStatusQueued, limit); err != nil {
		return nil, fmt.Errorf("list queued report jobs: %w", err)
	}
	return jobs, nil
}

// ListFinishedBefore returns finished jobs that still hold a download link and finished before cutoff.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + reportJobColumns + ` FROM report_jobs
WHERE status = $1 AND result_url IS NOT NULL AND finished_at < $2
ORDER BY finished_at ASC LIMIT $3`
	var jobs []models.ReportJob
	if err := r.db.SelectContext(ctx, &jobs, query, models.ReportStatusFinished, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list expired report jobs: %w", err)
	}
	return jobs, nil
}

// ClearResult drops the download link once the file is gone.
func (r *ReportRepository) ClearResult(ctx context.Context, id string) error {
	const query = `UPDATE report_jobs SET result_url = NULL WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("clear report job %s result: %w", id, err)
	}
	return nil
}
