package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const attendanceRecordColumns = `id, subject_id, date, duration_hours, official_status, personal_status, reason, created_at, updated_at`

const upsertAttendanceRecordQuery = `INSERT INTO attendance_records (id, subject_id, date, duration_hours, official_status, personal_status, reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT ON CONSTRAINT attendance_records_subject_date_key
DO UPDATE SET duration_hours = EXCLUDED.duration_hours, official_status = EXCLUDED.official_status,
personal_status = EXCLUDED.personal_status, reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at
RETURNING ` + attendanceRecordColumns

// AttendanceRecordRepository persists official and personal marks per (subject, date).
type AttendanceRecordRepository struct {
	db *sqlx.DB
}

// NewAttendanceRecordRepository constructs the repository.
func NewAttendanceRecordRepository(db *sqlx.DB) *AttendanceRecordRepository {
	return &AttendanceRecordRepository{db: db}
}

// ListBySemester returns every record for the semester's subjects.
func (r *AttendanceRecordRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT ar.id, ar.subject_id, ar.date, ar.duration_hours, ar.official_status, ar.personal_status, ar.reason, ar.created_at, ar.updated_at
FROM attendance_records ar
JOIN subjects s ON s.id = ar.subject_id
WHERE s.semester_id = $1
ORDER BY ar.date ASC, ar.subject_id ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, semesterID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return records, nil
}

// ListBySubject returns the records of one subject ordered by date.
func (r *AttendanceRecordRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceRecordColumns + ` FROM attendance_records WHERE subject_id = $1 ORDER BY date ASC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, subjectID); err != nil {
		return nil, fmt.Errorf("list subject attendance records: %w", err)
	}
	return records, nil
}

// Upsert inserts or replaces the record for (subject_id, date) and returns the stored row.
func (r *AttendanceRecordRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	prepareAttendanceRecord(record, time.Now().UTC())
	var stored models.AttendanceRecord
	if err := r.db.GetContext(ctx, &stored, upsertAttendanceRecordQuery, upsertArgs(record)...); err != nil {
		return nil, fmt.Errorf("upsert attendance record: %w", err)
	}
	return &stored, nil
}

// UpsertMany applies all records atomically, used for day-level overrides.
func (r *AttendanceRecordRepository) UpsertMany(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	if len(records) == 0 {
		return []models.AttendanceRecord{}, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk attendance tx: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	stored := make([]models.AttendanceRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		prepareAttendanceRecord(rec, now)
		var row models.AttendanceRecord
		if err := tx.GetContext(ctx, &row, upsertAttendanceRecordQuery, upsertArgs(rec)...); err != nil {
			return nil, fmt.Errorf("bulk upsert attendance record for subject %s: %w", rec.SubjectID, err)
		}
		stored = append(stored, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk attendance tx: %w", err)
	}
	commit = true
	return stored, nil
}

func prepareAttendanceRecord(record *models.AttendanceRecord, now time.Time) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}

func upsertArgs(record *models.AttendanceRecord) []interface{} {
	return []interface{}{
		record.ID, record.SubjectID, record.Date, record.DurationHours, record.OfficialStatus,
		record.PersonalStatus, record.Reason, record.CreatedAt, record.UpdatedAt,
	}
}
