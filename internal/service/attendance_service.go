package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

type attendanceRecordRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
	UpsertMany(ctx context.Context, records []models.AttendanceRecord) ([]models.AttendanceRecord, error)
}

type attendanceSubjectRepository interface {
	subjectReader
	subjectLister
}

// AttendanceService records official and personal marks for scheduled classes.
type AttendanceService struct {
	records   attendanceRecordRepository
	subjects  attendanceSubjectRepository
	semesters semesterReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(records attendanceRecordRepository, subjects attendanceSubjectRepository, semesters semesterReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		records:   records,
		subjects:  subjects,
		semesters: semesters,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Upsert creates or replaces the record for (subject_id, date).
func (s *AttendanceService) Upsert(ctx context.Context, userID string, req models.UpsertAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid attendance payload")
	}
	day, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid date")
	}
	subject, semester, err := ownedSubject(ctx, s.subjects, s.semesters, userID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	if err := writable(semester); err != nil {
		return nil, err
	}
	if !semester.Contains(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is outside the semester")
	}
	slot, ok := slotOn(*subject, day)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject has no class on "+day.Weekday().String())
	}

	record := &models.AttendanceRecord{
		SubjectID:      subject.ID,
		Date:           day,
		DurationHours:  slot.DurationHours,
		OfficialStatus: models.OfficialStatus(req.OfficialStatus),
	}
	if req.DurationHours != nil {
		record.DurationHours = *req.DurationHours
	}
	if req.PersonalStatus != nil {
		personal := models.PersonalStatus(*req.PersonalStatus)
		record.PersonalStatus = &personal
	}
	if record.OfficialStatus == models.OfficialNoClass {
		record.Reason = trimmedOrNil(req.Reason)
	}

	stored, err := s.records.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to save attendance record")
	}
	s.cache.InvalidateSemester(ctx, userID, semester.ID)
	return stored, nil
}

// BulkNoClass marks every class of the semester on req.Date as not held, atomically.
// Days without classes return an empty list.
func (s *AttendanceService) BulkNoClass(ctx context.Context, userID string, req models.BulkNoClassRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid bulk attendance payload")
	}
	day, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid date")
	}
	semester, err := ownedSemester(ctx, s.semesters, userID, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if err := writable(semester); err != nil {
		return nil, err
	}
	if !semester.Contains(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is outside the semester")
	}

	subjects, err := s.subjects.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load subjects")
	}
	reason := strings.TrimSpace(req.Reason)
	records := make([]models.AttendanceRecord, 0, len(subjects))
	for _, subject := range subjects {
		slot, ok := slotOn(subject, day)
		if !ok {
			continue
		}
		records = append(records, models.AttendanceRecord{
			SubjectID:      subject.ID,
			Date:           day,
			DurationHours:  slot.DurationHours,
			OfficialStatus: models.OfficialNoClass,
			Reason:         &reason,
		})
	}
	if len(records) == 0 {
		return []models.AttendanceRecord{}, nil
	}

	stored, err := s.records.UpsertMany(ctx, records)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to mark day as no class")
	}
	s.cache.InvalidateSemester(ctx, userID, semester.ID)
	applog.For(ctx, s.logger).Info("day marked as no class",
		zap.String("semester_id", semester.ID),
		zap.String("date", day.String()),
		zap.Int("records", len(stored)),
	)
	return stored, nil
}

// slotOn returns the first slot of subject falling on day's weekday.
func slotOn(subject models.Subject, day models.Date) (models.WeeklySlot, bool) {
	for _, slot := range subject.WeeklySlots {
		weekday, err := attendance.ParseWeekday(slot.DayOfWeek)
		if err != nil {
			continue
		}
		if weekday == day.Weekday() {
			return slot, true
		}
	}
	return models.WeeklySlot{}, false
}
