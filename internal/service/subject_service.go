package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

type subjectRepository interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

// SubjectService handles subject CRUD within a user's semesters.
type SubjectService struct {
	repo      subjectRepository
	semesters semesterReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, semesters semesterReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, semesters: semesters, cache: cache, validator: validate, logger: logger}
}

// List returns the subjects of a semester ordered by code.
func (s *SubjectService) List(ctx context.Context, userID, semesterID string) ([]models.Subject, error) {
	if _, err := ownedSemester(ctx, s.semesters, userID, semesterID); err != nil {
		return nil, err
	}
	subjects, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Create adds a subject to an unarchived semester.
func (s *SubjectService) Create(ctx context.Context, userID string, req models.SubjectRequest) (*models.Subject, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	semester, err := ownedSemester(ctx, s.semesters, userID, req.SemesterID)
	if err != nil {
		return nil, err
	}
	if err := writable(semester); err != nil {
		return nil, err
	}

	subject := &models.Subject{SemesterID: semester.ID}
	applySubjectRequest(subject, req)
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Internal(err, "failed to create subject")
	}
	s.cache.InvalidateSemester(ctx, userID, semester.ID)
	return subject, nil
}

// Update replaces a subject's fields. Moving a subject between semesters is not supported.
func (s *SubjectService) Update(ctx context.Context, userID, id string, req models.SubjectRequest) (*models.Subject, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	subject, semester, err := ownedSubject(ctx, s.repo, s.semesters, userID, id)
	if err != nil {
		return nil, err
	}
	if req.SemesterID != subject.SemesterID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject cannot move between semesters")
	}
	if err := writable(semester); err != nil {
		return nil, err
	}

	applySubjectRequest(subject, req)
	if err := s.repo.Update(ctx, subject); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Internal(err, "failed to update subject")
	}
	s.cache.InvalidateSemester(ctx, userID, semester.ID)
	return subject, nil
}

// Delete removes a subject; its records, tests and assignments go with it.
func (s *SubjectService) Delete(ctx context.Context, userID, id string) error {
	subject, semester, err := ownedSubject(ctx, s.repo, s.semesters, userID, id)
	if err != nil {
		return err
	}
	if err := writable(semester); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, subject.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Internal(err, "failed to delete subject")
	}
	s.cache.InvalidateSemester(ctx, userID, semester.ID)
	applog.For(ctx, s.logger).Info("subject deleted", zap.String("subject_id", subject.ID), zap.String("user_id", userID))
	return nil
}

func (s *SubjectService) validate(req models.SubjectRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid subject payload")
	}
	return nil
}

func applySubjectRequest(subject *models.Subject, req models.SubjectRequest) {
	subject.Code = strings.TrimSpace(req.Code)
	subject.Name = strings.TrimSpace(req.Name)
	subject.ProfessorName = trimmedOrNil(req.ProfessorName)
	subject.AttendanceGoal = models.DefaultAttendanceGoal
	if req.AttendanceGoal != nil {
		subject.AttendanceGoal = *req.AttendanceGoal
	}
	slots := make(models.WeeklySlots, 0, len(req.WeeklySlots))
	for _, slot := range req.WeeklySlots {
		slot.DayOfWeek = normaliseWeekday(slot.DayOfWeek)
		slots = append(slots, slot)
	}
	subject.WeeklySlots = slots
}

// normaliseWeekday stores weekday names capitalised (Monday, Tuesday, ...).
func normaliseWeekday(raw string) string {
	day, err := attendance.ParseWeekday(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return day.String()
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
