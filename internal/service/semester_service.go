package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/attendance"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

type semesterRepository interface {
	FindActive(ctx context.Context, userID string) (*models.Semester, error)
	ListArchived(ctx context.Context, userID string) ([]models.Semester, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	CreateActive(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Archive(ctx context.Context, id string) error
}

type snapshotProvider interface {
	Snapshot(ctx context.Context, semester models.Semester) (*SemesterSnapshot, bool, error)
}

// SemesterService manages the semester lifecycle: one active semester per user, the rest archived.
type SemesterService struct {
	repo        semesterRepository
	snapshots   snapshotProvider
	tests       testLister
	assignments assignmentLister
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewSemesterService constructs the semester service.
func NewSemesterService(repo semesterRepository, snapshots snapshotProvider, tests testLister, assignments assignmentLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{
		repo:        repo,
		snapshots:   snapshots,
		tests:       tests,
		assignments: assignments,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Upsert creates a new active semester, archiving the previous one, or updates the semester named by req.ID.
func (s *SemesterService) Upsert(ctx context.Context, userID string, req models.UpsertSemesterRequest) (*models.Semester, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Validation(err, "invalid semester payload")
	}
	start, err := models.ParseDate(req.StartDate)
	if err != nil {
		return nil, false, appErrors.Validation(err, "invalid start_date")
	}
	end, err := models.ParseDate(req.EndDate)
	if err != nil {
		return nil, false, appErrors.Validation(err, "invalid end_date")
	}
	if end.Before(start) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}

	if req.ID != nil && *req.ID != "" {
		semester, err := ownedSemester(ctx, s.repo, userID, *req.ID)
		if err != nil {
			return nil, false, err
		}
		if err := writable(semester); err != nil {
			return nil, false, err
		}
		semester.Name = strings.TrimSpace(req.Name)
		semester.Year = strings.TrimSpace(req.Year)
		semester.StartDate = start
		semester.EndDate = end
		if err := s.repo.Update(ctx, semester); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, false, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
			}
			return nil, false, appErrors.Internal(err, "failed to update semester")
		}
		s.cache.InvalidateSemester(ctx, userID, semester.ID)
		return semester, false, nil
	}

	semester := &models.Semester{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Year:      strings.TrimSpace(req.Year),
		StartDate: start,
		EndDate:   end,
	}
	if err := s.repo.CreateActive(ctx, semester); err != nil {
		return nil, false, appErrors.Internal(err, "failed to create semester")
	}
	s.cache.InvalidateDashboards(ctx, userID)
	applog.For(ctx, s.logger).Info("semester created", zap.String("semester_id", semester.ID), zap.String("user_id", userID))
	return semester, true, nil
}

// Active returns the user's unarchived semester.
func (s *SemesterService) Active(ctx context.Context, userID string) (*models.Semester, error) {
	semester, err := s.repo.FindActive(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active semester")
		}
		return nil, appErrors.Internal(err, "failed to load active semester")
	}
	return semester, nil
}

// Archived lists the user's archived semesters, newest first.
func (s *SemesterService) Archived(ctx context.Context, userID string) ([]models.Semester, error) {
	semesters, err := s.repo.ListArchived(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list archived semesters")
	}
	if semesters == nil {
		semesters = []models.Semester{}
	}
	return semesters, nil
}

// Get returns one semester owned by the user.
func (s *SemesterService) Get(ctx context.Context, userID, id string) (*models.Semester, error) {
	return ownedSemester(ctx, s.repo, userID, id)
}

// Archive makes the semester read-only. Archiving twice is a no-op.
func (s *SemesterService) Archive(ctx context.Context, userID, id string) (*models.Semester, error) {
	semester, err := ownedSemester(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}
	if semester.IsArchived {
		return semester, nil
	}
	if err := s.repo.Archive(ctx, semester.ID); err != nil {
		return nil, appErrors.Internal(err, "failed to archive semester")
	}
	semester.IsArchived = true
	semester.UpdatedAt = s.now().UTC()
	s.cache.InvalidateSemester(ctx, userID, semester.ID)
	applog.For(ctx, s.logger).Info("semester archived", zap.String("semester_id", semester.ID), zap.String("user_id", userID))
	return semester, nil
}

// Overview is the read-only summary of a semester: per-subject stats, overall totals and coursework.
func (s *SemesterService) Overview(ctx context.Context, userID, id string) (*models.SemesterOverview, error) {
	semester, err := ownedSemester(ctx, s.repo, userID, id)
	if err != nil {
		return nil, err
	}
	snapshot, _, err := s.snapshots.Snapshot(ctx, *semester)
	if err != nil {
		return nil, err
	}
	tests, err := s.tests.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tests")
	}
	assignments, err := s.assignments.ListBySemester(ctx, semester.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load assignments")
	}

	asOf := today(s.now)
	return &models.SemesterOverview{
		Semester:    *semester,
		Subjects:    subjectStats(snapshot, asOf),
		Summary:     attendance.Aggregate(snapshot.Occurrences, asOf),
		Tests:       nonNilTests(tests),
		Assignments: nonNilAssignments(assignments),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func nonNilTests(tests []models.Test) []models.Test {
	if tests == nil {
		return []models.Test{}
	}
	return tests
}

func nonNilAssignments(assignments []models.Assignment) []models.Assignment {
	if assignments == nil {
		return []models.Assignment{}
	}
	return assignments
}
