package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type testRepository interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Test, error)
	FindByID(ctx context.Context, id string) (*models.Test, error)
	Create(ctx context.Context, test *models.Test) error
	Update(ctx context.Context, test *models.Test) error
	Delete(ctx context.Context, id string) error
}

type assignmentRepository interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// CourseworkService manages tests and assignments attached to subjects.
type CourseworkService struct {
	tests       testRepository
	assignments assignmentRepository
	subjects    subjectReader
	semesters   semesterReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseworkService constructs the coursework service.
func NewCourseworkService(tests testRepository, assignments assignmentRepository, subjects subjectReader, semesters semesterReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseworkService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseworkService{
		tests:       tests,
		assignments: assignments,
		subjects:    subjects,
		semesters:   semesters,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// ListTests returns the tests of a semester ordered by date.
func (s *CourseworkService) ListTests(ctx context.Context, userID, semesterID string) ([]models.Test, error) {
	if _, err := ownedSemester(ctx, s.semesters, userID, semesterID); err != nil {
		return nil, err
	}
	tests, err := s.tests.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list tests")
	}
	return nonNilTests(tests), nil
}

// CreateTest schedules a test for a subject in a writable semester.
func (s *CourseworkService) CreateTest(ctx context.Context, userID string, req models.TestRequest) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid test payload")
	}
	subject, err := s.writableSubject(ctx, userID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	test := &models.Test{
		SubjectID:    subject.ID,
		SubjectCode:  subject.Code,
		SubjectName:  subject.Name,
		Name:         strings.TrimSpace(req.Name),
		TestDatetime: req.TestDatetime.UTC(),
		Status:       models.TestStatus(req.Status),
	}
	if err := s.tests.Create(ctx, test); err != nil {
		return nil, appErrors.Internal(err, "failed to create test")
	}
	s.touch(ctx, userID)
	return test, nil
}

// UpdateTest applies the provided fields to a test. A payload holding only
// a status is a status change.
func (s *CourseworkService) UpdateTest(ctx context.Context, userID, id string, req models.UpdateTestRequest) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid test payload")
	}
	name, err := updatedName(req.Name, "test")
	if err != nil {
		return nil, err
	}
	test, err := s.tests.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	subject, err := s.writableSubject(ctx, userID, test.SubjectID)
	if err != nil {
		return nil, err
	}
	if req.SubjectID != nil && *req.SubjectID != test.SubjectID {
		if subject, err = s.writableSubject(ctx, userID, *req.SubjectID); err != nil {
			return nil, err
		}
	}

	test.SubjectID = subject.ID
	test.SubjectCode = subject.Code
	test.SubjectName = subject.Name
	if name != "" {
		test.Name = name
	}
	if req.TestDatetime != nil {
		test.TestDatetime = req.TestDatetime.UTC()
	}
	if req.Status != "" {
		test.Status = models.TestStatus(req.Status)
	}
	if err := s.tests.Update(ctx, test); err != nil {
		return nil, notFoundOr(err, "test not found", "failed to update test")
	}
	s.touch(ctx, userID)
	return test, nil
}

// DeleteTest removes a test.
func (s *CourseworkService) DeleteTest(ctx context.Context, userID, id string) error {
	test, err := s.tests.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "test not found", "failed to load test")
	}
	if _, err := s.writableSubject(ctx, userID, test.SubjectID); err != nil {
		return err
	}
	if err := s.tests.Delete(ctx, id); err != nil {
		return notFoundOr(err, "test not found", "failed to delete test")
	}
	s.touch(ctx, userID)
	return nil
}

// ListAssignments returns the assignments of a semester ordered by deadline.
func (s *CourseworkService) ListAssignments(ctx context.Context, userID, semesterID string) ([]models.Assignment, error) {
	if _, err := ownedSemester(ctx, s.semesters, userID, semesterID); err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assignments")
	}
	return nonNilAssignments(assignments), nil
}

// CreateAssignment adds an assignment for a subject in a writable semester.
func (s *CourseworkService) CreateAssignment(ctx context.Context, userID string, req models.AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}
	subject, err := s.writableSubject(ctx, userID, req.SubjectID)
	if err != nil {
		return nil, err
	}
	assignment := &models.Assignment{
		SubjectID:   subject.ID,
		SubjectCode: subject.Code,
		SubjectName: subject.Name,
		Name:        strings.TrimSpace(req.Name),
		Deadline:    req.Deadline.UTC(),
		Status:      models.AssignmentStatus(req.Status),
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assignment")
	}
	s.touch(ctx, userID)
	return assignment, nil
}

// UpdateAssignment applies the provided fields to an assignment.
func (s *CourseworkService) UpdateAssignment(ctx context.Context, userID, id string, req models.UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid assignment payload")
	}
	name, err := updatedName(req.Name, "assignment")
	if err != nil {
		return nil, err
	}
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "assignment not found", "failed to load assignment")
	}
	subject, err := s.writableSubject(ctx, userID, assignment.SubjectID)
	if err != nil {
		return nil, err
	}
	if req.SubjectID != nil && *req.SubjectID != assignment.SubjectID {
		if subject, err = s.writableSubject(ctx, userID, *req.SubjectID); err != nil {
			return nil, err
		}
	}

	assignment.SubjectID = subject.ID
	assignment.SubjectCode = subject.Code
	assignment.SubjectName = subject.Name
	if name != "" {
		assignment.Name = name
	}
	if req.Deadline != nil {
		assignment.Deadline = req.Deadline.UTC()
	}
	if req.Status != "" {
		assignment.Status = models.AssignmentStatus(req.Status)
	}
	if err := s.assignments.Update(ctx, assignment); err != nil {
		return nil, notFoundOr(err, "assignment not found", "failed to update assignment")
	}
	s.touch(ctx, userID)
	return assignment, nil
}

// DeleteAssignment removes an assignment.
func (s *CourseworkService) DeleteAssignment(ctx context.Context, userID, id string) error {
	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "assignment not found", "failed to load assignment")
	}
	if _, err := s.writableSubject(ctx, userID, assignment.SubjectID); err != nil {
		return err
	}
	if err := s.assignments.Delete(ctx, id); err != nil {
		return notFoundOr(err, "assignment not found", "failed to delete assignment")
	}
	s.touch(ctx, userID)
	return nil
}

// updatedName trims a provided name. A name sent as blank is rejected.
func updatedName(name *string, kind string) (string, error) {
	if name == nil {
		return "", nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, kind+" name cannot be blank")
	}
	return trimmed, nil
}

func (s *CourseworkService) writableSubject(ctx context.Context, userID, subjectID string) (*models.Subject, error) {
	subject, semester, err := ownedSubject(ctx, s.subjects, s.semesters, userID, subjectID)
	if err != nil {
		return nil, err
	}
	if err := writable(semester); err != nil {
		return nil, err
	}
	return subject, nil
}

// touch drops cached dashboards so upcoming items refresh.
func (s *CourseworkService) touch(ctx context.Context, userID string) {
	s.cache.InvalidateDashboards(ctx, userID)
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}
