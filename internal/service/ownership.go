package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type semesterReader interface {
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type subjectLister interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Subject, error)
}

type recordLister interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.AttendanceRecord, error)
}

type testLister interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Test, error)
}

type assignmentLister interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.Assignment, error)
}

// ownedSemester loads the semester and hides it unless userID owns it.
func ownedSemester(ctx context.Context, repo semesterReader, userID, semesterID string) (*models.Semester, error) {
	if semesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester_id is required")
	}
	semester, err := repo.FindByID(ctx, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Internal(err, "failed to load semester")
	}
	if semester.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	return semester, nil
}

// ownedSubject loads a subject together with its semester, enforcing ownership.
func ownedSubject(ctx context.Context, subjects subjectReader, semesters semesterReader, userID, subjectID string) (*models.Subject, *models.Semester, error) {
	subject, err := subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, nil, appErrors.Internal(err, "failed to load subject")
	}
	semester, err := ownedSemester(ctx, semesters, userID, subject.SemesterID)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, nil, err
	}
	return subject, semester, nil
}

// writable rejects mutations against archived semesters.
func writable(semester *models.Semester) error {
	if semester.IsArchived {
		return appErrors.Clone(appErrors.ErrArchived, "")
	}
	return nil
}

func today(now func() time.Time) models.Date {
	return models.NewDate(now().UTC())
}
