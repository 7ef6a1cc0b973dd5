package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

func subjectRequest() models.SubjectRequest {
	return models.SubjectRequest{
		SemesterID: worldSemester,
		Code:       " CHM120 ",
		Name:       "Chemistry",
		WeeklySlots: []models.WeeklySlot{
			{DayOfWeek: "tuesday", StartTime: "08:30", DurationHours: 1},
		},
	}
}

func TestSubjectServiceCreateDefaultsGoal(t *testing.T) {
	world := newTestWorld()
	svc := NewSubjectService(world.subjects, world.semesters, world.cache, nil, nil)

	subject, err := svc.Create(context.Background(), worldUser, subjectRequest())
	require.NoError(t, err)
	assert.Equal(t, "CHM120", subject.Code)
	assert.Equal(t, models.DefaultAttendanceGoal, subject.AttendanceGoal)
	assert.Equal(t, "Tuesday", subject.WeeklySlots[0].DayOfWeek)
	assert.Contains(t, world.cacheRepo.deleted, "schedule:sem-1:*")

	subjects, err := svc.List(context.Background(), worldUser, worldSemester)
	require.NoError(t, err)
	assert.Len(t, subjects, 3)
}

func TestSubjectServiceValidation(t *testing.T) {
	world := newTestWorld()
	svc := NewSubjectService(world.subjects, world.semesters, world.cache, nil, nil)
	ctx := context.Background()

	cases := map[string]func(*models.SubjectRequest){
		"no slots":       func(r *models.SubjectRequest) { r.WeeklySlots = nil },
		"bad weekday":    func(r *models.SubjectRequest) { r.WeeklySlots[0].DayOfWeek = "Funday" },
		"bad clock":      func(r *models.SubjectRequest) { r.WeeklySlots[0].StartTime = "8:30" },
		"zero duration":  func(r *models.SubjectRequest) { r.WeeklySlots[0].DurationHours = 0 },
		"goal too large": func(r *models.SubjectRequest) { goal := 101; r.AttendanceGoal = &goal },
		"missing code":   func(r *models.SubjectRequest) { r.Code = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := subjectRequest()
			mutate(&req)
			_, err := svc.Create(ctx, worldUser, req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestSubjectServiceArchivedSemesterRejectsWrites(t *testing.T) {
	world := newTestWorld()
	world.semesters.items[worldSemester].IsArchived = true
	svc := NewSubjectService(world.subjects, world.semesters, world.cache, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, worldUser, subjectRequest())
	assert.ErrorIs(t, err, appErrors.ErrArchived)

	err = svc.Delete(ctx, worldUser, "alg")
	assert.ErrorIs(t, err, appErrors.ErrArchived)
	_, ok := world.subjects.items["alg"]
	assert.True(t, ok)
}

func TestSubjectServiceUpdateAndDelete(t *testing.T) {
	world := newTestWorld()
	svc := NewSubjectService(world.subjects, world.semesters, world.cache, nil, nil)
	ctx := context.Background()

	goal := 90
	req := subjectRequest()
	req.Code = "ALG101"
	req.Name = "Linear Algebra"
	req.AttendanceGoal = &goal
	updated, err := svc.Update(ctx, worldUser, "alg", req)
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", updated.Name)
	assert.Equal(t, 90, updated.AttendanceGoal)

	req.SemesterID = "other"
	_, err = svc.Update(ctx, worldUser, "alg", req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, "intruder", "alg"), appErrors.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, worldUser, "alg"))
	assert.ErrorIs(t, svc.Delete(ctx, worldUser, "alg"), appErrors.ErrNotFound)
}

func TestSubjectServiceValidationReportsJSONFieldNames(t *testing.T) {
	world := newTestWorld()
	svc := NewSubjectService(world.subjects, world.semesters, world.cache, nil, nil)

	req := subjectRequest()
	req.Code = ""
	_, err := svc.Create(context.Background(), worldUser, req)

	appErr := appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Details, appErrors.FieldError{Field: "code", Rule: "required", Message: "code is a required field"})

	req = subjectRequest()
	req.WeeklySlots[0].DayOfWeek = "Funday"
	_, err = svc.Create(context.Background(), worldUser, req)
	appErr = appErrors.FromError(err)
	require.NotNil(t, appErr)
	assert.Contains(t, appErr.Details, appErrors.FieldError{
		Field:   "weekly_slots[0].day_of_week",
		Rule:    "weekday",
		Message: "day_of_week must be a weekday name such as Monday",
	})
}
