package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

func newTestAttendanceService(world *testWorld) *AttendanceService {
	return NewAttendanceService(world.records, world.subjects, world.semesters, world.cache, nil, nil)
}

func TestAttendanceServiceUpsertDefaultsDuration(t *testing.T) {
	world := newTestWorld()
	svc := newTestAttendanceService(world)

	record, err := svc.Upsert(context.Background(), worldUser, models.UpsertAttendanceRequest{
		SubjectID:      "alg",
		Date:           "2024-01-03",
		OfficialStatus: "present",
		PersonalStatus: strPtr("present"),
		Reason:         strPtr("ignored"),
	})
	require.NoError(t, err)
	assert.InDelta(t, 1, record.DurationHours, 0.001)
	assert.Equal(t, models.OfficialPresent, record.OfficialStatus)
	require.NotNil(t, record.PersonalStatus)
	assert.Equal(t, models.PersonalPresent, *record.PersonalStatus)
	assert.Nil(t, record.Reason)
	assert.Contains(t, world.cacheRepo.deleted, "dash:u1:*")

	again, err := svc.Upsert(context.Background(), worldUser, models.UpsertAttendanceRequest{
		SubjectID:      "alg",
		Date:           "2024-01-03",
		OfficialStatus: "no_class",
		Reason:         strPtr("  strike "),
	})
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)
	require.NotNil(t, again.Reason)
	assert.Equal(t, "strike", *again.Reason)
	assert.Nil(t, again.PersonalStatus)
	assert.Len(t, world.records.items, 1)
}

func TestAttendanceServiceUpsertRejections(t *testing.T) {
	world := newTestWorld()
	svc := newTestAttendanceService(world)
	ctx := context.Background()

	_, err := svc.Upsert(ctx, worldUser, models.UpsertAttendanceRequest{SubjectID: "alg", Date: "2024-01-02", OfficialStatus: "present"})
	assert.ErrorIs(t, err, appErrors.ErrValidation, "tuesday has no algebra slot")

	_, err = svc.Upsert(ctx, worldUser, models.UpsertAttendanceRequest{SubjectID: "alg", Date: "2024-02-05", OfficialStatus: "present"})
	assert.ErrorIs(t, err, appErrors.ErrValidation, "outside semester")

	_, err = svc.Upsert(ctx, worldUser, models.UpsertAttendanceRequest{SubjectID: "alg", Date: "2024-01-01", OfficialStatus: "late"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Upsert(ctx, "intruder", models.UpsertAttendanceRequest{SubjectID: "alg", Date: "2024-01-01", OfficialStatus: "present"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	world.semesters.items[worldSemester].IsArchived = true
	_, err = svc.Upsert(ctx, worldUser, models.UpsertAttendanceRequest{SubjectID: "alg", Date: "2024-01-01", OfficialStatus: "present"})
	assert.ErrorIs(t, err, appErrors.ErrArchived)
	assert.Empty(t, world.records.items)
}

func TestAttendanceServiceBulkNoClass(t *testing.T) {
	world := newTestWorld()
	world.mark("phy", "2024-01-15", models.OfficialPresent, personal(models.PersonalPresent), 1.5)
	svc := newTestAttendanceService(world)

	records, err := svc.BulkNoClass(context.Background(), worldUser, models.BulkNoClassRequest{
		SemesterID: worldSemester, Date: "2024-01-15", Reason: "Public holiday",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, world.records.bulk)
	for _, rec := range records {
		assert.Equal(t, models.OfficialNoClass, rec.OfficialStatus)
		assert.Nil(t, rec.PersonalStatus)
		require.NotNil(t, rec.Reason)
		assert.Equal(t, "Public holiday", *rec.Reason)
	}
	assert.Len(t, world.records.items, 2)

	none, err := svc.BulkNoClass(context.Background(), worldUser, models.BulkNoClassRequest{
		SemesterID: worldSemester, Date: "2024-01-02", Reason: "Nothing scheduled",
	})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Equal(t, 1, world.records.bulk)
}
