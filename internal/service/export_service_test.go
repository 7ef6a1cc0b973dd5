package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/storage"
)

var exportNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

// markExportWorld records three marks so both summaries have something to count.
func markExportWorld(world *testWorld) {
	world.mark("alg", "2024-01-01", models.OfficialPresent, personal(models.PersonalPresent), 2)
	world.mark("alg", "2024-01-03", models.OfficialAbsent, personal(models.PersonalAbsent), 1)
	world.mark("phy", "2024-01-01", models.OfficialNoClass, nil, 1.5)
}

func newExportServiceForTest(t *testing.T, world *testWorld) (*ExportService, *MetricsService) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	metrics := NewMetricsService()
	cfg := ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour}
	svc := NewExportService(world.semesters, world.subjects, world.scheduleService(exportNow), world.tests, world.assignments, store, signer, metrics, cfg, zap.NewNop())
	svc.now = func() time.Time { return exportNow }
	return svc, metrics
}

func TestSemesterDatasetRows(t *testing.T) {
	world := newTestWorld()
	markExportWorld(world)
	snapshot, _, err := world.scheduleService(exportNow).Snapshot(context.Background(), *world.semesters.items[worldSemester])
	require.NoError(t, err)

	dataset := SemesterDataset(snapshot, models.NewDate(exportNow))
	assert.Equal(t, semesterReportHeaders, dataset.Headers)
	require.Len(t, dataset.Rows, 2)
	assert.Equal(t, []string{"ALG101", "Algebra", "", "2", "6", "33.3", "2", "3", "66.7"}, dataset.Rows[0])
	assert.Equal(t, []string{"PHY110", "Physics", "", "0", "1.5", "0.0", "0", "0", "N/A"}, dataset.Rows[1])
}

func TestExportServiceGenerateCSV(t *testing.T) {
	world := newTestWorld()
	markExportWorld(world)
	svc, metrics := newExportServiceForTest(t, world)

	job := &models.ReportJob{ID: "job-1", SemesterID: worldSemester, Format: models.ReportFormatCSV, CreatedBy: worldUser}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.True(t, strings.HasSuffix(result.RelativePath, ".csv"))
	assert.Contains(t, result.RelativePath, "Spring_2024_job-1_")

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Code,Subject,Professor")
	assert.Contains(t, string(body), "PHY110,Physics,,0,1.5,0.0,0,0,N/A")

	parsed, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", parsed.ResourceID)
	assert.Equal(t, result.RelativePath, parsed.Path)
	assert.Equal(t, uint64(1), metrics.Snapshot().ExportsGenerated)
}

func TestExportServiceGeneratePDFAndXLSX(t *testing.T) {
	world := newTestWorld()
	svc, _ := newExportServiceForTest(t, world)

	for _, format := range []models.ReportFormat{models.ReportFormatPDF, models.ReportFormatXLSX} {
		result, err := svc.Generate(context.Background(), &models.ReportJob{ID: "job-" + string(format), SemesterID: worldSemester, Format: format})
		require.NoError(t, err, format)
		assert.True(t, strings.HasSuffix(result.RelativePath, "."+string(format)))
		assert.Equal(t, format, result.Format)
	}
}

func TestExportServiceGenerateICS(t *testing.T) {
	world := newTestWorld()
	markExportWorld(world)
	world.tests.items["quiz"] = &models.Test{ID: "quiz", SubjectID: "alg", SubjectCode: "ALG101", Name: "Quiz",
		TestDatetime: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), Status: models.TestPending}
	world.tests.items["dropped"] = &models.Test{ID: "dropped", SubjectID: "alg", SubjectCode: "ALG101", Name: "Dropped",
		TestDatetime: time.Date(2024, 1, 16, 10, 0, 0, 0, time.UTC), Status: models.TestCancelled}
	world.assignments.items["essay"] = &models.Assignment{ID: "essay", SubjectID: "phy", SubjectCode: "PHY110", Name: "Essay",
		Deadline: time.Date(2024, 1, 20, 23, 59, 0, 0, time.UTC), Status: models.AssignmentPending}
	svc, _ := newExportServiceForTest(t, world)

	result, err := svc.Generate(context.Background(), &models.ReportJob{ID: "job-ics", SemesterID: worldSemester, Format: models.ReportFormatICS})
	require.NoError(t, err)
	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	raw, err := io.ReadAll(file)
	require.NoError(t, err)
	body := string(raw)

	// 10 algebra classes, 4 held physics classes, one test and one assignment.
	assert.Equal(t, 16, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "SUMMARY:ALG101 Algebra")
	assert.Contains(t, body, "DTSTART:20240108T090000Z")
	assert.NotContains(t, body, "DTSTART:20240101T110000Z", "cancelled physics class")
	assert.NotContains(t, body, "Dropped")
	assert.Contains(t, body, "Essay")
	assert.Equal(t, "text/calendar", svc.ContentType(models.ReportFormatICS))
}

func TestExportServiceGenerateUsesJobTimezone(t *testing.T) {
	world := newTestWorld()
	svc, _ := newExportServiceForTest(t, world)

	job := &models.ReportJob{ID: "job-tz", SemesterID: worldSemester, Format: models.ReportFormatICS,
		Params: models.ReportJobParams{Timezone: "Asia/Kolkata"}}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	raw, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "DTSTART:20240108T033000Z")
}

func TestExportServiceSubjectLogCSV(t *testing.T) {
	world := newTestWorld()
	markExportWorld(world)
	svc, _ := newExportServiceForTest(t, world)

	file, err := svc.SubjectLogCSV(context.Background(), worldUser, "alg")
	require.NoError(t, err)
	assert.Equal(t, "ALG101_attendance.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	lines := strings.Split(strings.TrimSpace(string(file.Body)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Date,Day,Official Status,Your Status,Duration (hrs)", lines[0])
	assert.Equal(t, "2024-01-01,Monday,present,present,2", lines[1])
	assert.Equal(t, "2024-01-10,Wednesday,not_taken,not_marked,1", lines[4])

	_, err = svc.SubjectLogCSV(context.Background(), "intruder", "alg")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportServiceSubjectLogCSVWithoutPastClasses(t *testing.T) {
	world := newTestWorld()
	svc, _ := newExportServiceForTest(t, world)
	svc.now = func() time.Time { return time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC) }

	_, err := svc.SubjectLogCSV(context.Background(), worldUser, "phy")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExportServiceCleanup(t *testing.T) {
	world := newTestWorld()
	svc, _ := newExportServiceForTest(t, world)

	result, err := svc.Generate(context.Background(), &models.ReportJob{ID: "job-old", SemesterID: worldSemester, Format: models.ReportFormatCSV})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	removed, err := svc.Cleanup(time.Millisecond)
	require.NoError(t, err)
	assert.Contains(t, removed, result.RelativePath)
	_, err = svc.Open(result.RelativePath)
	assert.Error(t, err)
}
