package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
)

type reportRepoStub struct {
	jobs    map[string]*models.ReportJob
	cleared []string
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *reportRepoStub) Update(ctx context.Context, id string, params models.UpdateReportJobParams) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) RequeueInterrupted(ctx context.Context) (int64, error) {
	var n int64
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusProcessing {
			job.Status = models.ReportStatusQueued
			job.Progress = 0
			n++
		}
	}
	return n, nil
}

func (r *reportRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var queued []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (r *reportRepoStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusFinished && job.ResultURL != nil && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *reportRepoStub) ClearResult(ctx context.Context, id string) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	job.ResultURL = nil
	r.cleared = append(r.cleared, id)
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func newReportServiceForTest(t *testing.T) (*ReportService, *reportRepoStub, *queueStub, *ExportService) {
	t.Helper()
	world := newTestWorld()
	repo := newReportRepoStub()
	queue := &queueStub{}
	exportSvc, _ := newExportServiceForTest(t, world)
	service := NewReportService(repo, world.semesters, queue, exportSvc, nil, ReportServiceConfig{ResultTTL: time.Hour, Timezone: "UTC"}, zap.NewNop())
	return service, repo, queue, exportSvc
}

func TestReportServiceCreateJob(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	resp, err := svc.CreateJob(context.Background(), worldUser, models.GenerateReportRequest{
		SemesterID: worldSemester,
		Format:     "xlsx",
		AsOf:       strPtr("2024-01-15"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeReport, queue.jobs[0].Type)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	assert.Equal(t, models.ReportFormatXLSX, resp.Format)

	stored := repo.jobs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, worldUser, stored.CreatedBy)
	require.NotNil(t, stored.Params.AsOf)
	assert.Equal(t, "2024-01-15", stored.Params.AsOf.String())
	assert.Equal(t, "UTC", stored.Params.Timezone)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	svc, _, queue, _ := newReportServiceForTest(t)
	ctx := context.Background()

	_, err := svc.CreateJob(ctx, worldUser, models.GenerateReportRequest{SemesterID: worldSemester, Format: "docx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.CreateJob(ctx, "intruder", models.GenerateReportRequest{SemesterID: worldSemester, Format: "pdf"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, queue.jobs)
}

func TestReportServiceCreateJobEnqueueFailure(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	queue.err = errors.New("queue reports not started")

	_, err := svc.CreateJob(context.Background(), worldUser, models.GenerateReportRequest{SemesterID: worldSemester, Format: "csv"})
	require.ErrorIs(t, err, appErrors.ErrInternal)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.ErrorMessage)
	}
}

func TestReportServiceGetStatus(t *testing.T) {
	svc, repo, _, _ := newReportServiceForTest(t)
	url := "/api/v1/export/token"
	job := &models.ReportJob{
		ID:         "job-1",
		SemesterID: worldSemester,
		Format:     models.ReportFormatCSV,
		Status:     models.ReportStatusFinished,
		Progress:   100,
		ResultURL:  &url,
		CreatedBy:  worldUser,
	}
	repo.jobs[job.ID] = job

	resp, err := svc.GetStatus(context.Background(), worldUser, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Status, resp.Status)
	assert.Equal(t, job.Progress, resp.Progress)
	require.NotNil(t, resp.DownloadURL)
	assert.Equal(t, url, *resp.DownloadURL)

	_, err = svc.GetStatus(context.Background(), "someone-else", job.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.GetStatus(context.Background(), worldUser, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReportServiceResolveDownload(t *testing.T) {
	svc, repo, _, exportSvc := newReportServiceForTest(t)
	job := &models.ReportJob{
		ID:         "job-download",
		SemesterID: worldSemester,
		Format:     models.ReportFormatCSV,
		Status:     models.ReportStatusProcessing,
		CreatedBy:  worldUser,
	}
	repo.jobs[job.ID] = job
	result, err := exportSvc.Generate(context.Background(), job)
	require.NoError(t, err)
	job.ResultURL = &result.URL

	_, err = svc.ResolveDownload(context.Background(), result.Token)
	assert.ErrorIs(t, err, appErrors.ErrForbidden, "not finished yet")

	job.Status = models.ReportStatusFinished
	download, err := svc.ResolveDownload(context.Background(), result.Token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, filepath.Base(result.RelativePath), download.Filename)
	assert.Equal(t, "text/csv", download.ContentType)

	_, err = svc.ResolveDownload(context.Background(), "garbage")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestReportServiceCleanup(t *testing.T) {
	svc, repo, _, exportSvc := newReportServiceForTest(t)
	job := &models.ReportJob{ID: "job-old", SemesterID: worldSemester, Format: models.ReportFormatCSV, CreatedBy: worldUser}
	repo.jobs[job.ID] = job
	result, err := exportSvc.Generate(context.Background(), job)
	require.NoError(t, err)
	finished := time.Now().Add(-2 * time.Hour)
	job.Status = models.ReportStatusFinished
	job.ResultURL = &result.URL
	job.FinishedAt = &finished

	require.NoError(t, svc.Cleanup(context.Background()))
	assert.Equal(t, []string{"job-old"}, repo.cleared)
	assert.Nil(t, repo.jobs["job-old"].ResultURL)
	_, err = exportSvc.Open(result.RelativePath)
	assert.Error(t, err)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	svc, repo, queue, _ := newReportServiceForTest(t)
	repo.jobs["a"] = &models.ReportJob{ID: "a", Status: models.ReportStatusQueued}
	repo.jobs["b"] = &models.ReportJob{ID: "b", Status: models.ReportStatusFinished}
	repo.jobs["c"] = &models.ReportJob{ID: "c", Status: models.ReportStatusProcessing, Progress: 10}

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 2)
	ids := []string{queue.jobs[0].ID, queue.jobs[1].ID}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)
	assert.Equal(t, 0, repo.jobs["c"].Progress)
	assert.Equal(t, models.ReportStatusFinished, repo.jobs["b"].Status)
}

type exportStub struct {
	result *ExportResult
	err    error
}

func (e exportStub) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func queuedReportRepo() *reportRepoStub {
	return &reportRepoStub{
		jobs: map[string]*models.ReportJob{
			"job-1": {
				ID:         "job-1",
				SemesterID: worldSemester,
				Format:     models.ReportFormatCSV,
				Status:     models.ReportStatusQueued,
				CreatedBy:  worldUser,
			},
		},
	}
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	repo := queuedReportRepo()
	exporter := exportStub{result: &ExportResult{URL: "/api/v1/export/token"}}
	worker := NewReportWorker(repo, exporter, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusFinished, repo.jobs["job-1"].Status)
	require.Equal(t, 100, repo.jobs["job-1"].Progress)
	require.NotNil(t, repo.jobs["job-1"].FinishedAt)
}

func TestReportWorkerHandleRequeuesBeforeLastAttempt(t *testing.T) {
	repo := queuedReportRepo()
	worker := NewReportWorker(repo, exportStub{err: errors.New("boom")}, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, repo.jobs["job-1"].Status)
	require.NotNil(t, repo.jobs["job-1"].ErrorMessage)
	assert.Equal(t, "boom", *repo.jobs["job-1"].ErrorMessage)
}

func TestReportWorkerHandleFailsOnLastAttempt(t *testing.T) {
	repo := queuedReportRepo()
	worker := NewReportWorker(repo, exportStub{err: errors.New("boom")}, 2, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 2})
	require.Error(t, err)
	require.Equal(t, models.ReportStatusFailed, repo.jobs["job-1"].Status)
}
