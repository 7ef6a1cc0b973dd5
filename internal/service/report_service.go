package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

// JobTypeReport tags report generation jobs.
const JobTypeReport = "report"

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params models.UpdateReportJobParams) error
	RequeueInterrupted(ctx context.Context) (int64, error)
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	ClearResult(ctx context.Context, id string) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

// ReportService orchestrates report job lifecycle management.
type ReportService struct {
	repo      reportJobStore
	semesters semesterReader
	queue     jobEnqueuer
	exporter  *ExportService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	now       func() time.Time
}

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL time.Duration
	Timezone  string
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	Format      models.ReportFormat
	ExpiresAt   time.Time
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, semesters semesterReader, queue jobEnqueuer, exporter *ExportService, validate *validator.Validate, cfg ReportServiceConfig, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{
		repo:      repo,
		semesters: semesters,
		queue:     queue,
		exporter:  exporter,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// CreateJob validates the request, persists a queued job and enqueues it.
func (s *ReportService) CreateJob(ctx context.Context, userID string, req models.GenerateReportRequest) (*models.ReportStatusResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid report request")
	}
	params := models.ReportJobParams{Timezone: s.cfg.Timezone}
	if req.AsOf != nil && *req.AsOf != "" {
		asOf, err := models.ParseDate(*req.AsOf)
		if err != nil {
			return nil, appErrors.Validation(err, "invalid as_of")
		}
		params.AsOf = &asOf
	}
	semester, err := ownedSemester(ctx, s.semesters, userID, req.SemesterID)
	if err != nil {
		return nil, err
	}

	job := &models.ReportJob{
		SemesterID: semester.ID,
		Format:     models.ReportFormat(strings.ToLower(req.Format)),
		Params:     params,
		Status:     models.ReportStatusQueued,
		CreatedBy:  userID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Internal(err, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeReport}); err != nil {
		status := models.ReportStatusFailed
		msg := "failed to enqueue job"
		now := s.now().UTC()
		progress := 100
		_ = s.repo.Update(ctx, job.ID, models.UpdateReportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Internal(err, "failed to enqueue report job")
	}
	applog.For(ctx, s.logger).Info("report job queued", zap.String("job_id", job.ID), zap.String("semester_id", job.SemesterID), zap.String("format", string(job.Format)))
	return statusResponse(job), nil
}

// GetStatus exposes job progress to the user who requested it.
func (s *ReportService) GetStatus(ctx context.Context, userID, id string) (*models.ReportStatusResponse, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Internal(err, "failed to load report job")
	}
	if job.CreatedBy != userID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}
	return statusResponse(job), nil
}

// ResolveDownload validates token and opens the stored export file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	parsed, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, parsed.ResourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Internal(err, "failed to load report job")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "report not ready")
	}
	file, err := s.exporter.Open(parsed.Path)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ReportDownload{
		File:        file,
		Filename:    filepath.Base(parsed.Path),
		ContentType: s.exporter.ContentType(job.Format),
		Format:      job.Format,
		ExpiresAt:   parsed.ExpiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a restart. Jobs a stopped worker left in PROCESSING are queued again first.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) {
	if n, err := s.repo.RequeueInterrupted(ctx); err != nil {
		s.logger.Sugar().Warnw("failed to requeue interrupted report jobs", "error", err)
	} else if n > 0 {
		s.logger.Info("interrupted report jobs requeued", zap.Int64("count", n))
	}
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued report jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeReport}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending job", "job_id", job.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		s.logger.Info("report jobs recovered", zap.Int("count", len(pending)))
	}
}

// Cleanup deletes expired export files and clears their download links. It is run by the scheduler.
func (s *ReportService) Cleanup(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.ResultTTL)
	removed := 0
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			return err
		}
		for _, job := range expired {
			if token := extractToken(job.ResultURL); token != "" {
				if parsed, err := s.exporter.ParseToken(token, true); err == nil {
					if err := s.exporter.Delete(parsed.Path); err != nil {
						s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
					}
				}
			}
			if err := s.repo.ClearResult(ctx, job.ID); err != nil {
				return err
			}
			removed++
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.exporter.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
	if removed > 0 {
		s.logger.Info("expired reports cleaned", zap.Int("count", removed))
	}
	return nil
}

func statusResponse(job *models.ReportJob) *models.ReportStatusResponse {
	resp := &models.ReportStatusResponse{
		ID:         job.ID,
		Status:     job.Status,
		Progress:   job.Progress,
		Format:     job.Format,
		CreatedAt:  job.CreatedAt,
		FinishedAt: job.FinishedAt,
	}
	if job.ResultURL != nil && *job.ResultURL != "" {
		resp.DownloadURL = job.ResultURL
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp
}

func extractToken(url *string) string {
	if url == nil || *url == "" {
		return ""
	}
	parts := strings.Split(*url, "/")
	return parts[len(parts)-1]
}

// ReportWorker bridges queue jobs to ExportService.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewReportWorker constructs a worker.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{
		repo:       repo,
		exporter:   exporter,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// Handle processes a queue job.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, models.UpdateReportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ReportStatusFailed
			progress = 100
			now := w.now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, models.UpdateReportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.ReportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, models.UpdateReportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark job queued", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}
	finished := models.ReportStatusFinished
	progress = 100
	now := w.now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, models.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}
