package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker-api/api/swagger"
	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	internalmiddleware "github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/cache"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	"github.com/noah-isme/attendance-tracker-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-tracker-api/pkg/storage"
)

// @title Attendance Tracker API
// @version 1.0.0
// @description Semester timetables, class attendance, coursework and reminders for students.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(rootCtx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, cfg.Database.MigrationsDir, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(rootCtx, cfg.Redis, logr)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	loc, err := time.LoadLocation(cfg.Notifications.Timezone)
	if err != nil {
		logr.Warn("unknown timezone, falling back to UTC", zap.String("timezone", cfg.Notifications.Timezone), zap.Error(err))
		loc = time.UTC
	}

	reportFiles, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare report storage", zap.Error(err))
	}
	avatarFiles, err := storage.NewLocalStorage(cfg.Profile.AvatarDir)
	if err != nil {
		logr.Fatal("failed to prepare avatar storage", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	recordRepo := repository.NewAttendanceRecordRepository(db)
	testRepo := repository.NewTestRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	pushRepo := repository.NewPushSubscriptionRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := service.NewValidator()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Schedule.CacheTTL, logr, cfg.Schedule.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		SingleSession:      cfg.JWT.SingleSession,
	})
	profileSvc := service.NewProfileService(userRepo, avatarFiles, service.ProfileServiceConfig{
		AvatarMaxBytes:   cfg.Profile.AvatarMaxBytes,
		AvatarPublicPath: cfg.Profile.AvatarPublicPath,
	}, validate, logr)
	scheduleSvc := service.NewScheduleService(semesterRepo, subjectRepo, recordRepo, cacheSvc, service.ScheduleServiceConfig{CacheTTL: cfg.Schedule.CacheTTL}, logr)
	semesterSvc := service.NewSemesterService(semesterRepo, scheduleSvc, testRepo, assignmentRepo, cacheSvc, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, semesterRepo, cacheSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(recordRepo, subjectRepo, semesterRepo, cacheSvc, validate, logr)
	courseworkSvc := service.NewCourseworkService(testRepo, assignmentRepo, subjectRepo, semesterRepo, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(semesterRepo, scheduleSvc, testRepo, assignmentRepo, cacheSvc, service.DashboardServiceConfig{
		CacheTTL:       cfg.Dashboard.CacheTTL,
		AlertTTL:       cfg.Dashboard.AlertTTL,
		UpcomingWindow: cfg.Dashboard.UpcomingWindow,
	}, logr)
	notificationSvc := service.NewNotificationService(userRepo, pushRepo, validate, logr)

	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(semesterRepo, subjectRepo, scheduleSvc, testRepo, assignmentRepo, reportFiles, signer, metricsSvc, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
		Location:  loc,
	}, logr)
	reportWorker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
		Observer:   metricsSvc.ObserveJob,
	})
	reportSvc := service.NewReportService(reportRepo, semesterRepo, reportQueue, exportSvc, validate, service.ReportServiceConfig{
		ResultTTL: cfg.Reports.SignedURLTTL,
		Timezone:  loc.String(),
	}, logr)

	sender := mailer.New(cfg.Notifications.SendGridAPIKey, cfg.Notifications.FromName, cfg.Notifications.FromEmail, logr)
	reminderSvc := service.NewReminderService(testRepo, assignmentRepo, semesterRepo, scheduleSvc, cacheSvc, sender, metricsSvc, service.ReminderServiceConfig{
		Interval: cfg.Notifications.ScanInterval,
		Location: loc,
	}, logr)
	reminderQueue := jobs.NewQueue("reminders", reminderSvc.Deliver, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: 2,
		RetryDelay: 10 * time.Second,
		Logger:     logr,
		Observer:   metricsSvc.ObserveJob,
	})
	reminderSvc.SetQueue(reminderQueue)

	reportQueue.Start(rootCtx)
	defer reportQueue.Stop()
	reminderQueue.Start(rootCtx)
	defer reminderQueue.Stop()
	reportSvc.RecoverPendingJobs(rootCtx)

	scheduler := jobs.NewScheduler(loc, logr)
	if err := scheduler.Add("reports.cleanup", cfg.Reports.CleanupSpec, 5*time.Minute, reportSvc.Cleanup); err != nil {
		logr.Fatal("failed to schedule report cleanup", zap.Error(err))
	}
	if err := scheduler.Add("auth.sessions.purge", cfg.JWT.SessionPurgeSpec, time.Minute, authSvc.PurgeSessions); err != nil {
		logr.Fatal("failed to schedule session purge", zap.Error(err))
	}
	if cfg.Notifications.Enabled {
		scan := func(ctx context.Context) error {
			_, err := reminderSvc.Scan(ctx)
			return err
		}
		if err := scheduler.Add("reminders.scan", cfg.Notifications.ScanSpec(), time.Minute, scan); err != nil {
			logr.Fatal("failed to schedule reminders", zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	registerRoutes(r, cfg, routeDeps{
		auth:          authSvc,
		profile:       profileSvc,
		semesters:     semesterSvc,
		subjects:      subjectSvc,
		schedule:      scheduleSvc,
		attendance:    attendanceSvc,
		coursework:    courseworkSvc,
		dashboard:     dashboardSvc,
		notifications: notificationSvc,
		reports:       reportSvc,
		exports:       exportSvc,
		metrics:       metricsSvc,
		avatarRoot:    avatarFiles.Root(),
		checks: map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
}
