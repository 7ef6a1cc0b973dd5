package main

import (
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	internalmiddleware "github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type routeDeps struct {
	auth          *service.AuthService
	profile       *service.ProfileService
	semesters     *service.SemesterService
	subjects      *service.SubjectService
	schedule      *service.ScheduleService
	attendance    *service.AttendanceService
	coursework    *service.CourseworkService
	dashboard     *service.DashboardService
	notifications *service.NotificationService
	reports       *service.ReportService
	exports       *service.ExportService
	metrics       *service.MetricsService
	avatarRoot    string
	checks        map[string]handler.ReadinessCheck
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps routeDeps) {
	metricsHandler := handler.NewMetricsHandler(deps.metrics, deps.checks)
	authHandler := handler.NewAuthHandler(deps.auth)
	profileHandler := handler.NewProfileHandler(deps.profile)
	semesterHandler := handler.NewSemesterHandler(deps.semesters)
	subjectHandler := handler.NewSubjectHandler(deps.subjects)
	scheduleHandler := handler.NewScheduleHandler(deps.schedule)
	attendanceHandler := handler.NewAttendanceHandler(deps.attendance)
	courseworkHandler := handler.NewCourseworkHandler(deps.coursework)
	dashboardHandler := handler.NewDashboardHandler(deps.dashboard)
	notificationHandler := handler.NewNotificationHandler(deps.notifications)
	reportHandler := handler.NewReportHandler(deps.reports, deps.exports)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if deps.avatarRoot != "" {
		r.Static(cfg.Profile.AvatarPublicPath, deps.avatarRoot)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	api := r.Group(prefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// the signed token authorizes the download
	api.GET("/export/:token", internalmiddleware.OptionalJWT(deps.auth), reportHandler.DownloadReport)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(deps.auth))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.PUT("/auth/update-password", authHandler.UpdatePassword)

	secured.GET("/profile/me", profileHandler.Me)
	secured.PUT("/profile", profileHandler.Update)
	secured.POST("/profile/avatar", profileHandler.UploadAvatar)

	semesters := secured.Group("/semesters")
	semesters.POST("", semesterHandler.Upsert)
	semesters.GET("/active", semesterHandler.Active)
	semesters.GET("/archived", semesterHandler.Archived)
	semesters.GET("/:id", semesterHandler.Get)
	semesters.PUT("/:id/archive", semesterHandler.Archive)
	semesters.GET("/:id/overview", semesterHandler.Overview)

	subjects := secured.Group("/subjects")
	subjects.GET("", subjectHandler.List)
	subjects.POST("", subjectHandler.Create)
	subjects.PUT("/:id", subjectHandler.Update)
	subjects.DELETE("/:id", subjectHandler.Delete)
	subjects.GET("/:id/insights", scheduleHandler.SubjectInsights)

	secured.GET("/schedule", scheduleHandler.Schedule)
	secured.GET("/schedule/calendar", scheduleHandler.Calendar)
	secured.GET("/dashboard", dashboardHandler.Get)

	secured.POST("/attendance/upsert", attendanceHandler.Upsert)
	secured.POST("/attendance/bulk", attendanceHandler.Bulk)

	tests := secured.Group("/tests")
	tests.GET("", courseworkHandler.ListTests)
	tests.POST("", courseworkHandler.CreateTest)
	tests.PUT("/:id", courseworkHandler.UpdateTest)
	tests.DELETE("/:id", courseworkHandler.DeleteTest)

	assignments := secured.Group("/assignments")
	assignments.GET("", courseworkHandler.ListAssignments)
	assignments.POST("", courseworkHandler.CreateAssignment)
	assignments.PUT("/:id", courseworkHandler.UpdateAssignment)
	assignments.DELETE("/:id", courseworkHandler.DeleteAssignment)

	notifications := secured.Group("/notifications")
	notifications.GET("/preferences", notificationHandler.Preferences)
	notifications.PUT("/preferences", notificationHandler.UpdatePreferences)
	notifications.POST("/subscribe", notificationHandler.Subscribe)

	reports := secured.Group("/reports")
	reports.GET("/subjects/:id/log.csv", reportHandler.SubjectLog)
	reports.POST("/generate", reportHandler.GenerateReport)
	reports.GET("/status/:id", reportHandler.ReportStatus)

	admin := secured.Group("/admin")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin))
	admin.GET("/metrics", metricsHandler.Snapshot)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})
}
