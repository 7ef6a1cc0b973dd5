package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type reportService interface {
	CreateJob(ctx context.Context, userID string, req models.GenerateReportRequest) (*models.ReportStatusResponse, error)
	GetStatus(ctx context.Context, userID, id string) (*models.ReportStatusResponse, error)
	ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error)
}

type subjectLogExporter interface {
	SubjectLogCSV(ctx context.Context, userID, subjectID string) (*service.FileExport, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	reports reportService
	logs    subjectLogExporter
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService, logs subjectLogExporter) *ReportHandler {
	return &ReportHandler{reports: reports, logs: logs}
}

// SubjectLog godoc
// @Summary Attendance log of one subject as CSV
// @Tags Reports
// @Produce text/csv
// @Param id path string true "Subject ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/subjects/{id}/log.csv [get]
func (h *ReportHandler) SubjectLog(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	file, err := h.logs.SubjectLogCSV(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// GenerateReport godoc
// @Summary Queue a semester report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body models.GenerateReportRequest true "Report request"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/generate [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.GenerateReportRequest
	if !bindJSON(c, &req, "invalid report payload") {
		return
	}
	status, err := h.reports.CreateJob(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, status)
}

// ReportStatus godoc
// @Summary Report job status
// @Tags Reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/status/{id} [get]
func (h *ReportHandler) ReportStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	status, err := h.reports.GetStatus(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// DownloadReport godoc
// @Summary Download a finished report
// @Description The signed token is the credential; no bearer token is needed.
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.reports.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export file"))
		return
	}
	contentType := download.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", download.Filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, download.File, nil)
}
