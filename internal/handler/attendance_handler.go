package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type attendanceService interface {
	Upsert(ctx context.Context, userID string, req models.UpsertAttendanceRequest) (*models.AttendanceRecord, error)
	BulkNoClass(ctx context.Context, userID string, req models.BulkNoClassRequest) ([]models.AttendanceRecord, error)
}

// AttendanceHandler handles attendance marking.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

// Upsert godoc
// @Summary Mark one class
// @Description Creates or replaces the record for (subject_id, date).
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.UpsertAttendanceRequest true "Attendance mark"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance/upsert [post]
func (h *AttendanceHandler) Upsert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpsertAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	record, err := h.service.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Bulk godoc
// @Summary Mark a whole day as no class
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body models.BulkNoClassRequest true "Day override"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) Bulk(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.BulkNoClassRequest
	if !bindJSON(c, &req, "invalid bulk payload") {
		return
	}
	records, err := h.service.BulkNoClass(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["updated"] = len(records)
	response.JSON(c, http.StatusOK, records, nil, meta)
}
