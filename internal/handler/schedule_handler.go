package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type scheduleService interface {
	Schedule(ctx context.Context, userID, semesterID string) ([]models.Occurrence, bool, error)
	Calendar(ctx context.Context, userID, semesterID, month string) ([]models.DayStatus, error)
	SubjectInsights(ctx context.Context, userID, subjectID string) (*models.SubjectInsights, error)
}

// ScheduleHandler serves the expanded class schedule and views derived from it.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Schedule godoc
// @Summary Expanded class occurrences of a semester
// @Tags Schedule
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Schedule(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semesterID, ok := requiredQuery(c, "semester_id")
	if !ok {
		return
	}
	occurrences, cacheHit, err := h.service.Schedule(c.Request.Context(), userID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, occurrences, nil, middleware.ExtractMeta(c))
}

// Calendar godoc
// @Summary Per-day attendance status for a month
// @Tags Schedule
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Param month query string false "Month (YYYY-MM). Defaults to the current month"
// @Success 200 {object} response.Envelope
// @Router /schedule/calendar [get]
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semesterID, ok := requiredQuery(c, "semester_id")
	if !ok {
		return
	}
	days, err := h.service.Calendar(c.Request.Context(), userID, semesterID, strings.TrimSpace(c.Query("month")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// SubjectInsights godoc
// @Summary Stats, trend and log of one subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /subjects/{id}/insights [get]
func (h *ScheduleHandler) SubjectInsights(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	insights, err := h.service.SubjectInsights(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, insights, nil)
}
