package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type semesterService interface {
	Upsert(ctx context.Context, userID string, req models.UpsertSemesterRequest) (*models.Semester, bool, error)
	Active(ctx context.Context, userID string) (*models.Semester, error)
	Archived(ctx context.Context, userID string) ([]models.Semester, error)
	Get(ctx context.Context, userID, id string) (*models.Semester, error)
	Archive(ctx context.Context, userID, id string) (*models.Semester, error)
	Overview(ctx context.Context, userID, id string) (*models.SemesterOverview, error)
}

// SemesterHandler manages semester endpoints.
type SemesterHandler struct {
	service semesterService
}

// NewSemesterHandler constructs the handler.
func NewSemesterHandler(service semesterService) *SemesterHandler {
	return &SemesterHandler{service: service}
}

// Upsert godoc
// @Summary Create or update a semester
// @Description Without an id a new active semester is created and the previous one archived.
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body models.UpsertSemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /semesters [post]
func (h *SemesterHandler) Upsert(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpsertSemesterRequest
	if !bindJSON(c, &req, "invalid semester payload") {
		return
	}
	semester, created, err := h.service.Upsert(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, semester)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Active godoc
// @Summary Active semester
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/active [get]
func (h *SemesterHandler) Active(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semester, err := h.service.Active(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Archived godoc
// @Summary Archived semesters
// @Tags Semesters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /semesters/archived [get]
func (h *SemesterHandler) Archived(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semesters, err := h.service.Archived(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, nil)
}

// Get godoc
// @Summary Semester detail
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semester, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Archive godoc
// @Summary Archive a semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{id}/archive [put]
func (h *SemesterHandler) Archive(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semester, err := h.service.Archive(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Overview godoc
// @Summary Read-only semester overview
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{id}/overview [get]
func (h *SemesterHandler) Overview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	overview, err := h.service.Overview(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}
