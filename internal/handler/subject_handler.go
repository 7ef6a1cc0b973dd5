package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type subjectService interface {
	List(ctx context.Context, userID, semesterID string) ([]models.Subject, error)
	Create(ctx context.Context, userID string, req models.SubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, userID, id string, req models.SubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, userID, id string) error
}

// SubjectHandler exposes subject CRUD endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs handler.
func NewSubjectHandler(service subjectService) *SubjectHandler {
	return &SubjectHandler{service: service}
}

// List godoc
// @Summary List subjects of a semester
// @Tags Subjects
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semesterID, ok := requiredQuery(c, "semester_id")
	if !ok {
		return
	}
	subjects, err := h.service.List(c.Request.Context(), userID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body models.SubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.SubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subject, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Update subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.SubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.SubjectRequest
	if !bindJSON(c, &req, "invalid subject payload") {
		return
	}
	subject, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete subject
// @Description Attendance records, tests and assignments of the subject are removed with it.
// @Tags Subjects
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
