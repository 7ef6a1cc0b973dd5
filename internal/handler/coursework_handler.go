package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type courseworkService interface {
	ListTests(ctx context.Context, userID, semesterID string) ([]models.Test, error)
	CreateTest(ctx context.Context, userID string, req models.TestRequest) (*models.Test, error)
	UpdateTest(ctx context.Context, userID, id string, req models.UpdateTestRequest) (*models.Test, error)
	DeleteTest(ctx context.Context, userID, id string) error
	ListAssignments(ctx context.Context, userID, semesterID string) ([]models.Assignment, error)
	CreateAssignment(ctx context.Context, userID string, req models.AssignmentRequest) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, userID, id string, req models.UpdateAssignmentRequest) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, userID, id string) error
}

// CourseworkHandler serves tests and assignments.
type CourseworkHandler struct {
	service courseworkService
}

// NewCourseworkHandler constructs the handler.
func NewCourseworkHandler(service courseworkService) *CourseworkHandler {
	return &CourseworkHandler{service: service}
}

// ListTests godoc
// @Summary List tests of a semester
// @Tags Tests
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /tests [get]
func (h *CourseworkHandler) ListTests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semesterID, ok := requiredQuery(c, "semester_id")
	if !ok {
		return
	}
	tests, err := h.service.ListTests(c.Request.Context(), userID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tests, nil)
}

// CreateTest godoc
// @Summary Create test
// @Tags Tests
// @Accept json
// @Produce json
// @Param payload body models.TestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Router /tests [post]
func (h *CourseworkHandler) CreateTest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.TestRequest
	if !bindJSON(c, &req, "invalid test payload") {
		return
	}
	test, err := h.service.CreateTest(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, test)
}

// UpdateTest godoc
// @Summary Update test
// @Tags Tests
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Description Omitted fields keep their values, so {"status":"Completed"} alone is accepted
// @Param payload body models.UpdateTestRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /tests/{id} [put]
func (h *CourseworkHandler) UpdateTest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateTestRequest
	if !bindJSON(c, &req, "invalid test payload") {
		return
	}
	test, err := h.service.UpdateTest(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, test, nil)
}

// DeleteTest godoc
// @Summary Delete test
// @Tags Tests
// @Param id path string true "Test ID"
// @Success 204
// @Router /tests/{id} [delete]
func (h *CourseworkHandler) DeleteTest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteTest(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListAssignments godoc
// @Summary List assignments of a semester
// @Tags Assignments
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *CourseworkHandler) ListAssignments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	semesterID, ok := requiredQuery(c, "semester_id")
	if !ok {
		return
	}
	assignments, err := h.service.ListAssignments(c.Request.Context(), userID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// CreateAssignment godoc
// @Summary Create assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body models.AssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *CourseworkHandler) CreateAssignment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.AssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	assignment, err := h.service.CreateAssignment(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// UpdateAssignment godoc
// @Summary Update assignment
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body models.UpdateAssignmentRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *CourseworkHandler) UpdateAssignment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	assignment, err := h.service.UpdateAssignment(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// DeleteAssignment godoc
// @Summary Delete assignment
// @Tags Assignments
// @Param id path string true "Assignment ID"
// @Success 204
// @Router /assignments/{id} [delete]
func (h *CourseworkHandler) DeleteAssignment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteAssignment(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
