package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type profileService interface {
	Me(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error)
	UploadAvatar(ctx context.Context, userID string, r io.Reader) (*models.User, error)
}

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service profileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Me godoc
// @Summary Current profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /profile/me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.service.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Update godoc
// @Summary Update profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	user, err := h.service.Update(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UploadAvatar godoc
// @Summary Upload avatar
// @Tags Profile
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "avatar file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close() //nolint:errcheck

	user, err := h.service.UploadAvatar(c.Request.Context(), userID, src)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
