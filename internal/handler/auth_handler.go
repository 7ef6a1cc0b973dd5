package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type authService interface {
	Register(ctx context.Context, req models.RegisterRequest, meta models.LoginRequest) (*models.LoginResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error)
	Logout(ctx context.Context, userID string, req models.LogoutRequest) error
	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
}

// AuthHandler serves the account and session endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// clientInfo records where a session was opened from.
func clientInfo(c *gin.Context) (ip, userAgent string) {
	return c.ClientIP(), c.Request.UserAgent()
}

// Register godoc
// @Summary Create an account
// @Description Registers a student account and returns a first token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Account details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req, "invalid register payload") {
		return
	}
	var meta models.LoginRequest
	meta.IP, meta.UserAgent = clientInfo(c)

	session, err := h.service.Register(c.Request.Context(), req, meta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Login godoc
// @Summary Sign in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req, "invalid login payload") {
		return
	}
	req.IP, req.UserAgent = clientInfo(c)

	session, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Refresh godoc
// @Summary Rotate tokens
// @Description Trades a refresh token for a new pair. The presented token stops working.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshTokenRequest
	if !bindJSON(c, &req, "invalid refresh payload") {
		return
	}
	req.IP, req.UserAgent = clientInfo(c)

	tokens, err := h.service.RefreshToken(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tokens, nil)
}

// Logout godoc
// @Summary Sign out
// @Tags Authentication
// @Accept json
// @Param payload body models.LogoutRequest true "Refresh token to revoke"
// @Success 204
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.LogoutRequest
	if !bindJSON(c, &req, "refresh token required") {
		return
	}
	if err := h.service.Logout(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdatePassword godoc
// @Summary Change password
// @Description Every open session is signed out afterwards
// @Tags Authentication
// @Accept json
// @Param payload body models.ChangePasswordRequest true "Old and new password"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /auth/update-password [put]
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.ChangePasswordRequest
	if !bindJSON(c, &req, "invalid password payload") {
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
