package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type notificationService interface {
	Preferences(ctx context.Context, userID string) (models.NotificationPreferences, error)
	UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) (models.NotificationPreferences, error)
	Subscribe(ctx context.Context, userID string, req models.SubscribeRequest) (*models.PushSubscription, error)
}

// NotificationHandler manages reminder preferences and push subscriptions.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// Preferences godoc
// @Summary Reminder preferences
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/preferences [get]
func (h *NotificationHandler) Preferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	prefs, err := h.service.Preferences(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prefs, nil)
}

// UpdatePreferences godoc
// @Summary Replace reminder preferences
// @Description Omitted categories or channels are stored as disabled.
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.NotificationPreferences true "Preferences"
// @Success 200 {object} response.Envelope
// @Router /notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var prefs models.NotificationPreferences
	if !bindJSON(c, &prefs, "invalid preferences payload") {
		return
	}
	updated, err := h.service.UpdatePreferences(c.Request.Context(), userID, prefs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}

// Subscribe godoc
// @Summary Register a web push subscription
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.SubscribeRequest true "PushSubscription JSON"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/subscribe [post]
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req models.SubscribeRequest
	if !bindJSON(c, &req, "invalid subscription payload") {
		return
	}
	subscription, err := h.service.Subscribe(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subscription)
}
