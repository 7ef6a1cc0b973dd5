package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type dashboardService interface {
	Get(ctx context.Context, userID string) (*models.DashboardPayload, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Get godoc
// @Summary Dashboard for the active semester
// @Description show_alert is true only on the first request of an alert window.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	start := time.Now()
	payload, cacheHit, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{
			"cache_hit":          cacheHit,
			"processing_time_ms": time.Since(start).Milliseconds(),
		}
	}
	response.JSON(c, http.StatusOK, payload, nil, meta)
}
