package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

// currentUserID writes a 401 and returns false when the request carries no claims.
func currentUserID(c *gin.Context) (string, bool) {
	claims := middleware.Claims(c)
	if claims == nil || claims.UserID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.UserID, true
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func requiredQuery(c *gin.Context, key string) (string, bool) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, key+" is required"))
		return "", false
	}
	return value, true
}
