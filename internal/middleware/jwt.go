package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator verifies access tokens. *service.AuthService implements it.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT rejects requests without a valid access token and stores the claims
// for handlers scoping data to the caller.
func JWT(authService TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is present and never blocks.
// Public routes use it so access logs still carry the caller.
func OptionalJWT(authService TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c.GetHeader("Authorization")); err == nil {
			if claims, err := authService.ValidateToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	scheme, token, found := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return token, nil
}

func setClaims(c *gin.Context, claims *models.JWTClaims) {
	c.Set(ContextUserKey, claims)
	c.Set(logger.UserIDKey, claims.UserID)
}
