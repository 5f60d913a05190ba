package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/response"
)

// RequireRoles lets a request through only when the session role is one of roles.
func RequireRoles(roles ...models.SessionRole) gin.HandlerFunc {
	allowed := make(map[models.SessionRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
