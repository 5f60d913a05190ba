package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-builder-api/internal/middleware"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/response"
)

// ownerFromContext returns the workspace owner of the session, writing a 401 when there is none.
func ownerFromContext(c *gin.Context) (string, bool) {
	claims, ok := middleware.Claims(c)
	if !ok || claims.OwnerID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return claims.OwnerID, true
}
