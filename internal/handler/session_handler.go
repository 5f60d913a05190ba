package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/response"
)

type sessionIssuer interface {
	Issue(req dto.CreateSessionRequest) (*dto.SessionResponse, error)
}

// SessionHandler issues anonymous workspace sessions.
type SessionHandler struct {
	sessions sessionIssuer
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(sessions sessionIssuer) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create godoc
// @Summary Start a session
// @Description Issues a bearer token for a new anonymous workspace. A valid admin_key grants catalog write access.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest false "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.sessions.Issue(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}
