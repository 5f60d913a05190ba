package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/service"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/response"
)

type scheduleExporter interface {
	Export(ctx context.Context, ownerID, scheduleID string, query dto.ExportQuery) (*service.ExportResult, error)
}

// ExportHandler streams schedule downloads.
type ExportHandler struct {
	exporter scheduleExporter
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(exporter scheduleExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Export godoc
// @Summary Download a schedule
// @Tags Schedules
// @Produce plain
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param format query string false "text, csv, ical, json or pdf" Enums(text, csv, ical, json, pdf)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export parameters"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), owner, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}
