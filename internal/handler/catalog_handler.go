package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/middleware"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context, query dto.CourseListQuery) ([]models.CourseSummary, *models.Pagination, bool, error)
	Get(ctx context.Context, code string) (*models.Course, bool, error)
	Import(ctx context.Context, req dto.ImportCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, code string) error
}

// CatalogHandler serves the course catalog.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Param q query string false "Code or name fragment"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) List(c *gin.Context) {
	var query dto.CourseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	courses, pagination, hit, err := h.catalog.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, courses, pagination, middleware.ResponseMeta(c))
}

// Get godoc
// @Summary Get course with sections
// @Tags Catalog
// @Produce json
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	course, hit, err := h.catalog.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, course, nil, middleware.ResponseMeta(c))
}

// Import godoc
// @Summary Import or replace a course
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body dto.ImportCourseRequest true "Course record"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CatalogHandler) Import(c *gin.Context) {
	var req dto.ImportCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.catalog.Import(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags Catalog
// @Param code path string true "Course code"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /courses/{code} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
