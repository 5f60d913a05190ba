package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/middleware"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/response"
)

type workspaceService interface {
	Get(ctx context.Context, ownerID string) (*models.Workspace, error)
	SetCourses(ctx context.Context, ownerID string, req dto.SetCoursesRequest) (*models.Workspace, error)
	CreateSchedule(ctx context.Context, ownerID string, req dto.CreateScheduleRequest) (*models.Schedule, error)
	ActivateSchedule(ctx context.Context, ownerID string, req dto.ActivateScheduleRequest) (*models.Workspace, error)
	DeleteSchedule(ctx context.Context, ownerID, scheduleID string) (*models.Workspace, error)
	DuplicateSchedule(ctx context.Context, ownerID, scheduleID string, req dto.DuplicateScheduleRequest) (*models.Schedule, error)
	SetSelection(ctx context.Context, ownerID string, req dto.SetSelectionRequest) (*models.Schedule, error)
	ResetSelection(ctx context.Context, ownerID string) (*models.Schedule, error)
	ToggleSection(ctx context.Context, ownerID string, req dto.ToggleSectionRequest) (*dto.ToggleSectionResponse, error)
	Snapshot(ctx context.Context, ownerID string, query dto.SectionFilterQuery) (*dto.PlannerSnapshot, bool, error)
	ApplyRecommendation(ctx context.Context, ownerID string, req dto.ApplyRecommendationRequest) (*models.Schedule, error)
	AdjacentLectures(ctx context.Context, ownerID, code string) ([]models.EnrichedSection, error)
	Compare(ctx context.Context, ownerID, leftID, rightID string) (*dto.ScheduleComparison, error)
}

// WorkspaceHandler exposes the owner's courses and schedules.
type WorkspaceHandler struct {
	workspace workspaceService
}

// NewWorkspaceHandler constructs a WorkspaceHandler.
func NewWorkspaceHandler(workspace workspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspace: workspace}
}

// Get godoc
// @Summary Get workspace
// @Tags Workspace
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /workspace [get]
func (h *WorkspaceHandler) Get(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	ws, err := h.workspace.Get(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws, nil)
}

// SetCourses godoc
// @Summary Replace planned courses
// @Tags Workspace
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SetCoursesRequest true "Course codes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /workspace/courses [put]
func (h *WorkspaceHandler) SetCourses(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.SetCoursesRequest
	if !bindJSON(c, &req, "invalid course list payload") {
		return
	}
	ws, err := h.workspace.SetCourses(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws, nil)
}

// CreateSchedule godoc
// @Summary Create schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *WorkspaceHandler) CreateSchedule(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.CreateScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	sch, err := h.workspace.CreateSchedule(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sch)
}

// ActivateSchedule godoc
// @Summary Switch active schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ActivateScheduleRequest true "Schedule id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/active [put]
func (h *WorkspaceHandler) ActivateSchedule(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.ActivateScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	ws, err := h.workspace.ActivateSchedule(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws, nil)
}

// DeleteSchedule godoc
// @Summary Delete schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/{id} [delete]
func (h *WorkspaceHandler) DeleteSchedule(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	ws, err := h.workspace.DeleteSchedule(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ws, nil)
}

// DuplicateSchedule godoc
// @Summary Duplicate schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Schedule ID"
// @Param payload body dto.DuplicateScheduleRequest false "Name of the copy"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/duplicate [post]
func (h *WorkspaceHandler) DuplicateSchedule(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.DuplicateScheduleRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	sch, err := h.workspace.DuplicateSchedule(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sch)
}

// SetSelection godoc
// @Summary Overwrite active selection
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SetSelectionRequest true "Section ids"
// @Success 200 {object} response.Envelope
// @Router /schedules/active/selection [put]
func (h *WorkspaceHandler) SetSelection(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.SetSelectionRequest
	if !bindJSON(c, &req, "invalid selection payload") {
		return
	}
	sch, err := h.workspace.SetSelection(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sch, nil)
}

// ResetSelection godoc
// @Summary Clear active selection
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /schedules/active/reset [post]
func (h *WorkspaceHandler) ResetSelection(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	sch, err := h.workspace.ResetSelection(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sch, nil)
}

// ToggleSection godoc
// @Summary Add or remove a section
// @Description Removes a selected section or validates and adds an unselected one. Quota and adjacency failures return 422; an overlap returns 409 until confirm is true.
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ToggleSectionRequest true "Toggle payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/active/toggle [post]
func (h *WorkspaceHandler) ToggleSection(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.ToggleSectionRequest
	if !bindJSON(c, &req, "invalid toggle payload") {
		return
	}
	res, err := h.workspace.ToggleSection(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Snapshot godoc
// @Summary Planner view of the active schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param day query []string false "Days" collectionFormat(multi)
// @Param time query []string false "Time ranges HH:00-HH:00" collectionFormat(multi)
// @Param teacher query []string false "Teachers" collectionFormat(multi)
// @Param room query []string false "Rooms" collectionFormat(multi)
// @Param type query []string false "Section types" collectionFormat(multi)
// @Param course query []string false "Course codes" collectionFormat(multi)
// @Success 200 {object} response.Envelope
// @Router /schedules/active/snapshot [get]
func (h *WorkspaceHandler) Snapshot(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var query dto.SectionFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid filter parameters"))
		return
	}
	snapshot, hit, err := h.workspace.Snapshot(c.Request.Context(), owner, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ResponseMeta(c))
}

// ApplyRecommendation godoc
// @Summary Apply a recommendation
// @Tags Schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ApplyRecommendationRequest true "Recommendation"
// @Success 200 {object} response.Envelope
// @Router /schedules/active/recommendations/apply [post]
func (h *WorkspaceHandler) ApplyRecommendation(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.ApplyRecommendationRequest
	if !bindJSON(c, &req, "invalid recommendation payload") {
		return
	}
	sch, err := h.workspace.ApplyRecommendation(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sch, nil)
}

// AdjacentLectures godoc
// @Summary Lectures that may join the active schedule
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param code path string true "Course code"
// @Success 200 {object} response.Envelope
// @Router /schedules/active/lectures/{code}/adjacent [get]
func (h *WorkspaceHandler) AdjacentLectures(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	options, err := h.workspace.AdjacentLectures(c.Request.Context(), owner, c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, options, nil)
}

// Compare godoc
// @Summary Compare two schedules
// @Tags Schedules
// @Produce json
// @Security BearerAuth
// @Param left query string true "Left schedule ID"
// @Param right query string true "Right schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/compare [get]
func (h *WorkspaceHandler) Compare(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	left, right := strings.TrimSpace(c.Query("left")), strings.TrimSpace(c.Query("right"))
	if left == "" || right == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "left and right schedule ids are required"))
		return
	}
	cmp, err := h.workspace.Compare(c.Request.Context(), owner, left, right)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cmp, nil)
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}
