package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/middleware"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	"github.com/noah-isme/schedule-builder-api/internal/planner"
	"github.com/noah-isme/schedule-builder-api/internal/service"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

func newTestRouter(ownerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	if ownerID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserKey, &models.SessionClaims{OwnerID: ownerID, Role: models.RoleStudent})
			c.Next()
		})
	}
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type sessionIssuerStub struct {
	req dto.CreateSessionRequest
	err error
}

func (s *sessionIssuerStub) Issue(req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &dto.SessionResponse{Token: "tok", OwnerID: "owner-1", Role: models.RoleStudent, ExpiresAt: time.Now()}, nil
}

func TestSessionHandlerCreate(t *testing.T) {
	stub := &sessionIssuerStub{}
	router := newTestRouter("")
	router.POST("/sessions", NewSessionHandler(stub).Create)

	rec := doJSON(router, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var session dto.SessionResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &session))
	assert.Equal(t, "tok", session.Token)

	rec = doJSON(router, http.MethodPost, "/sessions", map[string]string{"admin_key": "k"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "k", stub.req.AdminKey)

	stub.err = appErrors.Clone(appErrors.ErrForbidden, "invalid admin key")
	rec = doJSON(router, http.MethodPost, "/sessions", map[string]string{"admin_key": "bad"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type catalogServiceStub struct {
	hit      bool
	imported *dto.ImportCourseRequest
	err      error
}

func (s *catalogServiceStub) List(ctx context.Context, query dto.CourseListQuery) ([]models.CourseSummary, *models.Pagination, bool, error) {
	return []models.CourseSummary{{Code: "CS101", Name: "Programming", Credits: 5}}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, s.hit, s.err
}

func (s *catalogServiceStub) Get(ctx context.Context, code string) (*models.Course, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	return &models.Course{Code: code}, s.hit, nil
}

func (s *catalogServiceStub) Import(ctx context.Context, req dto.ImportCourseRequest) (*models.Course, error) {
	s.imported = &req
	return &models.Course{Code: req.Code, Name: req.Name}, s.err
}

func (s *catalogServiceStub) Delete(ctx context.Context, code string) error {
	return s.err
}

func TestCatalogHandler(t *testing.T) {
	stub := &catalogServiceStub{hit: true}
	h := NewCatalogHandler(stub)
	router := newTestRouter("")
	router.GET("/courses", h.List)
	router.GET("/courses/:code", h.Get)
	router.POST("/courses", h.Import)
	router.DELETE("/courses/:code", h.Delete)

	rec := doJSON(router, http.MethodGet, "/courses?page=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])

	rec = doJSON(router, http.MethodGet, "/courses?page=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodGet, "/courses/CS101", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodPost, "/courses", dto.ImportCourseRequest{Code: "CS101", Name: "Programming", Formula: "1/1/0"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.imported)
	assert.Equal(t, "1/1/0", stub.imported.Formula)

	rec = doJSON(router, http.MethodDelete, "/courses/CS101", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	stub.err = appErrors.Clone(appErrors.ErrNotFound, "course XX not found")
	rec = doJSON(router, http.MethodGet, "/courses/XX", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, decodeEnvelope(t, rec).Error.Code)
}

type workspaceServiceStub struct {
	toggleErr error
	toggleReq dto.ToggleSectionRequest
	filter    dto.SectionFilterQuery
	compared  [2]string
}

func (s *workspaceServiceStub) Get(ctx context.Context, ownerID string) (*models.Workspace, error) {
	return &models.Workspace{OwnerID: ownerID}, nil
}

func (s *workspaceServiceStub) SetCourses(ctx context.Context, ownerID string, req dto.SetCoursesRequest) (*models.Workspace, error) {
	return &models.Workspace{OwnerID: ownerID, CourseCodes: req.Codes}, nil
}

func (s *workspaceServiceStub) CreateSchedule(ctx context.Context, ownerID string, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-2", Name: req.Name}, nil
}

func (s *workspaceServiceStub) ActivateSchedule(ctx context.Context, ownerID string, req dto.ActivateScheduleRequest) (*models.Workspace, error) {
	return &models.Workspace{OwnerID: ownerID, ActiveScheduleID: req.ID}, nil
}

func (s *workspaceServiceStub) DeleteSchedule(ctx context.Context, ownerID, scheduleID string) (*models.Workspace, error) {
	return &models.Workspace{OwnerID: ownerID}, nil
}

func (s *workspaceServiceStub) DuplicateSchedule(ctx context.Context, ownerID, scheduleID string, req dto.DuplicateScheduleRequest) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-3", Name: req.Name}, nil
}

func (s *workspaceServiceStub) SetSelection(ctx context.Context, ownerID string, req dto.SetSelectionRequest) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-1", Selected: models.SelectionFromIDs(req.SectionIDs)}, nil
}

func (s *workspaceServiceStub) ResetSelection(ctx context.Context, ownerID string) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-1", Selected: models.Selection{}}, nil
}

func (s *workspaceServiceStub) ToggleSection(ctx context.Context, ownerID string, req dto.ToggleSectionRequest) (*dto.ToggleSectionResponse, error) {
	s.toggleReq = req
	if s.toggleErr != nil {
		return nil, s.toggleErr
	}
	return &dto.ToggleSectionResponse{Action: service.ToggleAdded, Decision: planner.Decision{Admit: true}}, nil
}

func (s *workspaceServiceStub) Snapshot(ctx context.Context, ownerID string, query dto.SectionFilterQuery) (*dto.PlannerSnapshot, bool, error) {
	s.filter = query
	return &dto.PlannerSnapshot{}, false, nil
}

func (s *workspaceServiceStub) ApplyRecommendation(ctx context.Context, ownerID string, req dto.ApplyRecommendationRequest) (*models.Schedule, error) {
	return &models.Schedule{ID: "sch-1", Selected: models.SelectionFromIDs(req.Recommendation.SuggestedSections)}, nil
}

func (s *workspaceServiceStub) AdjacentLectures(ctx context.Context, ownerID, code string) ([]models.EnrichedSection, error) {
	return []models.EnrichedSection{}, nil
}

func (s *workspaceServiceStub) Compare(ctx context.Context, ownerID, leftID, rightID string) (*dto.ScheduleComparison, error) {
	s.compared = [2]string{leftID, rightID}
	return &dto.ScheduleComparison{}, nil
}

func workspaceRouter(owner string, stub *workspaceServiceStub) *gin.Engine {
	h := NewWorkspaceHandler(stub)
	router := newTestRouter(owner)
	router.GET("/workspace", h.Get)
	router.PUT("/workspace/courses", h.SetCourses)
	router.POST("/schedules", h.CreateSchedule)
	router.PUT("/schedules/active", h.ActivateSchedule)
	router.DELETE("/schedules/:id", h.DeleteSchedule)
	router.POST("/schedules/:id/duplicate", h.DuplicateSchedule)
	router.PUT("/schedules/active/selection", h.SetSelection)
	router.POST("/schedules/active/reset", h.ResetSelection)
	router.POST("/schedules/active/toggle", h.ToggleSection)
	router.GET("/schedules/active/snapshot", h.Snapshot)
	router.POST("/schedules/active/recommendations/apply", h.ApplyRecommendation)
	router.GET("/schedules/active/lectures/:code/adjacent", h.AdjacentLectures)
	router.GET("/schedules/compare", h.Compare)
	return router
}

func TestWorkspaceHandlerRequiresSession(t *testing.T) {
	router := workspaceRouter("", &workspaceServiceStub{})
	rec := doJSON(router, http.MethodGet, "/workspace", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorkspaceHandlerRoutes(t *testing.T) {
	stub := &workspaceServiceStub{}
	router := workspaceRouter("owner-1", stub)

	cases := []struct {
		method, path string
		body         interface{}
		status       int
	}{
		{http.MethodGet, "/workspace", nil, http.StatusOK},
		{http.MethodPut, "/workspace/courses", dto.SetCoursesRequest{Codes: []string{"CS101"}}, http.StatusOK},
		{http.MethodPost, "/schedules", dto.CreateScheduleRequest{Name: "Plan B"}, http.StatusCreated},
		{http.MethodPut, "/schedules/active", dto.ActivateScheduleRequest{ID: "sch-2"}, http.StatusOK},
		{http.MethodDelete, "/schedules/sch-2", nil, http.StatusOK},
		{http.MethodPost, "/schedules/sch-1/duplicate", nil, http.StatusCreated},
		{http.MethodPost, "/schedules/sch-1/duplicate", dto.DuplicateScheduleRequest{Name: "Copy"}, http.StatusCreated},
		{http.MethodPut, "/schedules/active/selection", dto.SetSelectionRequest{SectionIDs: []int64{1}}, http.StatusOK},
		{http.MethodPost, "/schedules/active/reset", nil, http.StatusOK},
		{http.MethodPost, "/schedules/active/toggle", dto.ToggleSectionRequest{SectionID: 1}, http.StatusOK},
		{http.MethodGet, "/schedules/active/snapshot", nil, http.StatusOK},
		{http.MethodPost, "/schedules/active/recommendations/apply", dto.ApplyRecommendationRequest{Recommendation: models.Recommendation{Type: models.RecommendationCompletion, SuggestedSections: []int64{2}}}, http.StatusOK},
		{http.MethodGet, "/schedules/active/lectures/CS101/adjacent", nil, http.StatusOK},
		{http.MethodGet, "/schedules/compare?left=a&right=b", nil, http.StatusOK},
		{http.MethodGet, "/schedules/compare?left=a", nil, http.StatusBadRequest},
		{http.MethodPost, "/schedules/active/toggle", "not-an-object", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := doJSON(router, tc.method, tc.path, tc.body)
		assert.Equal(t, tc.status, rec.Code, "%s %s", tc.method, tc.path)
	}
	assert.Equal(t, [2]string{"a", "b"}, stub.compared)
}

func TestWorkspaceHandlerToggleOverlapWarning(t *testing.T) {
	decision := planner.Decision{Admit: true, Overlaps: []models.EnrichedSection{{CourseCode: "MA201"}}}
	stub := &workspaceServiceStub{toggleErr: appErrors.WithDetails(appErrors.ErrOverlapWarning, "overlap", decision)}
	router := workspaceRouter("owner-1", stub)

	rec := doJSON(router, http.MethodPost, "/schedules/active/toggle", dto.ToggleSectionRequest{SectionID: 10})
	require.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code    string           `json:"code"`
			Details planner.Decision `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrOverlapWarning.Code, body.Error.Code)
	require.Len(t, body.Error.Details.Overlaps, 1)
	assert.Equal(t, "MA201", body.Error.Details.Overlaps[0].CourseCode)
	assert.Equal(t, int64(10), stub.toggleReq.SectionID)
}

func TestWorkspaceHandlerSnapshotFilters(t *testing.T) {
	stub := &workspaceServiceStub{}
	router := workspaceRouter("owner-1", stub)

	rec := doJSON(router, http.MethodGet, "/schedules/active/snapshot?day=mon&day=tue&type=lab&time=09:00-12:00", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"mon", "tue"}, stub.filter.Days)
	assert.Equal(t, []string{"lab"}, stub.filter.Types)
	assert.Equal(t, []string{"09:00-12:00"}, stub.filter.TimeRanges)
	assert.Equal(t, false, decodeEnvelope(t, rec).Meta["cache_hit"])
}

type exporterStub struct {
	query dto.ExportQuery
	err   error
}

func (s *exporterStub) Export(ctx context.Context, ownerID, scheduleID string, query dto.ExportQuery) (*service.ExportResult, error) {
	s.query = query
	if s.err != nil {
		return nil, s.err
	}
	return &service.ExportResult{Filename: "Main.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("Day,Time\n")}, nil
}

func TestExportHandler(t *testing.T) {
	stub := &exporterStub{}
	router := newTestRouter("owner-1")
	router.GET("/schedules/:id/export", NewExportHandler(stub).Export)

	rec := doJSON(router, http.MethodGet, "/schedules/sch-1/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Main.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Day,Time\n", rec.Body.String())
	assert.Equal(t, "csv", stub.query.Format)

	stub.err = appErrors.Clone(appErrors.ErrNotFound, "schedule x not found")
	rec = doJSON(router, http.MethodGet, "/schedules/x/export", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHandler(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordToggle(service.ToggleAdded)
	h := NewMetricsHandler(metrics)
	router := newTestRouter("")
	router.GET("/metrics", h.Prometheus)
	router.GET("/health", h.Health)
	router.GET("/admin/metrics", h.Summary)

	rec := doJSON(router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "schedule_toggle_total")

	rec = doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodGet, "/admin/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap models.MetricsSnapshot
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &snap))
	assert.Equal(t, uint64(1), snap.ToggleOutcomes[service.ToggleAdded])

	unavailable := newTestRouter("")
	unavailable.GET("/metrics", NewMetricsHandler(nil).Prometheus)
	rec = doJSON(unavailable, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
