package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	"github.com/noah-isme/schedule-builder-api/internal/service"
)

func sessionRouter(t *testing.T, sessions *service.SessionService, roles ...models.SessionRole) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := []gin.HandlerFunc{JWT(sessions)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRoles(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		claims, ok := Claims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.OwnerID)
	})
	router.GET("/private", handlers...)
	return router
}

func TestJWTMiddleware(t *testing.T) {
	sessions := service.NewSessionService(service.SessionConfig{Secret: "secret", Expiry: time.Hour, AdminKey: "admin"}, nil)
	router := sessionRouter(t, sessions)
	session, err := sessions.Issue(dto.CreateSessionRequest{})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + session.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, session.OwnerID, rec.Body.String())
			}
		})
	}
}

func TestRequireRoles(t *testing.T) {
	sessions := service.NewSessionService(service.SessionConfig{Secret: "secret", Expiry: time.Hour, AdminKey: "admin"}, nil)
	router := sessionRouter(t, sessions, models.RoleAdmin)

	student, err := sessions.Issue(dto.CreateSessionRequest{})
	require.NoError(t, err)
	admin, err := sessions.Issue(dto.CreateSessionRequest{AdminKey: "admin"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+student.Token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+admin.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRolesWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type observedRequest struct {
	method, path string
	status       int
}

type recordingObserver struct {
	mu       sync.Mutex
	requests []observedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, observedRequest{method, path, status})
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/courses/:code", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/courses/CS101", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, observer.requests, 2)
	assert.Equal(t, observedRequest{http.MethodGet, "/courses/:code", http.StatusOK}, observer.requests[0])
	assert.Equal(t, "unmatched", observer.requests[1].path)
	assert.Equal(t, http.StatusNotFound, observer.requests[1].status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, true, meta[cacheHitKey])
	assert.Contains(t, meta, processingTimeMs)
}
