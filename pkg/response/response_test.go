package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

func TestJSONWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	JSON(c, http.StatusOK, []string{"CS101"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"cache_hit": true})

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []interface{}{"CS101"}, body["data"])
	assert.Equal(t, float64(1), body["pagination"].(map[string]interface{})["total_count"])
	assert.Equal(t, true, body["meta"].(map[string]interface{})["cache_hit"])
}

func TestErrorUsesTypedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, appErrors.WithDetails(appErrors.ErrOverlapWarning, "", []int64{7}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "OVERLAP_WARNING", body.Error.Code)
	assert.Empty(t, c.Errors)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	Error(c, errors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, c.Errors, 1)
}

func TestAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Attachment(c, "Main.ics", "text/calendar", []byte("BEGIN:VCALENDAR"))
	assert.Equal(t, `attachment; filename="Main.ics"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/calendar", rec.Header().Get("Content-Type"))
}
