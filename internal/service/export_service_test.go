package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

type scheduleSourceStub struct {
	schedule *models.Schedule
	sections []models.EnrichedSection
	err      error
}

func (s scheduleSourceStub) ScheduleSections(ctx context.Context, ownerID, scheduleID string) (*models.Schedule, []models.EnrichedSection, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.schedule, s.sections, nil
}

func exportFixture() scheduleSourceStub {
	created := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	return scheduleSourceStub{
		schedule: &models.Schedule{ID: "sch-1", Name: "Fall plan #1", CreatedAt: created, UpdatedAt: created.Add(48 * time.Hour)},
		sections: []models.EnrichedSection{
			{Section: testSection(1, models.SectionLecture, models.Monday, 9, 2), CourseCode: "CS101", CourseName: "Programming"},
			{Section: testSection(3, models.SectionLab, models.Wednesday, 13, 2), CourseCode: "CS101", CourseName: "Programming"},
		},
	}
}

func newTestExportService(src scheduleSourceStub, metrics *MetricsService) *ExportService {
	cfg := ExportConfig{SemesterStart: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), Weeks: 16}
	return NewExportService(src, metrics, zap.NewNop(), cfg, nil, nil, nil)
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "Fall_plan__1.txt", ExportFilename("Fall plan #1", "txt"))
	assert.Equal(t, "______1.csv", ExportFilename("Осень 1", "csv"))
	assert.Equal(t, "schedule.ics", ExportFilename("", "ics"))
}

func TestExportServiceText(t *testing.T) {
	metrics := NewMetricsService()
	svc := newTestExportService(exportFixture(), metrics)

	res, err := svc.Export(context.Background(), "owner-1", "sch-1", dto.ExportQuery{})
	require.NoError(t, err)
	assert.Equal(t, "Fall_plan__1.txt", res.Filename)
	assert.True(t, strings.HasPrefix(res.ContentType, "text/plain"))

	body := string(res.Body)
	assert.Contains(t, body, "Schedule: Fall plan #1\n")
	assert.Contains(t, body, "Created: 2024-09-01\n")
	assert.Contains(t, body, "Updated: 2024-09-03\n")
	assert.Contains(t, body, "  09:00-11:00 CS101 (LECTURE)\n")
	assert.Contains(t, body, "    Room: 301\n")
	assert.Less(t, strings.Index(body, "09:00-11:00"), strings.Index(body, "13:00-15:00"))
}

func TestExportServiceCSV(t *testing.T) {
	svc := newTestExportService(exportFixture(), nil)

	res, err := svc.Export(context.Background(), "owner-1", "sch-1", dto.ExportQuery{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, "Fall_plan__1.csv", res.Filename)
	lines := strings.Split(strings.TrimSpace(string(res.Body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Time,Course,Type,Teacher,Room", lines[0])
	assert.Equal(t, "MON,09:00-11:00,CS101,LECTURE,Ivanov,301", lines[1])
}

func TestExportServiceICal(t *testing.T) {
	svc := newTestExportService(exportFixture(), nil)

	res, err := svc.Export(context.Background(), "owner-1", "sch-1", dto.ExportQuery{Format: "ical"})
	require.NoError(t, err)
	assert.Equal(t, "Fall_plan__1.ics", res.Filename)
	body := string(res.Body)
	assert.Contains(t, body, "BEGIN:VCALENDAR\r\n")
	assert.Contains(t, body, "UID:1-sch-1@schedule-builder\r\n")
	// 2024-09-01 is a Sunday; the first Monday is 2024-09-02.
	assert.Contains(t, body, "DTSTART:20240902T090000\r\n")
	assert.Contains(t, body, "DTEND:20240902T110000\r\n")
	assert.Contains(t, body, "DTSTART:20240904T130000\r\n")
	assert.Contains(t, body, "RRULE:FREQ=WEEKLY;COUNT=16\r\n")
}

func TestExportServiceJSON(t *testing.T) {
	svc := newTestExportService(exportFixture(), nil)

	res, err := svc.Export(context.Background(), "owner-1", "sch-1", dto.ExportQuery{Format: "JSON"})
	require.NoError(t, err)
	assert.Equal(t, "application/json", res.ContentType)

	var decoded exportedSchedule
	require.NoError(t, json.Unmarshal(res.Body, &decoded))
	assert.Equal(t, "sch-1", decoded.Schedule.ID)
	require.Len(t, decoded.Sections, 2)
	assert.Equal(t, "Programming", decoded.Sections[0].CourseName)
}

func TestExportServicePDF(t *testing.T) {
	metrics := NewMetricsService()
	svc := newTestExportService(exportFixture(), metrics)

	res, err := svc.Export(context.Background(), "owner-1", "sch-1", dto.ExportQuery{Format: "pdf"})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.True(t, strings.HasPrefix(string(res.Body), "%PDF"))
}

func TestExportServiceErrors(t *testing.T) {
	svc := newTestExportService(exportFixture(), nil)
	_, err := svc.Export(context.Background(), "owner-1", "sch-1", dto.ExportQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, appErrors.FromError(err).Status)

	missing := newTestExportService(scheduleSourceStub{err: appErrors.Clone(appErrors.ErrNotFound, "schedule x not found")}, nil)
	_, err = missing.Export(context.Background(), "owner-1", "x", dto.ExportQuery{Format: "csv"})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, appErrors.FromError(err).Status)
}
