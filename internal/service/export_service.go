package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
	"github.com/noah-isme/schedule-builder-api/pkg/export"
)

// Export formats.
const (
	ExportText = "text"
	ExportCSV  = "csv"
	ExportICal = "ical"
	ExportJSON = "json"
	ExportPDF  = "pdf"
)

var exportContentTypes = map[string]struct {
	extension   string
	contentType string
}{
	ExportText: {"txt", "text/plain; charset=utf-8"},
	ExportCSV:  {"csv", "text/csv; charset=utf-8"},
	ExportICal: {"ics", "text/calendar; charset=utf-8"},
	ExportJSON: {"json", "application/json"},
	ExportPDF:  {"pdf", "application/pdf"},
}

var exportHeaders = []string{"Day", "Time", "Course", "Type", "Teacher", "Room"}

type scheduleSource interface {
	ScheduleSections(ctx context.Context, ownerID, scheduleID string) (*models.Schedule, []models.EnrichedSection, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type icalRenderer interface {
	Render(calendarName string, events []export.Event) ([]byte, error)
}

// ExportConfig anchors calendar exports.
type ExportConfig struct {
	SemesterStart time.Time
	Weeks         int
}

// ExportResult is a rendered schedule ready to be sent as an attachment.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a saved schedule into downloadable formats.
type ExportService struct {
	schedules scheduleSource
	metrics   *MetricsService
	logger    *zap.Logger
	csv       csvRenderer
	pdf       pdfRenderer
	ical      icalRenderer
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(schedules scheduleSource, metrics *MetricsService, logger *zap.Logger, cfg ExportConfig, csv csvRenderer, pdf pdfRenderer, ical icalRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if ical == nil {
		ical = export.NewICalExporter(cfg.SemesterStart, cfg.Weeks)
	}
	return &ExportService{schedules: schedules, metrics: metrics, logger: logger, csv: csv, pdf: pdf, ical: ical}
}

// Export renders the owner's schedule in the requested format; an empty format means text.
func (s *ExportService) Export(ctx context.Context, ownerID, scheduleID string, query dto.ExportQuery) (*ExportResult, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = ExportText
	}
	meta, ok := exportContentTypes[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", query.Format))
	}

	schedule, sections, err := s.schedules.ScheduleSections(ctx, ownerID, scheduleID)
	if err != nil {
		return nil, err
	}

	var body []byte
	switch format {
	case ExportText:
		body = renderText(schedule, sections)
	case ExportCSV:
		body, err = s.csv.Render(exportDataset(sections))
	case ExportPDF:
		body, err = s.pdf.Render(exportDataset(sections), "Schedule: "+schedule.Name)
	case ExportICal:
		body, err = s.ical.Render(schedule.Name, calendarEvents(schedule, sections))
	case ExportJSON:
		body, err = renderJSON(schedule, sections)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.metrics.RecordExport(format)
	s.logger.Debug("schedule exported",
		zap.String("owner_id", ownerID),
		zap.String("schedule_id", schedule.ID),
		zap.String("format", format),
		zap.Int("sections", len(sections)),
	)
	return &ExportResult{
		Filename:    ExportFilename(schedule.Name, meta.extension),
		ContentType: meta.contentType,
		Body:        body,
	}, nil
}

// ExportFilename replaces every character outside [A-Za-z0-9] with "_" and appends ext.
func ExportFilename(name, ext string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		b.WriteString("schedule")
	}
	return b.String() + "." + ext
}

func renderText(schedule *models.Schedule, sections []models.EnrichedSection) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Schedule: %s\n", schedule.Name)
	fmt.Fprintf(&buf, "Created: %s\n", schedule.CreatedAt.Format("2006-01-02"))
	fmt.Fprintf(&buf, "Updated: %s\n\n", schedule.UpdatedAt.Format("2006-01-02"))

	var current models.Weekday
	for _, sec := range sections {
		if sec.Day != current {
			current = sec.Day
			fmt.Fprintf(&buf, "%s:\n", sec.Day.Label())
		}
		fmt.Fprintf(&buf, "  %s-%s %s (%s)\n", sec.Time, models.FormatHour(sec.EndHour()), sec.CourseCode, sec.Type)
		fmt.Fprintf(&buf, "    Teacher: %s\n", sec.Teacher)
		fmt.Fprintf(&buf, "    Room: %s\n\n", sec.Room)
	}
	return buf.Bytes()
}

func exportDataset(sections []models.EnrichedSection) export.Dataset {
	rows := make([][]string, 0, len(sections))
	for _, sec := range sections {
		rows = append(rows, []string{
			string(sec.Day),
			sec.Time + "-" + models.FormatHour(sec.EndHour()),
			sec.CourseCode,
			string(sec.Type),
			sec.Teacher,
			sec.Room,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

func calendarEvents(schedule *models.Schedule, sections []models.EnrichedSection) []export.Event {
	events := make([]export.Event, 0, len(sections))
	for _, sec := range sections {
		idx := sec.Day.Index()
		if idx < 0 {
			continue
		}
		events = append(events, export.Event{
			UID:         strconv.FormatInt(sec.ID, 10) + "-" + schedule.ID + "@schedule-builder",
			Summary:     fmt.Sprintf("%s - %s", sec.CourseCode, sec.Type),
			Description: fmt.Sprintf("%s\nTeacher: %s\nRoom: %s", sec.CourseName, sec.Teacher, sec.Room),
			Location:    sec.Room,
			Weekday:     time.Weekday((idx + 1) % 7),
			StartHour:   sec.StartHour(),
			Hours:       sec.Duration,
		})
	}
	return events
}

type exportedSection struct {
	ID         int64              `json:"id"`
	CourseCode string             `json:"course_code"`
	CourseName string             `json:"course_name"`
	Type       models.SectionType `json:"type"`
	Day        models.Weekday     `json:"day"`
	Time       string             `json:"time"`
	Duration   int                `json:"duration"`
	Teacher    string             `json:"teacher"`
	Room       string             `json:"room"`
}

type exportedSchedule struct {
	Schedule struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	} `json:"schedule"`
	Sections []exportedSection `json:"sections"`
}

func renderJSON(schedule *models.Schedule, sections []models.EnrichedSection) ([]byte, error) {
	var out exportedSchedule
	out.Schedule.ID = schedule.ID
	out.Schedule.Name = schedule.Name
	out.Schedule.CreatedAt = schedule.CreatedAt
	out.Schedule.UpdatedAt = schedule.UpdatedAt
	out.Sections = make([]exportedSection, 0, len(sections))
	for _, sec := range sections {
		out.Sections = append(out.Sections, exportedSection{
			ID:         sec.ID,
			CourseCode: sec.CourseCode,
			CourseName: sec.CourseName,
			Type:       sec.Type,
			Day:        sec.Day,
			Time:       sec.Time,
			Duration:   sec.Duration,
			Teacher:    sec.Teacher,
			Room:       sec.Room,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
