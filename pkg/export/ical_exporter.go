package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const icalTimeLayout = "20060102T150405"

// Event is one weekly recurring calendar entry.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Weekday     time.Weekday
	StartHour   int
	Hours       int
}

// ICalExporter renders weekly events as an RFC 5545 calendar. Each event starts on its first
// weekday on or after SemesterStart and repeats Weeks times.
type ICalExporter struct {
	SemesterStart time.Time
	Weeks         int
	ProductID     string
}

// NewICalExporter constructs a calendar exporter.
func NewICalExporter(semesterStart time.Time, weeks int) *ICalExporter {
	if weeks <= 0 {
		weeks = 16
	}
	return &ICalExporter{
		SemesterStart: semesterStart,
		Weeks:         weeks,
		ProductID:     "-//schedule-builder//schedule export//EN",
	}
}

// Render writes the calendar. Times are floating local times.
func (e *ICalExporter) Render(calendarName string, events []Event) ([]byte, error) {
	buf := &bytes.Buffer{}
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(buf, format, args...)
		buf.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:%s", e.ProductID)
	line("CALSCALE:GREGORIAN")
	line("X-WR-CALNAME:%s", escapeText(calendarName))
	for _, ev := range events {
		if ev.Hours <= 0 {
			return nil, fmt.Errorf("event %s has non-positive duration", ev.UID)
		}
		start := e.FirstOccurrence(ev.Weekday).Add(time.Duration(ev.StartHour) * time.Hour)
		end := start.Add(time.Duration(ev.Hours) * time.Hour)

		line("BEGIN:VEVENT")
		line("UID:%s", ev.UID)
		line("DTSTART:%s", start.Format(icalTimeLayout))
		line("DTEND:%s", end.Format(icalTimeLayout))
		line("SUMMARY:%s", escapeText(ev.Summary))
		if ev.Description != "" {
			line("DESCRIPTION:%s", escapeText(ev.Description))
		}
		if ev.Location != "" {
			line("LOCATION:%s", escapeText(ev.Location))
		}
		line("RRULE:FREQ=WEEKLY;COUNT=%d", e.Weeks)
		line("END:VEVENT")
	}
	line("END:VCALENDAR")
	return buf.Bytes(), nil
}

// FirstOccurrence returns midnight of the first day on or after SemesterStart falling on wd.
func (e *ICalExporter) FirstOccurrence(wd time.Weekday) time.Time {
	y, m, d := e.SemesterStart.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(start.Weekday()) + 7) % 7
	return start.AddDate(0, 0, offset)
}

var icalEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escapeText(s string) string {
	return icalEscaper.Replace(s)
}
