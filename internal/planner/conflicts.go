package planner

import (
	"fmt"
	"strings"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// AnalyzeConflicts lists every problem in the schedule: one high-severity time conflict per
// overlapping pair of selected sections, then one medium-severity formula violation per course
// and type whose selected count exceeds its quota. The selection is not assumed to have passed
// ValidateAddition. Entries come out in discovery order (days, then courses) and are not sorted
// by severity.
func AnalyzeConflicts(schedule models.Schedule, courses []models.Course, catalog []models.EnrichedSection) []models.ConflictInfo {
	selected := Selected(catalog, schedule.Selected)
	conflicts := make([]models.ConflictInfo, 0)

	for _, pair := range FindOverlaps(selected) {
		conflicts = append(conflicts, models.ConflictInfo{
			Type:             models.ConflictTime,
			Message:          timeConflictMessage(pair),
			AffectedSections: pair.IDs(),
			Severity:         models.SeverityHigh,
		})
	}

	for _, course := range courses {
		limits := ParseFormula(course.Formula)
		counts := CountByType(selected, course.Code)
		for _, t := range models.SectionTypes {
			if counts.Of(t) <= limits.Max(t) {
				continue
			}
			conflicts = append(conflicts, models.ConflictInfo{
				Type:             models.ConflictFormulaViolation,
				Message:          fmt.Sprintf("%s limit exceeded for %s: %d/%d", typeNoun(t), course.Code, counts.Of(t), limits.Max(t)),
				AffectedSections: sectionIDs(selected, course.Code, t),
				Severity:         models.SeverityMedium,
			})
		}
	}

	return conflicts
}

func timeConflictMessage(p OverlapPair) string {
	codes := []string{p.First.CourseCode, p.Second.CourseCode}
	return fmt.Sprintf("time conflict: %s on %s %s-%s / %s-%s",
		strings.Join(codes, ", "),
		p.Day.Label(),
		p.First.Time, models.FormatHour(p.First.EndHour()),
		p.Second.Time, models.FormatHour(p.Second.EndHour()),
	)
}

func sectionIDs(sections []models.EnrichedSection, courseCode string, t models.SectionType) []int64 {
	ids := make([]int64, 0)
	for _, s := range sections {
		if s.CourseCode == courseCode && s.Type == t {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
