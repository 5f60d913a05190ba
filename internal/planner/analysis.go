package planner

import (
	"sort"
	"strings"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// AnalyzeCourses reports counts, limits and the conflicts touching each course.
func AnalyzeCourses(courses []models.Course, catalog []models.EnrichedSection, schedule models.Schedule, conflicts []models.ConflictInfo) []models.CourseAnalysis {
	selected := Selected(catalog, schedule.Selected)
	out := make([]models.CourseAnalysis, 0, len(courses))
	for _, course := range courses {
		owned := make(map[int64]struct{})
		for _, s := range selected {
			if s.CourseCode == course.Code {
				owned[s.ID] = struct{}{}
			}
		}

		violations := make([]models.ConflictInfo, 0)
		for _, c := range conflicts {
			for _, id := range c.AffectedSections {
				if _, ok := owned[id]; ok {
					violations = append(violations, c)
					break
				}
			}
		}

		out = append(out, models.CourseAnalysis{
			Course:           models.CourseSummary{Code: course.Code, Name: course.Name, Credits: course.Credits},
			Formula:          course.Formula,
			CurrentSelection: CountByType(selected, course.Code),
			Limits:           ParseFormula(course.Formula),
			Violations:       violations,
		})
	}
	return out
}

// Stats summarises the schedule for list and comparison views.
func Stats(schedule models.Schedule, courses []models.Course, catalog []models.EnrichedSection, conflicts []models.ConflictInfo) models.ScheduleStats {
	selected := Selected(catalog, schedule.Selected)
	stats := models.ScheduleStats{
		TotalSections:  len(selected),
		TotalConflicts: len(conflicts),
	}
	for _, c := range conflicts {
		if c.Severity == models.SeverityHigh {
			stats.HighPriorityConflicts++
		}
	}

	codes := make(map[string]struct{})
	days := make(map[models.Weekday]struct{})
	for _, s := range selected {
		codes[s.CourseCode] = struct{}{}
		days[s.Day] = struct{}{}
		stats.WeeklyHours += s.Duration
	}
	stats.UniqueCourses = len(codes)
	stats.BusyDays = len(days)
	for _, c := range courses {
		if _, ok := codes[c.Code]; ok {
			stats.TotalCredits += c.Credits
		}
	}
	return stats
}

// SectionState decorates a catalog section for grid rendering.
type SectionState struct {
	models.EnrichedSection
	IsSelected    bool `json:"is_selected"`
	IsConflicted  bool `json:"is_conflicted"`
	IsDeactivated bool `json:"is_deactivated"`
}

// SectionStates flags every catalog section: selected, part of an overlapping selected pair,
// or deactivated because the validator would refuse to add it.
func SectionStates(courses []models.Course, catalog []models.EnrichedSection, schedule models.Schedule) []SectionState {
	selected := Selected(catalog, schedule.Selected)
	conflicted := make(map[int64]struct{})
	for _, p := range FindOverlaps(selected) {
		conflicted[p.First.ID] = struct{}{}
		conflicted[p.Second.ID] = struct{}{}
	}

	out := make([]SectionState, 0, len(catalog))
	for _, s := range catalog {
		state := SectionState{EnrichedSection: s, IsSelected: schedule.Selected.Has(s.ID)}
		if _, ok := conflicted[s.ID]; ok {
			state.IsConflicted = true
		}
		if !state.IsSelected {
			if course, ok := FindCourse(courses, s.CourseCode); ok {
				state.IsDeactivated = !ValidateAddition(s, selected, course).Admit
			}
		}
		out = append(out, state)
	}
	return out
}

// SectionFilter narrows a section list. Empty sets match everything.
type SectionFilter struct {
	Days       []models.Weekday
	TimeRanges []string
	Teachers   []string
	Rooms      []string
	Types      []models.SectionType
	Courses    []string
}

// Empty reports whether the filter has no criteria.
func (f SectionFilter) Empty() bool {
	return len(f.Days) == 0 && len(f.TimeRanges) == 0 && len(f.Teachers) == 0 &&
		len(f.Rooms) == 0 && len(f.Types) == 0 && len(f.Courses) == 0
}

// FilterSections keeps sections matching every non-empty criterion of f.
func FilterSections(sections []models.EnrichedSection, f SectionFilter) []models.EnrichedSection {
	out := make([]models.EnrichedSection, 0, len(sections))
	for _, s := range sections {
		if len(f.Days) > 0 && !containsDay(f.Days, s.Day) {
			continue
		}
		if len(f.Types) > 0 && !containsType(f.Types, s.Type) {
			continue
		}
		if len(f.Courses) > 0 && !containsFold(f.Courses, s.CourseCode) {
			continue
		}
		if len(f.Teachers) > 0 && !containsFold(f.Teachers, s.Teacher) {
			continue
		}
		if len(f.Rooms) > 0 && !containsFold(f.Rooms, s.Room) {
			continue
		}
		if len(f.TimeRanges) > 0 && !inAnyRange(s.Time, f.TimeRanges) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// InTimeRange reports whether the start hour of t lies in the "HH:00-HH:00" range [start, end).
func InTimeRange(t, rng string) bool {
	start, end, ok := strings.Cut(rng, "-")
	if !ok {
		return false
	}
	hour := models.ParseHour(t)
	return hour >= models.ParseHour(start) && hour < models.ParseHour(end)
}

// SectionsForDay returns the sections meeting on day ordered by start time.
func SectionsForDay(sections []models.EnrichedSection, day models.Weekday) []models.EnrichedSection {
	out := make([]models.EnrichedSection, 0)
	for _, s := range sections {
		if s.Day == day {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartHour() < out[j].StartHour() })
	return out
}

func inAnyRange(t string, ranges []string) bool {
	for _, r := range ranges {
		if InTimeRange(t, r) {
			return true
		}
	}
	return false
}

func containsDay(days []models.Weekday, d models.Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

func containsType(types []models.SectionType, t models.SectionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
