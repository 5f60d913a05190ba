package planner

import (
	"fmt"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// RejectReason explains why a section may not be added.
type RejectReason string

const (
	RejectQuotaExceeded RejectReason = "quota_exceeded"
	RejectNotAdjacent   RejectReason = "not_adjacent"
)

// Decision is the outcome of validating an attempt to add a section.
// Overlaps is a soft warning: the caller may still add the section once the user confirms.
type Decision struct {
	Admit    bool                     `json:"admit"`
	Reason   RejectReason             `json:"reason,omitempty"`
	Message  string                   `json:"message,omitempty"`
	Overlaps []models.EnrichedSection `json:"overlaps,omitempty"`
}

// NeedsConfirmation is true when the section is admissible but collides with the selection.
func (d Decision) NeedsConfirmation() bool {
	return d.Admit && len(d.Overlaps) > 0
}

// ValidateAddition decides whether candidate may join selected. Checks run in order and the
// first two are hard stops: the per-type quota of course, then lecture adjacency. Time overlap
// with any selected section only produces a warning.
func ValidateAddition(candidate models.EnrichedSection, selected []models.EnrichedSection, course models.Course) Decision {
	limits := ParseFormula(course.Formula)
	counts := CountByType(selected, course.Code)
	if limit := limits.Max(candidate.Type); counts.Of(candidate.Type) >= limit {
		return Decision{
			Reason:  RejectQuotaExceeded,
			Message: fmt.Sprintf("%s limit (%d) reached for course %s", typeNoun(candidate.Type), limit, course.Code),
		}
	}

	if !LectureAdmissible(candidate, selected) {
		return Decision{
			Reason:  RejectNotAdjacent,
			Message: fmt.Sprintf("lecture %s %s is not adjacent to a selected lecture of %s", candidate.Day, candidate.Time, candidate.CourseCode),
		}
	}

	return Decision{Admit: true, Overlaps: OverlappingWith(candidate, selected)}
}

// LectureAdmissible applies the adjacency rule: once a course has a selected lecture, further
// lectures must start where a selected lecture ends or end where one starts, on the same day.
// Labs and practices are exempt.
func LectureAdmissible(candidate models.EnrichedSection, selected []models.EnrichedSection) bool {
	if candidate.Type != models.SectionLecture {
		return true
	}
	lectures := lecturesOf(selected, candidate.CourseCode)
	if len(lectures) == 0 {
		return true
	}
	for _, l := range lectures {
		if adjacent(l, candidate) {
			return true
		}
	}
	return false
}

// AdjacentLectureOptions lists unselected lectures of the course that touch a selected lecture.
// With no lecture selected every lecture of the course is an option.
func AdjacentLectureOptions(courseCode string, selected, catalog []models.EnrichedSection) []models.EnrichedSection {
	chosen := lecturesOf(selected, courseCode)
	all := lecturesOf(catalog, courseCode)
	if len(chosen) == 0 {
		return all
	}

	chosenIDs := make(map[int64]struct{}, len(chosen))
	for _, l := range chosen {
		chosenIDs[l.ID] = struct{}{}
	}

	var options []models.EnrichedSection
	added := make(map[int64]struct{})
	for _, c := range chosen {
		for _, l := range all {
			if _, ok := chosenIDs[l.ID]; ok {
				continue
			}
			if _, ok := added[l.ID]; ok {
				continue
			}
			if adjacent(c, l) {
				options = append(options, l)
				added[l.ID] = struct{}{}
			}
		}
	}
	return options
}

func adjacent(a, b models.EnrichedSection) bool {
	if a.Day != b.Day {
		return false
	}
	return a.EndHour() == b.StartHour() || b.EndHour() == a.StartHour()
}

func lecturesOf(sections []models.EnrichedSection, courseCode string) []models.EnrichedSection {
	var out []models.EnrichedSection
	for _, s := range sections {
		if s.CourseCode == courseCode && s.Type == models.SectionLecture {
			out = append(out, s)
		}
	}
	return out
}

func typeNoun(t models.SectionType) string {
	switch t {
	case models.SectionLecture:
		return "lecture"
	case models.SectionLab:
		return "lab"
	case models.SectionPractice:
		return "practice"
	}
	return string(t)
}
