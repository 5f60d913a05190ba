package planner

import "github.com/noah-isme/schedule-builder-api/internal/models"

// Enrich flattens course sections into one addressable list tagged with course identity.
// Course and section order are preserved.
func Enrich(courses []models.Course) []models.EnrichedSection {
	total := 0
	for _, c := range courses {
		total += len(c.Sections)
	}
	out := make([]models.EnrichedSection, 0, total)
	for _, c := range courses {
		for _, s := range c.Sections {
			out = append(out, models.EnrichedSection{Section: s, CourseCode: c.Code, CourseName: c.Name})
		}
	}
	return out
}

// Selected resolves a selection against the catalog. Ids with no catalog entry are dropped.
func Selected(catalog []models.EnrichedSection, sel models.Selection) []models.EnrichedSection {
	out := make([]models.EnrichedSection, 0, len(sel))
	for _, s := range catalog {
		if sel.Has(s.ID) {
			out = append(out, s)
		}
	}
	return out
}

// FindSection looks up a section by id.
func FindSection(catalog []models.EnrichedSection, id int64) (models.EnrichedSection, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return models.EnrichedSection{}, false
}

// FindCourse looks up a course by its normalized code.
func FindCourse(courses []models.Course, code string) (models.Course, bool) {
	for _, c := range courses {
		if c.Code == code {
			return c, true
		}
	}
	return models.Course{}, false
}
