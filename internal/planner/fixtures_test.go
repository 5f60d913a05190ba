package planner

import "github.com/noah-isme/schedule-builder-api/internal/models"

func section(id int64, code string, t models.SectionType, day models.Weekday, hour, duration int) models.EnrichedSection {
	return models.EnrichedSection{
		Section: models.Section{
			ID:       id,
			Type:     t,
			Day:      day,
			Time:     models.FormatHour(hour),
			Duration: duration,
			Teacher:  models.VacantTeacher,
			Room:     "101",
		},
		CourseCode: code,
		CourseName: code + " course",
	}
}

func course(code, formula string, sections ...models.EnrichedSection) models.Course {
	c := models.Course{Code: code, Name: code + " course", Credits: 5, Formula: formula}
	for _, s := range sections {
		c.Sections = append(c.Sections, s.Section)
	}
	return c
}

func scheduleWith(ids ...int64) models.Schedule {
	return models.Schedule{ID: "sch-1", Name: "Main", Selected: models.SelectionFromIDs(ids)}
}
