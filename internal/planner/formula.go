// Package planner holds the schedule construction engine: quota parsing, overlap detection,
// selection validation, conflict analysis and recommendations. Every function here is pure and
// operates on in-memory catalog data; callers own persistence and transport.
package planner

import (
	"strconv"
	"strings"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// ParseFormula reads an "L/Lab/P" quota string. Missing, negative or non-numeric segments
// resolve to zero and segments past the third are ignored.
func ParseFormula(formula string) models.Limits {
	var quotas [3]int
	for i, part := range strings.SplitN(formula, "/", 4) {
		if i >= len(quotas) {
			break
		}
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			continue
		}
		quotas[i] = n
	}
	return models.Limits{MaxLectures: quotas[0], MaxLabs: quotas[1], MaxPractices: quotas[2]}
}

// CountByType tallies sections of the given course by type.
func CountByType(sections []models.EnrichedSection, courseCode string) models.Counts {
	var counts models.Counts
	for _, s := range sections {
		if s.CourseCode != courseCode {
			continue
		}
		switch s.Type {
		case models.SectionLecture:
			counts.Lectures++
		case models.SectionLab:
			counts.Labs++
		case models.SectionPractice:
			counts.Practices++
		}
	}
	return counts
}
