package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

const (
	conflictResolutionScore = 95
	optimizationScore       = 70
	optimizationCap         = 3
)

// Recommend derives ranked suggestions for the schedule: one completion suggestion per course
// with unused quota, at most one day-consolidation suggestion, and at most one conflict
// resolution. Results are ordered by score, highest first, keeping generation order on ties.
// A nil schedule yields no recommendations.
func Recommend(courses []models.Course, catalog []models.EnrichedSection, schedule *models.Schedule) []models.Recommendation {
	recs := make([]models.Recommendation, 0)
	if schedule == nil || len(courses) == 0 {
		return recs
	}
	selected := Selected(catalog, schedule.Selected)

	for _, course := range courses {
		if rec, ok := completionSuggestion(course, catalog, selected, schedule.Selected); ok {
			recs = append(recs, rec)
		}
	}

	if ids := consolidationCandidates(catalog, selected, schedule.Selected); len(ids) > 0 {
		recs = append(recs, models.Recommendation{
			Type:              models.RecommendationOptimalSchedule,
			Title:             "Optimize schedule",
			Description:       "Group classes onto days you already attend for a more compact week",
			SuggestedSections: ids,
			Score:             optimizationScore,
		})
	}

	if ids := conflictAlternatives(catalog, selected, schedule.Selected); len(ids) > 0 {
		recs = append(recs, models.Recommendation{
			Type:              models.RecommendationConflictResolution,
			Title:             "Resolve time conflicts",
			Description:       "Replace conflicting sections with alternatives at other times",
			SuggestedSections: ids,
			Score:             conflictResolutionScore,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs
}

// ApplyRecommendation returns the selection that results from accepting rec. Conflict
// resolutions first evict the second member of every overlapping selected pair; every type
// then adds its suggested sections. The input schedule is left untouched.
func ApplyRecommendation(rec models.Recommendation, schedule models.Schedule, catalog []models.EnrichedSection) models.Selection {
	next := schedule.Selected.Clone()
	if rec.Type == models.RecommendationConflictResolution {
		for _, pair := range FindOverlaps(Selected(catalog, next)) {
			delete(next, pair.Second.ID)
		}
	}
	for _, id := range rec.SuggestedSections {
		next[id] = true
	}
	return next
}

// CompletionScore maps progress towards a course quota onto 60..100.
func CompletionScore(counts models.Counts, limits models.Limits) int {
	total := limits.Total()
	if total == 0 {
		return 0
	}
	ratio := float64(counts.Total()) / float64(total)
	return int(math.Round(60 + ratio*40))
}

func completionSuggestion(course models.Course, catalog, selected []models.EnrichedSection, sel models.Selection) (models.Recommendation, bool) {
	limits := ParseFormula(course.Formula)
	counts := CountByType(selected, course.Code)

	var ids []int64
	for _, t := range models.SectionTypes {
		need := limits.Max(t) - counts.Of(t)
		if need <= 0 {
			continue
		}
		for _, s := range catalog {
			if need == 0 {
				break
			}
			if s.CourseCode != course.Code || s.Type != t || sel.Has(s.ID) {
				continue
			}
			ids = append(ids, s.ID)
			need--
		}
	}
	if len(ids) == 0 {
		return models.Recommendation{}, false
	}
	return models.Recommendation{
		Type:              models.RecommendationCompletion,
		Title:             fmt.Sprintf("Complete course %s", course.Code),
		Description:       "Add the missing sections to fill the course formula",
		SuggestedSections: ids,
		Score:             CompletionScore(counts, limits),
	}, true
}

// consolidationCandidates picks unselected sections that meet on a day the student already
// attends while the first selected section of the same course and type sits on another day.
// The pass is greedy over catalog order and stops at optimizationCap.
func consolidationCandidates(catalog, selected []models.EnrichedSection, sel models.Selection) []int64 {
	busy := make(map[models.Weekday]struct{})
	for _, s := range selected {
		busy[s.Day] = struct{}{}
	}

	var ids []int64
	for _, s := range catalog {
		if len(ids) == optimizationCap {
			break
		}
		if sel.Has(s.ID) {
			continue
		}
		sibling, ok := firstSibling(selected, s)
		if !ok || sibling.Day == s.Day {
			continue
		}
		if _, onBusyDay := busy[s.Day]; !onBusyDay {
			continue
		}
		ids = append(ids, s.ID)
	}
	return ids
}

// conflictAlternatives proposes, for each member of each overlapping pair, the first unselected
// section of the same course and type that does not meet at the member's day and hour. One id
// is emitted per member, so an alternative shared by several members repeats.
func conflictAlternatives(catalog, selected []models.EnrichedSection, sel models.Selection) []int64 {
	var ids []int64
	for _, pair := range FindOverlaps(selected) {
		for _, member := range []models.EnrichedSection{pair.First, pair.Second} {
			for _, alt := range catalog {
				if alt.CourseCode != member.CourseCode || alt.Type != member.Type || alt.ID == member.ID || sel.Has(alt.ID) {
					continue
				}
				if alt.Day == pair.Day && alt.StartHour() == member.StartHour() {
					continue
				}
				ids = append(ids, alt.ID)
				break
			}
		}
	}
	return ids
}

func firstSibling(selected []models.EnrichedSection, s models.EnrichedSection) (models.EnrichedSection, bool) {
	for _, candidate := range selected {
		if candidate.CourseCode == s.CourseCode && candidate.Type == s.Type {
			return candidate, true
		}
	}
	return models.EnrichedSection{}, false
}
