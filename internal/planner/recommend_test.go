package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

func TestRecommendNilScheduleIsEmpty(t *testing.T) {
	a := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	courses := []models.Course{course("CS101", "1/0/0", a)}
	assert.Empty(t, Recommend(courses, Enrich(courses), nil))
}

func TestRecommendCompletionFirstFit(t *testing.T) {
	l1 := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	l2 := section(2, "CS101", models.SectionLecture, models.Monday, 10, 1)
	lab1 := section(3, "CS101", models.SectionLab, models.Tuesday, 9, 2)
	lab2 := section(4, "CS101", models.SectionLab, models.Wednesday, 9, 2)
	p1 := section(5, "CS101", models.SectionPractice, models.Thursday, 9, 1)
	courses := []models.Course{course("CS101", "2/1/1", l1, l2, lab1, lab2, p1)}
	schedule := scheduleWith(1)

	recs := Recommend(courses, Enrich(courses), &schedule)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendationCompletion, recs[0].Type)
	assert.Equal(t, []int64{2, 3, 5}, recs[0].SuggestedSections)
	assert.Equal(t, 70, recs[0].Score)
}

func TestCompletionScore(t *testing.T) {
	assert.Equal(t, 60, CompletionScore(models.Counts{}, models.Limits{MaxLectures: 2, MaxLabs: 1, MaxPractices: 1}))
	assert.Equal(t, 100, CompletionScore(models.Counts{Lectures: 2}, models.Limits{MaxLectures: 1, MaxLabs: 1}))
	assert.Equal(t, 73, CompletionScore(models.Counts{Lectures: 1}, models.Limits{MaxLectures: 1, MaxLabs: 1, MaxPractices: 1}))
	assert.Equal(t, 0, CompletionScore(models.Counts{}, models.Limits{}))
}

func TestRecommendSortsStrictlyByScore(t *testing.T) {
	l1 := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	l2 := section(2, "CS101", models.SectionLecture, models.Tuesday, 9, 1)
	lab := section(3, "CS101", models.SectionLab, models.Wednesday, 14, 2)
	bl1 := section(4, "MA201", models.SectionLecture, models.Monday, 9, 1)
	bl2 := section(5, "MA201", models.SectionLecture, models.Thursday, 9, 1)
	courses := []models.Course{course("CS101", "1/1/0", l1, l2, lab), course("MA201", "1/0/0", bl1, bl2)}
	schedule := scheduleWith(1, 2, 4)

	recs := Recommend(courses, Enrich(courses), &schedule)
	require.Len(t, recs, 2)
	assert.Equal(t, models.RecommendationCompletion, recs[0].Type)
	assert.Equal(t, 100, recs[0].Score)
	assert.Equal(t, []int64{3}, recs[0].SuggestedSections)
	assert.Equal(t, models.RecommendationConflictResolution, recs[1].Type)
	assert.Equal(t, 95, recs[1].Score)
	assert.Equal(t, []int64{5}, recs[1].SuggestedSections)
}

func TestRecommendConflictResolutionRanksAboveCompletion(t *testing.T) {
	l1 := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	l2 := section(2, "CS101", models.SectionLecture, models.Friday, 11, 1)
	lab := section(3, "CS101", models.SectionLab, models.Wednesday, 14, 2)
	bl1 := section(4, "MA201", models.SectionLecture, models.Monday, 9, 1)
	courses := []models.Course{course("CS101", "1/1/0", l1, l2, lab), course("MA201", "1/0/0", bl1)}
	schedule := scheduleWith(1, 4)

	recs := Recommend(courses, Enrich(courses), &schedule)
	require.Len(t, recs, 2)
	assert.Equal(t, models.RecommendationConflictResolution, recs[0].Type)
	assert.Equal(t, []int64{2}, recs[0].SuggestedSections)
	assert.Equal(t, models.RecommendationCompletion, recs[1].Type)
	assert.Equal(t, 80, recs[1].Score)
}

func TestRecommendConsolidation(t *testing.T) {
	lab1 := section(1, "CS101", models.SectionLab, models.Monday, 9, 2)
	lab2 := section(2, "CS101", models.SectionLab, models.Wednesday, 9, 2)
	lab3 := section(3, "CS101", models.SectionLab, models.Tuesday, 14, 2)
	bl := section(4, "MA201", models.SectionLecture, models.Tuesday, 9, 1)
	courses := []models.Course{course("CS101", "0/2/0", lab1, lab2, lab3), course("MA201", "1/0/0", bl)}
	schedule := scheduleWith(1, 4)

	recs := Recommend(courses, Enrich(courses), &schedule)
	require.Len(t, recs, 2)
	assert.Equal(t, models.RecommendationCompletion, recs[0].Type)
	assert.Equal(t, []int64{2}, recs[0].SuggestedSections)
	assert.Equal(t, 80, recs[0].Score)
	assert.Equal(t, models.RecommendationOptimalSchedule, recs[1].Type)
	assert.Equal(t, []int64{3}, recs[1].SuggestedSections)
	assert.Equal(t, 70, recs[1].Score)
}

func TestRecommendConsolidationWhenQuotaIsFull(t *testing.T) {
	l1 := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	l2 := section(2, "CS101", models.SectionLecture, models.Tuesday, 11, 1)
	lab := section(3, "CS101", models.SectionLab, models.Tuesday, 9, 2)
	courses := []models.Course{course("CS101", "1/1/0", l1, l2, lab)}
	schedule := scheduleWith(1, 3)

	recs := Recommend(courses, Enrich(courses), &schedule)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendationOptimalSchedule, recs[0].Type)
	assert.Equal(t, []int64{2}, recs[0].SuggestedSections)
	assert.Equal(t, 70, recs[0].Score)
}

func TestRecommendConsolidationCappedAtThree(t *testing.T) {
	anchor := section(1, "CS101", models.SectionPractice, models.Monday, 8, 1)
	busy := section(2, "MA201", models.SectionLecture, models.Tuesday, 8, 1)
	p1 := section(3, "CS101", models.SectionPractice, models.Tuesday, 10, 1)
	p2 := section(4, "CS101", models.SectionPractice, models.Tuesday, 11, 1)
	p3 := section(5, "CS101", models.SectionPractice, models.Tuesday, 12, 1)
	p4 := section(6, "CS101", models.SectionPractice, models.Tuesday, 13, 1)
	courses := []models.Course{course("CS101", "0/0/1", anchor, p1, p2, p3, p4), course("MA201", "1/0/0", busy)}
	schedule := scheduleWith(1, 2)

	recs := Recommend(courses, Enrich(courses), &schedule)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendationOptimalSchedule, recs[0].Type)
	assert.Equal(t, []int64{3, 4, 5}, recs[0].SuggestedSections)
}

func TestRecommendConflictAlternativePerMember(t *testing.T) {
	a := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	b := section(2, "CS101", models.SectionLecture, models.Monday, 9, 1)
	c := section(3, "CS101", models.SectionLecture, models.Wednesday, 9, 1)
	courses := []models.Course{course("CS101", "2/0/0", a, b, c)}
	catalog := Enrich(courses)
	schedule := scheduleWith(1, 2)

	recs := Recommend(courses, catalog, &schedule)
	require.Len(t, recs, 1)
	assert.Equal(t, models.RecommendationConflictResolution, recs[0].Type)
	assert.Equal(t, []int64{3, 3}, recs[0].SuggestedSections)

	next := ApplyRecommendation(recs[0], schedule, catalog)
	assert.Equal(t, []int64{1, 3}, next.IDs())
}

func TestApplyConflictResolutionEvictsSecondMember(t *testing.T) {
	l1 := section(1, "CS101", models.SectionLecture, models.Monday, 9, 1)
	bl1 := section(4, "MA201", models.SectionLecture, models.Monday, 9, 1)
	bl2 := section(5, "MA201", models.SectionLecture, models.Thursday, 9, 1)
	courses := []models.Course{course("CS101", "1/0/0", l1), course("MA201", "1/0/0", bl1, bl2)}
	catalog := Enrich(courses)
	schedule := scheduleWith(1, 4)

	recs := Recommend(courses, catalog, &schedule)
	require.NotEmpty(t, recs)
	require.Equal(t, models.RecommendationConflictResolution, recs[0].Type)

	next := ApplyRecommendation(recs[0], schedule, catalog)
	assert.Equal(t, []int64{1, 5}, next.IDs())
	assert.Equal(t, []int64{1, 4}, schedule.Selected.IDs(), "input selection untouched")
	assert.Empty(t, AnalyzeConflicts(models.Schedule{Selected: next}, courses, catalog))
}

func TestApplyCompletionOnlyAdds(t *testing.T) {
	rec := models.Recommendation{Type: models.RecommendationCompletion, SuggestedSections: []int64{7, 8}}
	next := ApplyRecommendation(rec, scheduleWith(1), nil)
	assert.Equal(t, []int64{1, 7, 8}, next.IDs())
}
