package dto

import (
	"github.com/noah-isme/schedule-builder-api/internal/models"
	"github.com/noah-isme/schedule-builder-api/internal/planner"
)

// SetCoursesRequest replaces the list of courses the student is planning with.
type SetCoursesRequest struct {
	Codes []string `json:"codes" validate:"max=50,dive,required,max=32"`
}

// CreateScheduleRequest names a new schedule.
type CreateScheduleRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ActivateScheduleRequest switches the active schedule.
type ActivateScheduleRequest struct {
	ID string `json:"id" validate:"required"`
}

// DuplicateScheduleRequest names the copy; empty names derive from the source.
type DuplicateScheduleRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// SetSelectionRequest overwrites the active schedule's selection without validation.
type SetSelectionRequest struct {
	SectionIDs []int64 `json:"section_ids" validate:"max=500,dive,min=1"`
}

// ToggleSectionRequest adds or removes a section. Confirm accepts an overlap warning.
type ToggleSectionRequest struct {
	SectionID int64 `json:"section_id" validate:"required,min=1"`
	Confirm   bool  `json:"confirm"`
}

// ToggleSectionResponse reports what the toggle did.
type ToggleSectionResponse struct {
	Action   string           `json:"action"`
	Schedule models.Schedule  `json:"schedule"`
	Decision planner.Decision `json:"decision"`
}

// ApplyRecommendationRequest accepts a recommendation previously returned by the snapshot.
type ApplyRecommendationRequest struct {
	Recommendation models.Recommendation `json:"recommendation"`
}

// SectionFilterQuery narrows the sections returned with a snapshot.
type SectionFilterQuery struct {
	Days       []string `form:"day"`
	TimeRanges []string `form:"time"`
	Teachers   []string `form:"teacher"`
	Rooms      []string `form:"room"`
	Types      []string `form:"type"`
	Courses    []string `form:"course"`
}

// PlannerSnapshot is the read-only view recomputed after every change to the active schedule.
type PlannerSnapshot struct {
	Schedule        models.Schedule         `json:"schedule"`
	Courses         []models.CourseSummary  `json:"courses"`
	Sections        []planner.SectionState  `json:"sections"`
	Conflicts       []models.ConflictInfo   `json:"conflicts"`
	Analysis        []models.CourseAnalysis `json:"analysis"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Stats           models.ScheduleStats    `json:"stats"`
}

// ScheduleComparisonSide is one schedule in a comparison.
type ScheduleComparisonSide struct {
	Schedule models.Schedule      `json:"schedule"`
	Stats    models.ScheduleStats `json:"stats"`
}

// ScheduleComparison lines two schedules up side by side.
type ScheduleComparison struct {
	Left      ScheduleComparisonSide `json:"left"`
	Right     ScheduleComparisonSide `json:"right"`
	Shared    []int64                `json:"shared_section_ids"`
	OnlyLeft  []int64                `json:"only_left_section_ids"`
	OnlyRight []int64                `json:"only_right_section_ids"`
}

// ExportQuery selects the export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=text csv ical json pdf"`
}
