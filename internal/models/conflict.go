package models

// ConflictType classifies a detected schedule problem.
type ConflictType string

const (
	ConflictTime             ConflictType = "time_conflict"
	ConflictFormulaViolation ConflictType = "formula_violation"
	// ConflictCreditOverload is reserved; no analysis currently emits it.
	ConflictCreditOverload ConflictType = "credit_overload"
)

// ConflictSeverity ranks how urgently a conflict needs attention.
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// ConflictInfo describes one problem in a schedule.
type ConflictInfo struct {
	Type             ConflictType     `json:"type"`
	Message          string           `json:"message"`
	AffectedSections []int64          `json:"affected_sections"`
	Severity         ConflictSeverity `json:"severity"`
}

// CourseAnalysis reports selection progress for one course.
type CourseAnalysis struct {
	Course           CourseSummary  `json:"course"`
	Formula          string         `json:"formula"`
	CurrentSelection Counts         `json:"current_selection"`
	Limits           Limits         `json:"limits"`
	Violations       []ConflictInfo `json:"violations"`
}

// ScheduleStats summarises a schedule for list and comparison views.
type ScheduleStats struct {
	TotalSections         int `json:"total_sections"`
	TotalConflicts        int `json:"total_conflicts"`
	HighPriorityConflicts int `json:"high_priority_conflicts"`
	UniqueCourses         int `json:"unique_courses"`
	TotalCredits          int `json:"total_credits"`
	BusyDays              int `json:"busy_days"`
	WeeklyHours           int `json:"weekly_hours"`
}

// RecommendationType names the strategy that produced a recommendation.
type RecommendationType string

const (
	RecommendationConflictResolution RecommendationType = "conflict_resolution"
	RecommendationCompletion         RecommendationType = "completion_suggestion"
	RecommendationOptimalSchedule    RecommendationType = "optimal_schedule"
)

// Valid reports whether the type is a known strategy.
func (t RecommendationType) Valid() bool {
	switch t {
	case RecommendationConflictResolution, RecommendationCompletion, RecommendationOptimalSchedule:
		return true
	}
	return false
}

// Recommendation is a scored suggestion to add or swap sections.
type Recommendation struct {
	Type              RecommendationType `json:"type" validate:"required,oneof=conflict_resolution completion_suggestion optimal_schedule"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	SuggestedSections []int64            `json:"suggested_sections" validate:"required,min=1"`
	Score             int                `json:"score" validate:"min=0,max=100"`
}
