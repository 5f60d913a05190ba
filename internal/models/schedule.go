package models

import (
	"sort"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Selection records which section ids are picked in a schedule. Absent keys are unselected.
type Selection map[int64]bool

// Has reports whether the section id is selected.
func (s Selection) Has(id int64) bool {
	return s[id]
}

// Clone returns an independent copy; a nil selection clones to an empty one.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for id, ok := range s {
		if ok {
			out[id] = true
		}
	}
	return out
}

// IDs returns the selected ids in ascending order.
func (s Selection) IDs() []int64 {
	ids := make([]int64, 0, len(s))
	for id, ok := range s {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SelectionFromIDs builds a selection from a list of section ids.
func SelectionFromIDs(ids []int64) Selection {
	out := make(Selection, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// Schedule is a named, independent selection of sections. Values are never mutated in place;
// use WithSelection to derive an updated copy.
type Schedule struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Selected  Selection `json:"selected_section_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSchedule creates an empty schedule stamped at now.
func NewSchedule(id, name string, now time.Time) Schedule {
	return Schedule{
		ID:        id,
		Name:      name,
		Selected:  Selection{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithSelection returns a copy carrying a copy of sel and a refreshed UpdatedAt.
func (s Schedule) WithSelection(sel Selection, now time.Time) Schedule {
	s.Selected = sel.Clone()
	s.UpdatedAt = now
	return s
}

// Copy returns a deep copy of the schedule.
func (s Schedule) Copy() Schedule {
	s.Selected = s.Selected.Clone()
	return s
}

// Workspace is everything one owner keeps between requests: the courses they are planning
// with and their schedules.
type Workspace struct {
	OwnerID          string     `json:"owner_id"`
	CourseCodes      []string   `json:"course_codes"`
	Schedules        []Schedule `json:"schedules"`
	ActiveScheduleID string     `json:"active_schedule_id"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// WorkspaceRecord is the persisted workspace header row.
type WorkspaceRecord struct {
	OwnerID          string         `db:"owner_id"`
	CourseCodes      types.JSONText `db:"course_codes"`
	ActiveScheduleID string         `db:"active_schedule_id"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// ScheduleRecord is the persisted form of a schedule.
type ScheduleRecord struct {
	ID         string         `db:"id"`
	OwnerID    string         `db:"owner_id"`
	Position   int            `db:"position"`
	Name       string         `db:"name"`
	SectionIDs types.JSONText `db:"section_ids"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}
