package planner

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides schedule id generation.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Store is the ordered collection of a student's schedules plus the active schedule id.
// Schedules are replaced on write, never mutated in place, and every accessor hands out copies.
// A Store is not safe for concurrent use; callers serialize writers per owner.
type Store struct {
	schedules []models.Schedule
	activeID  string
	now       func() time.Time
	newID     func() string
}

// NewStore seeds a store from persisted schedules.
func NewStore(schedules []models.Schedule, activeID string, opts ...StoreOption) *Store {
	s := &Store{
		schedules: make([]models.Schedule, 0, len(schedules)),
		activeID:  activeID,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, sch := range schedules {
		s.schedules = append(s.schedules, sch.Copy())
	}
	return s
}

// Schedules returns copies of all schedules in store order.
func (s *Store) Schedules() []models.Schedule {
	out := make([]models.Schedule, 0, len(s.schedules))
	for _, sch := range s.schedules {
		out = append(out, sch.Copy())
	}
	return out
}

// ActiveID returns the stored active schedule id, which may be empty.
func (s *Store) ActiveID() string {
	return s.activeID
}

// Active resolves the active schedule, falling back to the first schedule when the stored id
// does not match any schedule.
func (s *Store) Active() (models.Schedule, bool) {
	if i := s.indexOf(s.activeID); i >= 0 {
		return s.schedules[i].Copy(), true
	}
	if len(s.schedules) > 0 {
		return s.schedules[0].Copy(), true
	}
	return models.Schedule{}, false
}

// Find returns a copy of the schedule with the given id.
func (s *Store) Find(id string) (models.Schedule, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.schedules[i].Copy(), true
	}
	return models.Schedule{}, false
}

// Create appends an empty schedule and makes it active.
func (s *Store) Create(name string) models.Schedule {
	sch := models.NewSchedule(s.newID(), strings.TrimSpace(name), s.now())
	s.schedules = append(s.schedules, sch)
	s.activeID = sch.ID
	return sch.Copy()
}

// SetActive switches the active schedule. Unknown ids leave the store unchanged.
func (s *Store) SetActive(id string) bool {
	if s.indexOf(id) < 0 {
		return false
	}
	s.activeID = id
	return true
}

// UpdateActive replaces the active schedule's selection and bumps UpdatedAt.
// It is a no-op when the stored active id matches no schedule.
func (s *Store) UpdateActive(sel models.Selection) (models.Schedule, bool) {
	i := s.indexOf(s.activeID)
	if i < 0 {
		return models.Schedule{}, false
	}
	s.schedules[i] = s.schedules[i].WithSelection(sel, s.now())
	return s.schedules[i].Copy(), true
}

// Delete removes a schedule. Deleting the active schedule activates the first remaining one,
// or clears the active id when none remain.
func (s *Store) Delete(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	wasActive := s.activeID == id
	s.schedules = append(s.schedules[:i:i], s.schedules[i+1:]...)
	if wasActive {
		s.activeID = ""
		if len(s.schedules) > 0 {
			s.activeID = s.schedules[0].ID
		}
	}
	return true
}

// Duplicate appends a new schedule carrying a copy of the source's selection. The duplicate
// is not activated.
func (s *Store) Duplicate(id, name string) (models.Schedule, bool) {
	src, ok := s.Find(id)
	if !ok {
		return models.Schedule{}, false
	}
	dup := models.NewSchedule(s.newID(), strings.TrimSpace(name), s.now())
	dup.Selected = src.Selected.Clone()
	s.schedules = append(s.schedules, dup)
	return dup.Copy(), true
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, sch := range s.schedules {
		if sch.ID == id {
			return i
		}
	}
	return -1
}
