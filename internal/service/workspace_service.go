package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	"github.com/noah-isme/schedule-builder-api/internal/planner"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

const (
	defaultScheduleName = "Schedule 1"
	snapshotCachePrefix = "snapshot:"
)

type workspaceRepository interface {
	Load(ctx context.Context, ownerID string) (*models.Workspace, error)
	Save(ctx context.Context, ws *models.Workspace) error
}

type courseCatalog interface {
	CoursesByCodes(ctx context.Context, codes []string) ([]models.Course, error)
}

// WorkspaceConfig tunes workspace behaviour.
type WorkspaceConfig struct {
	SnapshotTTL time.Duration
}

// WorkspaceService runs the planner for one owner at a time. Every operation loads the
// workspace, applies the change through a planner.Store under the owner's lock and persists the
// result before returning.
type WorkspaceService struct {
	repo      workspaceRepository
	catalog   courseCatalog
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    WorkspaceConfig
	locks     *ownerLocks
	now       func() time.Time
	newID     func() string
}

// NewWorkspaceService constructs a WorkspaceService.
func NewWorkspaceService(repo workspaceRepository, catalog courseCatalog, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config WorkspaceConfig) *WorkspaceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkspaceService{
		repo:      repo,
		catalog:   catalog,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
		locks:     newOwnerLocks(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// workspaceTx is the state handed to a mutation: the loaded workspace and a store seeded from it.
type workspaceTx struct {
	ws    *models.Workspace
	store *planner.Store
}

// mutate runs fn against the owner's workspace under the owner's lock. The workspace is saved
// when fn reports a change, and also when it had to be created or given a default schedule.
func (s *WorkspaceService) mutate(ctx context.Context, ownerID string, fn func(tx *workspaceTx) (bool, error)) (*models.Workspace, error) {
	release := s.locks.Lock(ownerID)
	defer release()

	ws, dirty, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	tx := &workspaceTx{
		ws:    ws,
		store: planner.NewStore(ws.Schedules, ws.ActiveScheduleID, planner.WithClock(s.now), planner.WithIDGenerator(s.newID)),
	}
	repaired := repairActive(tx.store)

	changed, err := fn(tx)
	if err != nil {
		return nil, err
	}
	changed = changed || repaired
	if len(tx.store.Schedules()) == 0 {
		tx.store.Create(defaultScheduleName)
		changed = true
	}
	if repairActive(tx.store) {
		changed = true
	}

	ws.Schedules = tx.store.Schedules()
	ws.ActiveScheduleID = tx.store.ActiveID()
	if changed || dirty {
		if err := s.repo.Save(ctx, ws); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save workspace")
		}
	}
	return ws, nil
}

// repairActive points a stale active id at the schedule Active falls back to.
func repairActive(store *planner.Store) bool {
	if _, ok := store.Find(store.ActiveID()); ok {
		return false
	}
	active, ok := store.Active()
	if !ok {
		return false
	}
	return store.SetActive(active.ID)
}

func (s *WorkspaceService) load(ctx context.Context, ownerID string) (*models.Workspace, bool, error) {
	if ownerID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrUnauthorized, "missing workspace owner")
	}
	ws, err := s.repo.Load(ctx, ownerID)
	if err == nil {
		if ws.CourseCodes == nil {
			ws.CourseCodes = []string{}
		}
		return ws, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workspace")
	}
	s.logger.Info("creating workspace", zap.String("owner_id", ownerID))
	return &models.Workspace{OwnerID: ownerID, CourseCodes: []string{}, Schedules: []models.Schedule{}}, true, nil
}

// Get returns the owner's workspace, creating it on first use.
func (s *WorkspaceService) Get(ctx context.Context, ownerID string) (*models.Workspace, error) {
	return s.mutate(ctx, ownerID, func(*workspaceTx) (bool, error) { return false, nil })
}

// SetCourses replaces the planned courses. Every code must exist in the catalog.
func (s *WorkspaceService) SetCourses(ctx context.Context, ownerID string, req dto.SetCoursesRequest) (*models.Workspace, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course list")
	}
	codes := NormalizeCodes(req.Codes)
	courses, err := s.catalog.CoursesByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	if len(courses) != len(codes) {
		known := make(map[string]struct{}, len(courses))
		for _, c := range courses {
			known[c.Code] = struct{}{}
		}
		var missing []string
		for _, code := range codes {
			if _, ok := known[code]; !ok {
				missing = append(missing, code)
			}
		}
		return nil, appErrors.WithDetails(appErrors.ErrNotFound, "unknown course codes: "+strings.Join(missing, ", "), missing)
	}

	return s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		tx.ws.CourseCodes = codes
		return true, nil
	})
}

// CreateSchedule adds an empty schedule and activates it.
func (s *WorkspaceService) CreateSchedule(ctx context.Context, ownerID string, req dto.CreateScheduleRequest) (*models.Schedule, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	var created models.Schedule
	_, err := s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		created = tx.store.Create(req.Name)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ActivateSchedule makes the schedule with id the active one.
func (s *WorkspaceService) ActivateSchedule(ctx context.Context, ownerID string, req dto.ActivateScheduleRequest) (*models.Workspace, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule id")
	}
	return s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		if !tx.store.SetActive(req.ID) {
			return false, scheduleNotFound(req.ID)
		}
		return true, nil
	})
}

// DeleteSchedule removes a schedule. Removing the last one leaves a fresh default schedule.
func (s *WorkspaceService) DeleteSchedule(ctx context.Context, ownerID, scheduleID string) (*models.Workspace, error) {
	return s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		if !tx.store.Delete(scheduleID) {
			return false, scheduleNotFound(scheduleID)
		}
		return true, nil
	})
}

// DuplicateSchedule copies a schedule's selection into a new, inactive schedule.
func (s *WorkspaceService) DuplicateSchedule(ctx context.Context, ownerID, scheduleID string, req dto.DuplicateScheduleRequest) (*models.Schedule, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	var dup models.Schedule
	_, err := s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		src, ok := tx.store.Find(scheduleID)
		if !ok {
			return false, scheduleNotFound(scheduleID)
		}
		name := req.Name
		if name == "" {
			name = src.Name + " (copy)"
		}
		dup, _ = tx.store.Duplicate(scheduleID, name)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &dup, nil
}

// SetSelection overwrites the active schedule's selection as-is. Quota and overlap problems in
// the result are reported by the snapshot's conflict analysis.
func (s *WorkspaceService) SetSelection(ctx context.Context, ownerID string, req dto.SetSelectionRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}
	return s.updateActive(ctx, ownerID, func(models.Schedule) models.Selection {
		return models.SelectionFromIDs(req.SectionIDs)
	})
}

// ResetSelection clears the active schedule.
func (s *WorkspaceService) ResetSelection(ctx context.Context, ownerID string) (*models.Schedule, error) {
	return s.updateActive(ctx, ownerID, func(models.Schedule) models.Selection {
		return models.Selection{}
	})
}

func (s *WorkspaceService) updateActive(ctx context.Context, ownerID string, next func(models.Schedule) models.Selection) (*models.Schedule, error) {
	var updated models.Schedule
	_, err := s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		active, ok := tx.store.Active()
		if !ok {
			tx.store.Create(defaultScheduleName)
			active, _ = tx.store.Active()
		}
		updated, _ = tx.store.UpdateActive(next(active))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ToggleSection removes a selected section or tries to add an unselected one. Additions go
// through the selection validator: quota and adjacency failures are refused with
// SELECTION_REJECTED, and an overlap is refused with OVERLAP_WARNING unless req.Confirm is set.
func (s *WorkspaceService) ToggleSection(ctx context.Context, ownerID string, req dto.ToggleSectionRequest) (*dto.ToggleSectionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid toggle payload")
	}

	var result dto.ToggleSectionResponse
	_, err := s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		active, ok := tx.store.Active()
		if !ok {
			tx.store.Create(defaultScheduleName)
			active, _ = tx.store.Active()
		}

		if active.Selected.Has(req.SectionID) {
			next := active.Selected.Clone()
			delete(next, req.SectionID)
			result.Schedule, _ = tx.store.UpdateActive(next)
			result.Action = ToggleRemoved
			result.Decision = planner.Decision{Admit: true}
			return true, nil
		}

		courses, err := s.catalog.CoursesByCodes(ctx, tx.ws.CourseCodes)
		if err != nil {
			return false, err
		}
		catalog := planner.Enrich(courses)
		section, ok := planner.FindSection(catalog, req.SectionID)
		if !ok {
			return false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %d is not offered by the planned courses", req.SectionID))
		}
		course, _ := planner.FindCourse(courses, section.CourseCode)

		decision := planner.ValidateAddition(section, planner.Selected(catalog, active.Selected), course)
		if !decision.Admit {
			s.metrics.RecordToggle(ToggleRejected)
			return false, appErrors.WithDetails(appErrors.ErrSelectionRejected, decision.Message, decision)
		}
		if decision.NeedsConfirmation() && !req.Confirm {
			s.metrics.RecordToggle(ToggleConfirm)
			return false, appErrors.WithDetails(appErrors.ErrOverlapWarning, overlapMessage(section, decision.Overlaps), decision)
		}

		next := active.Selected.Clone()
		next[section.ID] = true
		result.Schedule, _ = tx.store.UpdateActive(next)
		result.Decision = decision
		result.Action = ToggleAdded
		if decision.NeedsConfirmation() {
			result.Action = ToggleOverruled
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordToggle(result.Action)
	return &result, nil
}

// plannerView is the part of a snapshot that depends only on the catalog and the selection.
type plannerView struct {
	Courses         []models.CourseSummary  `json:"courses"`
	Sections        []planner.SectionState  `json:"sections"`
	Conflicts       []models.ConflictInfo   `json:"conflicts"`
	Analysis        []models.CourseAnalysis `json:"analysis"`
	Recommendations []models.Recommendation `json:"recommendations"`
	Stats           models.ScheduleStats    `json:"stats"`
}

// Snapshot recomputes every derived view of the active schedule. Results are cached under a
// digest of the planned courses and the selection, so any change to either misses the cache.
func (s *WorkspaceService) Snapshot(ctx context.Context, ownerID string, query dto.SectionFilterQuery) (*dto.PlannerSnapshot, bool, error) {
	filter, err := toSectionFilter(query)
	if err != nil {
		return nil, false, err
	}

	ws, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, false, err
	}
	active := activeSchedule(ws)
	courses, err := s.catalog.CoursesByCodes(ctx, ws.CourseCodes)
	if err != nil {
		return nil, false, err
	}

	var view plannerView
	key, keyErr := DigestKey(snapshotCachePrefix, courses, active.Selected.IDs())
	hit := keyErr == nil && s.cache.Get(ctx, key, &view)
	if !hit {
		view = s.computeView(courses, active)
		if keyErr == nil {
			s.cache.Set(ctx, key, view, s.config.SnapshotTTL)
		}
	}

	sections := view.Sections
	if !filter.Empty() {
		sections = filterStates(view.Sections, filter)
	}
	return &dto.PlannerSnapshot{
		Schedule:        active,
		Courses:         view.Courses,
		Sections:        sections,
		Conflicts:       view.Conflicts,
		Analysis:        view.Analysis,
		Recommendations: view.Recommendations,
		Stats:           view.Stats,
	}, hit, nil
}

func (s *WorkspaceService) computeView(courses []models.Course, active models.Schedule) plannerView {
	start := time.Now()
	defer func() { s.metrics.ObserveSnapshotBuild(time.Since(start)) }()

	catalog := planner.Enrich(courses)
	conflicts := planner.AnalyzeConflicts(active, courses, catalog)
	summaries := make([]models.CourseSummary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, models.CourseSummary{Code: c.Code, Name: c.Name, Credits: c.Credits})
	}
	return plannerView{
		Courses:         summaries,
		Sections:        planner.SectionStates(courses, catalog, active),
		Conflicts:       conflicts,
		Analysis:        planner.AnalyzeCourses(courses, catalog, active, conflicts),
		Recommendations: planner.Recommend(courses, catalog, &active),
		Stats:           planner.Stats(active, courses, catalog, conflicts),
	}
}

// ApplyRecommendation accepts a recommendation against the active schedule. Suggested sections
// must belong to the planned courses.
func (s *WorkspaceService) ApplyRecommendation(ctx context.Context, ownerID string, req dto.ApplyRecommendationRequest) (*models.Schedule, error) {
	rec := req.Recommendation
	if err := s.validator.Struct(rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recommendation")
	}

	var updated models.Schedule
	_, err := s.mutate(ctx, ownerID, func(tx *workspaceTx) (bool, error) {
		courses, err := s.catalog.CoursesByCodes(ctx, tx.ws.CourseCodes)
		if err != nil {
			return false, err
		}
		catalog := planner.Enrich(courses)
		for _, id := range rec.SuggestedSections {
			if _, ok := planner.FindSection(catalog, id); !ok {
				return false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section %d is not offered by the planned courses", id))
			}
		}
		active, ok := tx.store.Active()
		if !ok {
			return false, appErrors.ErrNoActiveSchedule
		}
		updated, _ = tx.store.UpdateActive(planner.ApplyRecommendation(rec, active, catalog))
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRecommendationApplied(rec.Type)
	s.logger.Debug("recommendation applied", zap.String("owner_id", ownerID), zap.String("type", string(rec.Type)))
	return &updated, nil
}

// AdjacentLectures lists the lectures of a planned course that may join the active schedule.
func (s *WorkspaceService) AdjacentLectures(ctx context.Context, ownerID, code string) ([]models.EnrichedSection, error) {
	code = NormalizeCode(code)
	ws, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	courses, err := s.catalog.CoursesByCodes(ctx, ws.CourseCodes)
	if err != nil {
		return nil, err
	}
	if _, ok := planner.FindCourse(courses, code); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s is not planned", code))
	}
	catalog := planner.Enrich(courses)
	options := planner.AdjacentLectureOptions(code, planner.Selected(catalog, activeSchedule(ws).Selected), catalog)
	if options == nil {
		options = []models.EnrichedSection{}
	}
	return options, nil
}

// Compare lines up two schedules of the owner.
func (s *WorkspaceService) Compare(ctx context.Context, ownerID, leftID, rightID string) (*dto.ScheduleComparison, error) {
	ws, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	left, ok := findSchedule(ws, leftID)
	if !ok {
		return nil, scheduleNotFound(leftID)
	}
	right, ok := findSchedule(ws, rightID)
	if !ok {
		return nil, scheduleNotFound(rightID)
	}
	courses, err := s.catalog.CoursesByCodes(ctx, ws.CourseCodes)
	if err != nil {
		return nil, err
	}
	catalog := planner.Enrich(courses)

	side := func(sch models.Schedule) dto.ScheduleComparisonSide {
		conflicts := planner.AnalyzeConflicts(sch, courses, catalog)
		return dto.ScheduleComparisonSide{Schedule: sch, Stats: planner.Stats(sch, courses, catalog, conflicts)}
	}
	cmp := &dto.ScheduleComparison{
		Left:      side(left),
		Right:     side(right),
		Shared:    []int64{},
		OnlyLeft:  []int64{},
		OnlyRight: []int64{},
	}
	for _, id := range left.Selected.IDs() {
		if right.Selected.Has(id) {
			cmp.Shared = append(cmp.Shared, id)
		} else {
			cmp.OnlyLeft = append(cmp.OnlyLeft, id)
		}
	}
	for _, id := range right.Selected.IDs() {
		if !left.Selected.Has(id) {
			cmp.OnlyRight = append(cmp.OnlyRight, id)
		}
	}
	return cmp, nil
}

// ScheduleSections returns a schedule with its selected sections resolved against the planned
// courses, in day and time order.
func (s *WorkspaceService) ScheduleSections(ctx context.Context, ownerID, scheduleID string) (*models.Schedule, []models.EnrichedSection, error) {
	ws, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}
	sch, ok := findSchedule(ws, scheduleID)
	if !ok {
		return nil, nil, scheduleNotFound(scheduleID)
	}
	courses, err := s.catalog.CoursesByCodes(ctx, ws.CourseCodes)
	if err != nil {
		return nil, nil, err
	}
	selected := planner.Selected(planner.Enrich(courses), sch.Selected)
	ordered := make([]models.EnrichedSection, 0, len(selected))
	for _, day := range models.Week {
		ordered = append(ordered, planner.SectionsForDay(selected, day)...)
	}
	return &sch, ordered, nil
}

func activeSchedule(ws *models.Workspace) models.Schedule {
	if sch, ok := findSchedule(ws, ws.ActiveScheduleID); ok {
		return sch
	}
	if len(ws.Schedules) > 0 {
		return ws.Schedules[0].Copy()
	}
	return models.Schedule{Selected: models.Selection{}}
}

func findSchedule(ws *models.Workspace, id string) (models.Schedule, bool) {
	for _, sch := range ws.Schedules {
		if sch.ID == id {
			return sch.Copy(), true
		}
	}
	return models.Schedule{}, false
}

func scheduleNotFound(id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("schedule %s not found", id))
}

func overlapMessage(section models.EnrichedSection, overlaps []models.EnrichedSection) string {
	codes := make([]string, 0, len(overlaps))
	for _, o := range overlaps {
		codes = append(codes, fmt.Sprintf("%s %s %s", o.CourseCode, o.Day.Label(), o.Time))
	}
	return fmt.Sprintf("%s %s %s overlaps %s; resend with confirm to add anyway",
		section.CourseCode, section.Day.Label(), section.Time, strings.Join(codes, ", "))
}

func toSectionFilter(q dto.SectionFilterQuery) (planner.SectionFilter, error) {
	f := planner.SectionFilter{
		TimeRanges: q.TimeRanges,
		Teachers:   q.Teachers,
		Rooms:      q.Rooms,
		Courses:    NormalizeCodes(q.Courses),
	}
	for _, raw := range q.Days {
		day, err := models.ParseWeekday(raw)
		if err != nil {
			return f, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		f.Days = append(f.Days, day)
	}
	for _, raw := range q.Types {
		t, err := models.ParseSectionType(raw)
		if err != nil {
			return f, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		f.Types = append(f.Types, t)
	}
	for _, rng := range q.TimeRanges {
		if start, end, ok := strings.Cut(rng, "-"); !ok || !slotTimePattern.MatchString(start) || !slotTimePattern.MatchString(end) {
			return f, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("time range %q must look like 09:00-12:00", rng))
		}
	}
	return f, nil
}

func filterStates(states []planner.SectionState, f planner.SectionFilter) []planner.SectionState {
	enriched := make([]models.EnrichedSection, 0, len(states))
	for _, st := range states {
		enriched = append(enriched, st.EnrichedSection)
	}
	keep := make(map[int64]struct{})
	for _, s := range planner.FilterSections(enriched, f) {
		keep[s.ID] = struct{}{}
	}
	out := make([]planner.SectionState, 0, len(keep))
	for _, st := range states {
		if _, ok := keep[st.ID]; ok {
			out = append(out, st)
		}
	}
	return out
}
