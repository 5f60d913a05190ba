package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/noah-isme/schedule-builder-api/internal/dto"
	"github.com/noah-isme/schedule-builder-api/internal/models"
	appErrors "github.com/noah-isme/schedule-builder-api/pkg/errors"
)

const (
	catalogCachePattern  = "catalog:*"
	catalogSummariesKey  = "catalog:summaries"
	catalogCoursePrefix  = "catalog:course:"
	defaultCatalogPageSz = 50
)

var slotTimePattern = regexp.MustCompile(`^\d{2}:00$`)

// codeHomoglyphs folds Cyrillic letters that portals mix into Latin course codes.
var codeHomoglyphs = strings.NewReplacer("а", "a", "А", "A")

type courseRepository interface {
	ListSummaries(ctx context.Context) ([]models.CourseSummary, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
	ListByCodes(ctx context.Context, codes []string) ([]models.Course, error)
	Upsert(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, code string) error
}

// CatalogConfig bounds imported section times and tunes caching.
type CatalogConfig struct {
	GridStartHour int
	GridEndHour   int
	CacheTTL      time.Duration
}

// CatalogService serves the read-only course catalog to planners and accepts imports from the
// scraper. Reads go through the cache; writes invalidate it.
type CatalogService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    CatalogConfig
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config CatalogConfig) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.GridEndHour <= config.GridStartHour {
		config.GridStartHour, config.GridEndHour = 8, 20
	}
	return &CatalogService{repo: repo, cache: cache, validator: validate, logger: logger, config: config}
}

// NormalizeCode folds homoglyphs and upper-cases a course code.
func NormalizeCode(raw string) string {
	return cases.Upper(language.Und).String(codeHomoglyphs.Replace(strings.TrimSpace(raw)))
}

// List returns a page of course summaries, optionally filtered by a code or name fragment.
func (s *CatalogService) List(ctx context.Context, query dto.CourseListQuery) ([]models.CourseSummary, *models.Pagination, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course query")
	}

	var summaries []models.CourseSummary
	hit := s.cache.Get(ctx, catalogSummariesKey, &summaries)
	if !hit {
		var err error
		summaries, err = s.repo.ListSummaries(ctx)
		if err != nil {
			return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
		}
		s.cache.Set(ctx, catalogSummariesKey, summaries, s.config.CacheTTL)
	}

	if search := strings.ToLower(strings.TrimSpace(query.Search)); search != "" {
		filtered := make([]models.CourseSummary, 0, len(summaries))
		for _, c := range summaries {
			if strings.Contains(strings.ToLower(c.Code), search) || strings.Contains(strings.ToLower(c.Name), search) {
				filtered = append(filtered, c)
			}
		}
		summaries = filtered
	}

	start, end, page := models.Paginate(query.Page, query.PageSize, len(summaries), defaultCatalogPageSz)
	return summaries[start:end], &page, hit, nil
}

// Get returns a course with its sections.
func (s *CatalogService) Get(ctx context.Context, code string) (*models.Course, bool, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "course code is required")
	}

	var cached models.Course
	if s.cache.Get(ctx, catalogCoursePrefix+code, &cached) {
		return &cached, true, nil
	}

	course, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	s.cache.Set(ctx, catalogCoursePrefix+code, course, s.config.CacheTTL)
	return course, false, nil
}

// CoursesByCodes resolves a list of codes into courses in the given order. Codes that are not
// in the catalog are skipped, matching how the planner treats unknown courses.
func (s *CatalogService) CoursesByCodes(ctx context.Context, codes []string) ([]models.Course, error) {
	normalized := NormalizeCodes(codes)
	found := make(map[string]models.Course, len(normalized))
	var missing []string
	for _, code := range normalized {
		var cached models.Course
		if s.cache.Get(ctx, catalogCoursePrefix+code, &cached) {
			found[code] = cached
			continue
		}
		missing = append(missing, code)
	}

	if len(missing) > 0 {
		loaded, err := s.repo.ListByCodes(ctx, missing)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
		}
		for _, c := range loaded {
			found[c.Code] = c
			s.cache.Set(ctx, catalogCoursePrefix+c.Code, c, s.config.CacheTTL)
		}
	}

	courses := make([]models.Course, 0, len(found))
	for _, code := range normalized {
		if c, ok := found[code]; ok {
			courses = append(courses, c)
		}
	}
	return courses, nil
}

// Import validates a scraped course and stores it, replacing any previous version.
func (s *CatalogService) Import(ctx context.Context, req dto.ImportCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Code:     NormalizeCode(req.Code),
		Name:     strings.TrimSpace(req.Name),
		Credits:  req.Credits,
		Formula:  strings.TrimSpace(req.Formula),
		Sections: make([]models.Section, 0, len(req.Sections)),
	}
	for i, in := range req.Sections {
		section, err := s.toSection(in)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section %d: %v", i+1, err))
		}
		course.Sections = append(course.Sections, section)
	}

	if err := s.repo.Upsert(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course")
	}
	s.cache.Invalidate(ctx, catalogCachePattern)
	s.logger.Info("course imported", zap.String("code", course.Code), zap.Int("sections", len(course.Sections)))
	return course, nil
}

// Delete removes a course from the catalog.
func (s *CatalogService) Delete(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	if err := s.repo.Delete(ctx, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %s not found", code))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.Invalidate(ctx, catalogCachePattern)
	s.logger.Info("course deleted", zap.String("code", code))
	return nil
}

func (s *CatalogService) toSection(in dto.ImportSectionRequest) (models.Section, error) {
	sectionType, err := models.ParseSectionType(in.Type)
	if err != nil {
		return models.Section{}, err
	}
	day, err := models.ParseWeekday(in.Day)
	if err != nil {
		return models.Section{}, err
	}
	if !slotTimePattern.MatchString(in.Time) {
		return models.Section{}, fmt.Errorf("time %q must be on the hour (HH:00)", in.Time)
	}
	duration := in.Duration
	if duration == 0 {
		duration = sectionType.DefaultDuration()
	}
	start := models.ParseHour(in.Time)
	if start < s.config.GridStartHour || start+duration > s.config.GridEndHour {
		return models.Section{}, fmt.Errorf("%s for %dh falls outside %s-%s", in.Time, duration,
			models.FormatHour(s.config.GridStartHour), models.FormatHour(s.config.GridEndHour))
	}
	teacher := strings.TrimSpace(in.Teacher)
	if teacher == "" {
		teacher = models.VacantTeacher
	}
	return models.Section{
		Type:     sectionType,
		Day:      day,
		Time:     in.Time,
		Duration: duration,
		Teacher:  teacher,
		Room:     strings.TrimSpace(in.Room),
		RawText:  in.RawText,
	}, nil
}

// NormalizeCodes normalizes codes, dropping blanks and duplicates while keeping order.
func NormalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, raw := range codes {
		code := NormalizeCode(raw)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
