package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

const (
	courseColumns  = `id, code, name, credits, formula, created_at, updated_at`
	sectionColumns = `id, course_id, type, day, time, duration, teacher, room, raw_text`
)

// CourseRepository persists the course catalog. Sections belong to their course and are
// replaced wholesale on every upsert.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a course repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListSummaries returns code, name and credits of every course ordered by code.
func (r *CourseRepository) ListSummaries(ctx context.Context) ([]models.CourseSummary, error) {
	const query = `SELECT code, name, credits FROM courses ORDER BY code`
	summaries := make([]models.CourseSummary, 0)
	if err := r.db.SelectContext(ctx, &summaries, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return summaries, nil
}

// FindByCode loads a course with its sections. Missing courses yield sql.ErrNoRows.
func (r *CourseRepository) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE code = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, code); err != nil {
		return nil, err
	}

	sectionsQuery := `SELECT ` + sectionColumns + ` FROM course_sections WHERE course_id = $1 ORDER BY position, id`
	sections := make([]models.Section, 0)
	if err := r.db.SelectContext(ctx, &sections, sectionsQuery, course.ID); err != nil {
		return nil, fmt.Errorf("list course sections: %w", err)
	}
	course.Sections = sections
	return &course, nil
}

// ListByCodes loads the requested courses with their sections in the order the codes were
// given. Unknown codes are skipped.
func (r *CourseRepository) ListByCodes(ctx context.Context, codes []string) ([]models.Course, error) {
	if len(codes) == 0 {
		return []models.Course{}, nil
	}

	query := `SELECT ` + courseColumns + ` FROM courses WHERE code = ANY($1)`
	var found []models.Course
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(codes)); err != nil {
		return nil, fmt.Errorf("list courses by code: %w", err)
	}
	if len(found) == 0 {
		return []models.Course{}, nil
	}

	ids := make([]int64, 0, len(found))
	for _, c := range found {
		ids = append(ids, c.ID)
	}
	sectionsQuery := `SELECT ` + sectionColumns + ` FROM course_sections WHERE course_id = ANY($1) ORDER BY course_id, position, id`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, sectionsQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list sections for courses: %w", err)
	}

	byCourse := make(map[int64][]models.Section, len(found))
	for _, s := range sections {
		byCourse[s.CourseID] = append(byCourse[s.CourseID], s)
	}
	byCode := make(map[string]models.Course, len(found))
	for _, c := range found {
		c.Sections = byCourse[c.ID]
		if c.Sections == nil {
			c.Sections = []models.Section{}
		}
		byCode[c.Code] = c
	}

	courses := make([]models.Course, 0, len(found))
	for _, code := range codes {
		if c, ok := byCode[code]; ok {
			courses = append(courses, c)
			delete(byCode, code)
		}
	}
	return courses, nil
}

// Upsert inserts or updates the course by code and replaces its sections in one transaction.
// Course and section ids are written back to the argument.
func (r *CourseRepository) Upsert(ctx context.Context, course *models.Course) (err error) {
	if course == nil {
		return fmt.Errorf("course payload is nil")
	}
	now := time.Now().UTC()
	course.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin course transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const upsertQuery = `INSERT INTO courses (code, name, credits, formula, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, credits = EXCLUDED.credits, formula = EXCLUDED.formula, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	if err = tx.QueryRowxContext(ctx, upsertQuery, course.Code, course.Name, course.Credits, course.Formula, now).
		Scan(&course.ID, &course.CreatedAt); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM course_sections WHERE course_id = $1`, course.ID); err != nil {
		return fmt.Errorf("clear course sections: %w", err)
	}

	const insertSection = `INSERT INTO course_sections (course_id, position, type, day, time, duration, teacher, room, raw_text)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	for i := range course.Sections {
		s := &course.Sections[i]
		s.CourseID = course.ID
		if err = tx.QueryRowxContext(ctx, insertSection, course.ID, i, s.Type, s.Day, s.Time, s.Duration, s.Teacher, s.Room, s.RawText).
			Scan(&s.ID); err != nil {
			return fmt.Errorf("insert course section: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit course: %w", err)
	}
	return nil
}

// Delete removes a course; its sections cascade.
func (r *CourseRepository) Delete(ctx context.Context, code string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
