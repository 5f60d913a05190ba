package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// WorkspaceRepository stores one workspace per owner: the planned course codes, the ordered
// schedules and the active schedule id.
type WorkspaceRepository struct {
	db *sqlx.DB
}

// NewWorkspaceRepository constructs a workspace repository.
func NewWorkspaceRepository(db *sqlx.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// Load returns the owner's workspace. Unknown owners yield sql.ErrNoRows.
func (r *WorkspaceRepository) Load(ctx context.Context, ownerID string) (*models.Workspace, error) {
	const headerQuery = `SELECT owner_id, course_codes, active_schedule_id, created_at, updated_at FROM workspaces WHERE owner_id = $1`
	var header models.WorkspaceRecord
	if err := r.db.GetContext(ctx, &header, headerQuery, ownerID); err != nil {
		return nil, err
	}

	const schedulesQuery = `SELECT id, owner_id, position, name, section_ids, created_at, updated_at
FROM workspace_schedules WHERE owner_id = $1 ORDER BY position`
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, schedulesQuery, ownerID); err != nil {
		return nil, fmt.Errorf("list workspace schedules: %w", err)
	}

	ws := &models.Workspace{
		OwnerID:          header.OwnerID,
		CourseCodes:      []string{},
		Schedules:        make([]models.Schedule, 0, len(records)),
		ActiveScheduleID: header.ActiveScheduleID,
		UpdatedAt:        header.UpdatedAt,
	}
	if len(header.CourseCodes) > 0 {
		if err := header.CourseCodes.Unmarshal(&ws.CourseCodes); err != nil {
			return nil, fmt.Errorf("decode workspace course codes: %w", err)
		}
	}
	for _, rec := range records {
		var ids []int64
		if len(rec.SectionIDs) > 0 {
			if err := rec.SectionIDs.Unmarshal(&ids); err != nil {
				return nil, fmt.Errorf("decode schedule %s selection: %w", rec.ID, err)
			}
		}
		ws.Schedules = append(ws.Schedules, models.Schedule{
			ID:        rec.ID,
			Name:      rec.Name,
			Selected:  models.SelectionFromIDs(ids),
			CreatedAt: rec.CreatedAt,
			UpdatedAt: rec.UpdatedAt,
		})
	}
	return ws, nil
}

// Save writes the whole workspace in one transaction, replacing the stored schedules.
func (r *WorkspaceRepository) Save(ctx context.Context, ws *models.Workspace) (err error) {
	if ws == nil || ws.OwnerID == "" {
		return fmt.Errorf("workspace owner is required")
	}
	now := time.Now().UTC()
	ws.UpdatedAt = now

	codes := ws.CourseCodes
	if codes == nil {
		codes = []string{}
	}
	codesJSON, err := json.Marshal(codes)
	if err != nil {
		return fmt.Errorf("encode workspace course codes: %w", err)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin workspace transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	header := models.WorkspaceRecord{
		OwnerID:          ws.OwnerID,
		CourseCodes:      types.JSONText(codesJSON),
		ActiveScheduleID: ws.ActiveScheduleID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	const upsertHeader = `INSERT INTO workspaces (owner_id, course_codes, active_schedule_id, created_at, updated_at)
VALUES (:owner_id, :course_codes, :active_schedule_id, :created_at, :updated_at)
ON CONFLICT (owner_id) DO UPDATE SET course_codes = EXCLUDED.course_codes, active_schedule_id = EXCLUDED.active_schedule_id, updated_at = EXCLUDED.updated_at`
	if _, err = tx.NamedExecContext(ctx, upsertHeader, header); err != nil {
		return fmt.Errorf("upsert workspace: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM workspace_schedules WHERE owner_id = $1`, ws.OwnerID); err != nil {
		return fmt.Errorf("clear workspace schedules: %w", err)
	}

	const insertSchedule = `INSERT INTO workspace_schedules (id, owner_id, position, name, section_ids, created_at, updated_at)
VALUES (:id, :owner_id, :position, :name, :section_ids, :created_at, :updated_at)`
	for i, sch := range ws.Schedules {
		idsJSON, marshalErr := json.Marshal(sch.Selected.IDs())
		if marshalErr != nil {
			err = fmt.Errorf("encode schedule %s selection: %w", sch.ID, marshalErr)
			return err
		}
		rec := models.ScheduleRecord{
			ID:         sch.ID,
			OwnerID:    ws.OwnerID,
			Position:   i,
			Name:       sch.Name,
			SectionIDs: types.JSONText(idsJSON),
			CreatedAt:  sch.CreatedAt,
			UpdatedAt:  sch.UpdatedAt,
		}
		if _, err = tx.NamedExecContext(ctx, insertSchedule, rec); err != nil {
			return fmt.Errorf("insert workspace schedule: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit workspace: %w", err)
	}
	return nil
}
