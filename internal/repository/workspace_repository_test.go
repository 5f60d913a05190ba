package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

func newWorkspaceRepoMock(t *testing.T) (*WorkspaceRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewWorkspaceRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func TestWorkspaceRepositoryLoad(t *testing.T) {
	repo, mock, cleanup := newWorkspaceRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM workspaces WHERE owner_id = $1")).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id", "course_codes", "active_schedule_id", "created_at", "updated_at"}).
			AddRow("owner-1", []byte(`["CS101","MA201"]`), "sch-2", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM workspace_schedules WHERE owner_id = $1 ORDER BY position")).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "position", "name", "section_ids", "created_at", "updated_at"}).
			AddRow("sch-1", "owner-1", 0, "Main", []byte(`[3,1]`), now, now).
			AddRow("sch-2", "owner-1", 1, "Backup", []byte(`[]`), now, now))

	ws, err := repo.Load(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MA201"}, ws.CourseCodes)
	assert.Equal(t, "sch-2", ws.ActiveScheduleID)
	require.Len(t, ws.Schedules, 2)
	assert.Equal(t, []int64{1, 3}, ws.Schedules[0].Selected.IDs())
	assert.NotNil(t, ws.Schedules[1].Selected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepositoryLoadMissing(t *testing.T) {
	repo, mock, cleanup := newWorkspaceRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM workspaces WHERE owner_id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Load(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestWorkspaceRepositorySave(t *testing.T) {
	repo, mock, cleanup := newWorkspaceRepoMock(t)
	defer cleanup()

	created := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workspaces (owner_id, course_codes, active_schedule_id, created_at, updated_at)")).
		WithArgs("owner-1", types.JSONText(`["CS101"]`), "sch-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workspace_schedules WHERE owner_id = $1")).
		WithArgs("owner-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workspace_schedules")).
		WithArgs("sch-1", "owner-1", 0, "Main", types.JSONText(`[2,5]`), created, created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ws := &models.Workspace{
		OwnerID:          "owner-1",
		CourseCodes:      []string{"CS101"},
		ActiveScheduleID: "sch-1",
		Schedules: []models.Schedule{
			{ID: "sch-1", Name: "Main", Selected: models.SelectionFromIDs([]int64{5, 2}), CreatedAt: created, UpdatedAt: created},
		},
	}
	require.NoError(t, repo.Save(context.Background(), ws))
	assert.False(t, ws.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepositorySaveRollsBack(t *testing.T) {
	repo, mock, cleanup := newWorkspaceRepoMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workspaces")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM workspace_schedules")).
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), &models.Workspace{OwnerID: "owner-1"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkspaceRepositorySaveRequiresOwner(t *testing.T) {
	repo, _, cleanup := newWorkspaceRepoMock(t)
	defer cleanup()
	assert.Error(t, repo.Save(context.Background(), &models.Workspace{}))
}
