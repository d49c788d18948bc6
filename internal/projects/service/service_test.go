package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
	lookup "github.com/qctrack/qctrack-backend/internal/lookup/domain"
	"github.com/qctrack/qctrack-backend/internal/projects/domain"
	"github.com/qctrack/qctrack-backend/internal/projects/repository"
)

type recordingInvalidator struct {
	kinds []lookup.Kind
}

func (r *recordingInvalidator) Invalidate(_ context.Context, kinds ...lookup.Kind) {
	r.kinds = append(r.kinds, kinds...)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var projectCols = []string{"id", "project_code", "name", "client_name", "division_id", "product_id", "status",
	"start_date", "end_date", "description", "is_live", "created_at", "updated_at"}

var activityCols = []string{"id", "project_id", "name", "drawing_no", "drawing_description_id", "drafter_id", "checker_id",
	"status", "sheet_count", "planned_start", "planned_end", "actual_start", "actual_end", "is_live", "created_at", "updated_at"}

func TestProjectService_CreateInvalidatesLookup(t *testing.T) {
	db, mock := newMock(t)
	inv := &recordingInvalidator{}
	svc := NewProjectService(repository.NewProjectRepository(db), inv)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO projects").
		WithArgs("P-100", "Harbour bridge", "", int64(3), nil, "Active", "2026-01-05", nil, "").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow(1, "P-100", "Harbour bridge", "", 3, nil, "Active", "2026-01-05", nil, "", true, now, now))

	p, err := svc.Create(context.Background(), domain.ProjectInput{
		ProjectCode: " P-100 ",
		Name:        "Harbour bridge",
		DivisionID:  3,
		StartDate:   dates.New(2026, time.January, 5),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectActive, p.Status)
	assert.Equal(t, "2026-01-05", p.StartDate.String())
	assert.Nil(t, p.EndDate)
	assert.Equal(t, []lookup.Kind{lookup.KindProjects}, inv.kinds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_DuplicateCode(t *testing.T) {
	db, mock := newMock(t)
	inv := &recordingInvalidator{}
	svc := NewProjectService(repository.NewProjectRepository(db), inv)

	mock.ExpectQuery("INSERT INTO projects").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "projects_project_code_key"})

	_, err := svc.Create(context.Background(), domain.ProjectInput{
		ProjectCode: "P-100", Name: "Dup", DivisionID: 1, StartDate: dates.New(2026, time.March, 1),
	})
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Empty(t, inv.kinds)
}

func TestProjectService_ListSearchEscapesWildcards(t *testing.T) {
	db, mock := newMock(t)
	svc := NewProjectService(repository.NewProjectRepository(db), nil)

	search := "50%_off"
	mock.ExpectQuery("FROM projects").
		WithArgs(false, nil, nil, `%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows(projectCols))

	items, err := svc.List(context.Background(), domain.ProjectFilter{Search: &search})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectService_ListUnknownStatus(t *testing.T) {
	db, _ := newMock(t)
	svc := NewProjectService(repository.NewProjectRepository(db), nil)

	status := "Paused"
	_, err := svc.List(context.Background(), domain.ProjectFilter{Status: &status})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestActivityService_ListUnknownStatus(t *testing.T) {
	db, _ := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))

	status := "Archived"
	_, err := svc.List(context.Background(), domain.ActivityFilter{Status: &status})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestProjectService_DeleteAlreadyInactive(t *testing.T) {
	db, mock := newMock(t)
	inv := &recordingInvalidator{}
	svc := NewProjectService(repository.NewProjectRepository(db), inv)

	mock.ExpectExec("UPDATE projects SET is_live").WithArgs(int64(4), false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, svc.Delete(context.Background(), 4), errs.ErrNotFound)
	assert.Empty(t, inv.kinds)
}

func activityRow(status string, actualStart any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(activityCols).
		AddRow(7, 1, "GA drawing", "D-001", nil, nil, nil, status, 4, "2026-10-01", "2026-10-20", actualStart, nil, true, now, now)
}

func fixedClock(svc *ActivityService) {
	svc.now = func() time.Time { return time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC) }
}

func TestActivityService_StartStampsActualStart(t *testing.T) {
	db, mock := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))
	fixedClock(svc)

	mock.ExpectQuery("FROM project_activities WHERE id").WithArgs(int64(7)).
		WillReturnRows(activityRow("NotStarted", nil))
	mock.ExpectQuery("UPDATE project_activities").
		WithArgs(int64(7), "NotStarted", "InProgress", "2026-10-18", nil).
		WillReturnRows(activityRow("InProgress", "2026-10-18"))

	a, err := svc.ChangeStatus(context.Background(), 7, domain.ActivityInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.ActivityInProgress, a.Status)
	require.NotNil(t, a.ActualStart)
	assert.Equal(t, "2026-10-18", a.ActualStart.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityService_ReworkKeepsActualStart(t *testing.T) {
	db, mock := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))
	fixedClock(svc)

	mock.ExpectQuery("FROM project_activities WHERE id").
		WillReturnRows(activityRow("QCPending", "2026-10-02"))
	mock.ExpectQuery("UPDATE project_activities").
		WithArgs(int64(7), "QCPending", "InProgress", "2026-10-02", nil).
		WillReturnRows(activityRow("InProgress", "2026-10-02"))

	_, err := svc.ChangeStatus(context.Background(), 7, domain.ActivityInProgress)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityService_InvalidTransition(t *testing.T) {
	db, mock := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))

	mock.ExpectQuery("FROM project_activities WHERE id").
		WillReturnRows(activityRow("NotStarted", nil))

	_, err := svc.ChangeStatus(context.Background(), 7, domain.ActivityDelivered)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityService_ConcurrentStatusChange(t *testing.T) {
	db, mock := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))
	fixedClock(svc)

	mock.ExpectQuery("FROM project_activities WHERE id").
		WillReturnRows(activityRow("QCCompleted", "2026-10-02"))
	mock.ExpectQuery("UPDATE project_activities").
		WillReturnRows(sqlmock.NewRows(activityCols))

	_, err := svc.ChangeStatus(context.Background(), 7, domain.ActivityDelivered)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
}

func TestActivityService_UnknownStatus(t *testing.T) {
	db, _ := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))

	_, err := svc.ChangeStatus(context.Background(), 7, domain.ActivityStatus("Archived"))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestActivityService_StampsUTCDate(t *testing.T) {
	db, mock := newMock(t)
	svc := NewActivityService(repository.NewActivityRepository(db))
	// 23:30 on the 18th in UTC-5 is already the 19th in UTC.
	zone := time.FixedZone("UTC-5", -5*60*60)
	svc.now = func() time.Time { return time.Date(2026, time.October, 18, 23, 30, 0, 0, zone) }

	mock.ExpectQuery("FROM project_activities WHERE id").
		WillReturnRows(activityRow("NotStarted", nil))
	mock.ExpectQuery("UPDATE project_activities").
		WithArgs(int64(7), "NotStarted", "InProgress", "2026-10-19", nil).
		WillReturnRows(activityRow("InProgress", "2026-10-19"))

	_, err := svc.ChangeStatus(context.Background(), 7, domain.ActivityInProgress)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
