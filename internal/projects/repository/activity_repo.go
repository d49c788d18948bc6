package repository

import (
	"context"
	"database/sql"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
	"github.com/qctrack/qctrack-backend/internal/projects/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

const activityColumns = `id, project_id, name, drawing_no, drawing_description_id, drafter_id, checker_id,
       status, sheet_count, planned_start, planned_end, actual_start, actual_end, is_live, created_at, updated_at`

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func scanActivity(s postgres.RowScanner) (*domain.Activity, error) {
	var a domain.Activity
	err := s.Scan(&a.ID, &a.ProjectID, &a.Name, &a.DrawingNo, &a.DrawingDescriptionID, &a.DrafterID, &a.CheckerID,
		&a.Status, &a.SheetCount, &a.PlannedStart, &a.PlannedEnd, &a.ActualStart, &a.ActualEnd,
		&a.IsLive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActivityRepository) List(ctx context.Context, f domain.ActivityFilter) ([]domain.Activity, error) {
	const q = `
SELECT ` + activityColumns + `
FROM project_activities
WHERE ($1 OR is_live)
  AND ($2::bigint IS NULL OR project_id = $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY project_id, drawing_no, id;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.ProjectID, f.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Activity, 0, 32)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *ActivityRepository) Get(ctx context.Context, id int64) (*domain.Activity, error) {
	const q = `SELECT ` + activityColumns + ` FROM project_activities WHERE id = $1;`
	a, err := scanActivity(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return a, nil
}

func (r *ActivityRepository) Create(ctx context.Context, in domain.ActivityInput) (*domain.Activity, error) {
	const q = `
INSERT INTO project_activities (project_id, name, drawing_no, drawing_description_id, drafter_id, checker_id,
                                sheet_count, planned_start, planned_end)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + activityColumns + `;
`
	a, err := scanActivity(r.db.QueryRowContext(ctx, q,
		in.ProjectID, in.Name, in.DrawingNo, in.DrawingDescriptionID, in.DrafterID, in.CheckerID,
		in.SheetCount, in.PlannedStart, in.PlannedEnd))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return a, nil
}

func (r *ActivityRepository) Update(ctx context.Context, id int64, in domain.ActivityInput) (*domain.Activity, error) {
	const q = `
UPDATE project_activities
SET project_id = $2, name = $3, drawing_no = $4, drawing_description_id = $5, drafter_id = $6, checker_id = $7,
    sheet_count = $8, planned_start = $9, planned_end = $10, is_live = COALESCE($11, is_live), updated_at = now()
WHERE id = $1
RETURNING ` + activityColumns + `;
`
	a, err := scanActivity(r.db.QueryRowContext(ctx, q, id,
		in.ProjectID, in.Name, in.DrawingNo, in.DrawingDescriptionID, in.DrafterID, in.CheckerID,
		in.SheetCount, in.PlannedStart, in.PlannedEnd, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return a, nil
}

// UpdateStatus moves an activity from one status to another. It fails with
// ErrInvalidTransition when the row no longer has status from.
func (r *ActivityRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.ActivityStatus, actualStart, actualEnd *dates.Date) (*domain.Activity, error) {
	const q = `
UPDATE project_activities
SET status = $3, actual_start = $4, actual_end = $5, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + activityColumns + `;
`
	a, err := scanActivity(r.db.QueryRowContext(ctx, q, id, string(from), string(to), actualStart, actualEnd))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errs.ErrInvalidTransition
		}
		return nil, postgres.MapError(err)
	}
	return a, nil
}

func (r *ActivityRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "project_activities", id, false)
}
