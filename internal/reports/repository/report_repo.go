package repository

import (
	"context"
	"database/sql"

	"github.com/qctrack/qctrack-backend/internal/dates"
	"github.com/qctrack/qctrack-backend/internal/reports/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// ActivityCount is one status bucket of a project's live activities.
type ActivityCount struct {
	Status string
	Count  int
	Sheets int
}

// DiscrepancyCount is one (status, severity) bucket.
type DiscrepancyCount struct {
	Status   string
	Severity string
	Count    int
}

func (r *ReportRepository) Project(ctx context.Context, projectID int64) (code, name string, err error) {
	err = r.db.QueryRowContext(ctx, `SELECT project_code, name FROM projects WHERE id = $1`, projectID).Scan(&code, &name)
	if err != nil {
		return "", "", postgres.MapError(err)
	}
	return code, name, nil
}

func (r *ReportRepository) ActivityCounts(ctx context.Context, projectID int64) ([]ActivityCount, error) {
	const q = `
SELECT status, COUNT(*), COALESCE(SUM(sheet_count), 0)
FROM project_activities
WHERE project_id = $1 AND is_live
GROUP BY status;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityCount
	for rows.Next() {
		var c ActivityCount
		if err := rows.Scan(&c.Status, &c.Count, &c.Sheets); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ReportRepository) DiscrepancyCounts(ctx context.Context, projectID int64) ([]DiscrepancyCount, error) {
	const q = `
SELECT status, severity, COUNT(*)
FROM discrepancies
WHERE project_id = $1 AND is_live
GROUP BY status, severity;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DiscrepancyCount
	for rows.Next() {
		var c DiscrepancyCount
		if err := rows.Scan(&c.Status, &c.Severity, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ReportRepository) OpenClarifications(ctx context.Context, projectID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clarifications WHERE project_id = $1 AND is_live AND status = 'Open'`, projectID).Scan(&n)
	return n, err
}

// CategoryRows returns one row per (category, sub-category) pair ordered by
// category name. A nil projectID covers every project.
func (r *ReportRepository) CategoryRows(ctx context.Context, projectID *int64) ([]domain.CategoryCount, error) {
	const q = `
SELECT c.id, c.name, s.id, COALESCE(s.name, ''), COUNT(*)
FROM discrepancies d
JOIN error_categories c ON c.id = d.error_category_id
LEFT JOIN error_sub_categories s ON s.id = d.error_sub_category_id
WHERE d.is_live AND ($1::bigint IS NULL OR d.project_id = $1)
GROUP BY c.id, c.name, s.id, s.name
ORDER BY c.name, c.id, s.name NULLS LAST;
`
	rows, err := r.db.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.CategoryCount
	for rows.Next() {
		var (
			cat domain.CategoryCount
			sub domain.SubCategoryCount
		)
		if err := rows.Scan(&cat.ErrorCategoryID, &cat.Name, &sub.ErrorSubCategoryID, &sub.Name, &sub.Count); err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && out[n-1].ErrorCategoryID == cat.ErrorCategoryID {
			out[n-1].Count += sub.Count
			out[n-1].SubCategories = append(out[n-1].SubCategories, sub)
			continue
		}
		cat.Count = sub.Count
		cat.SubCategories = []domain.SubCategoryCount{sub}
		out = append(out, cat)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Snapshots(ctx context.Context, projectID int64, since dates.Date) ([]domain.Snapshot, error) {
	const q = `
SELECT snapshot_date, open_discrepancies, fixed_discrepancies, closed_discrepancies,
       rejected_discrepancies, open_clarifications
FROM qc_daily_snapshots
WHERE project_id = $1 AND snapshot_date >= $2
ORDER BY snapshot_date;
`
	rows, err := r.db.QueryContext(ctx, q, projectID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Snapshot, 0, 32)
	for rows.Next() {
		var s domain.Snapshot
		if err := rows.Scan(&s.Date, &s.OpenDiscrepancies, &s.FixedDiscrepancies, &s.ClosedDiscrepancies,
			&s.RejectedDiscrepancies, &s.OpenClarifications); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// WriteDailySnapshot upserts one row per live project for day and returns
// the number of projects written.
func (r *ReportRepository) WriteDailySnapshot(ctx context.Context, day dates.Date) (int64, error) {
	const q = `
INSERT INTO qc_daily_snapshots (project_id, snapshot_date, open_discrepancies, fixed_discrepancies,
                                closed_discrepancies, rejected_discrepancies, open_clarifications)
SELECT p.id, $1::date, d.open, d.fixed, d.closed, d.rejected, c.open
FROM projects p
CROSS JOIN LATERAL (
    SELECT COUNT(*) FILTER (WHERE status = 'Open')     AS open,
           COUNT(*) FILTER (WHERE status = 'Fixed')    AS fixed,
           COUNT(*) FILTER (WHERE status = 'Closed')   AS closed,
           COUNT(*) FILTER (WHERE status = 'Rejected') AS rejected
    FROM discrepancies
    WHERE project_id = p.id AND is_live
) d
CROSS JOIN LATERAL (
    SELECT COUNT(*) AS open
    FROM clarifications
    WHERE project_id = p.id AND is_live AND status = 'Open'
) c
WHERE p.is_live
ON CONFLICT (project_id, snapshot_date) DO UPDATE
  SET open_discrepancies     = EXCLUDED.open_discrepancies,
      fixed_discrepancies    = EXCLUDED.fixed_discrepancies,
      closed_discrepancies   = EXCLUDED.closed_discrepancies,
      rejected_discrepancies = EXCLUDED.rejected_discrepancies,
      open_clarifications    = EXCLUDED.open_clarifications,
      created_at             = now();
`
	res, err := r.db.ExecContext(ctx, q, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
