package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/qc/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

const discrepancyColumns = `id, project_id, project_activity_id, drawing_no, error_category_id, error_sub_category_id,
       description, severity, raised_by_id, responsible_id, status, remarks, attachment_key,
       raised_at, closed_at, is_live, created_at, updated_at`

type DiscrepancyRepository struct {
	db *sql.DB
}

func NewDiscrepancyRepository(db *sql.DB) *DiscrepancyRepository {
	return &DiscrepancyRepository{db: db}
}

func scanDiscrepancy(s postgres.RowScanner) (*domain.Discrepancy, error) {
	var d domain.Discrepancy
	err := s.Scan(&d.ID, &d.ProjectID, &d.ProjectActivityID, &d.DrawingNo, &d.ErrorCategoryID, &d.ErrorSubCategoryID,
		&d.Description, &d.Severity, &d.RaisedByID, &d.ResponsibleID, &d.Status, &d.Remarks, &d.AttachmentKey,
		&d.RaisedAt, &d.ClosedAt, &d.IsLive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DiscrepancyRepository) List(ctx context.Context, f domain.DiscrepancyFilter) ([]domain.Discrepancy, error) {
	const q = `
SELECT ` + discrepancyColumns + `
FROM discrepancies
WHERE ($1 OR is_live)
  AND ($2::bigint IS NULL OR project_id = $2)
  AND ($3::bigint IS NULL OR project_activity_id = $3)
  AND ($4::text IS NULL OR status = $4)
  AND ($5::bigint IS NULL OR error_category_id = $5)
  AND ($6::bigint IS NULL OR responsible_id = $6)
ORDER BY raised_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q,
		f.IncludeInactive, f.ProjectID, f.ProjectActivityID, f.Status, f.ErrorCategoryID, f.ResponsibleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Discrepancy, 0, 32)
	for rows.Next() {
		d, err := scanDiscrepancy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DiscrepancyRepository) Get(ctx context.Context, id int64) (*domain.Discrepancy, error) {
	const q = `SELECT ` + discrepancyColumns + ` FROM discrepancies WHERE id = $1;`
	d, err := scanDiscrepancy(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

// Create inserts an Open discrepancy raised at raisedAt.
func (r *DiscrepancyRepository) Create(ctx context.Context, in domain.DiscrepancyInput, raisedAt time.Time) (*domain.Discrepancy, error) {
	const q = `
INSERT INTO discrepancies (project_id, project_activity_id, drawing_no, error_category_id, error_sub_category_id,
                           description, severity, raised_by_id, responsible_id, remarks, status, raised_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'Open', $11)
RETURNING ` + discrepancyColumns + `;
`
	d, err := scanDiscrepancy(r.db.QueryRowContext(ctx, q,
		in.ProjectID, in.ProjectActivityID, in.DrawingNo, in.ErrorCategoryID, in.ErrorSubCategoryID,
		in.Description, string(in.Severity), in.RaisedByID, in.ResponsibleID, in.Remarks, raisedAt))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

func (r *DiscrepancyRepository) Update(ctx context.Context, id int64, in domain.DiscrepancyInput) (*domain.Discrepancy, error) {
	const q = `
UPDATE discrepancies
SET project_id = $2, project_activity_id = $3, drawing_no = $4, error_category_id = $5, error_sub_category_id = $6,
    description = $7, severity = $8, raised_by_id = $9, responsible_id = $10, remarks = $11,
    is_live = COALESCE($12, is_live), updated_at = now()
WHERE id = $1
RETURNING ` + discrepancyColumns + `;
`
	d, err := scanDiscrepancy(r.db.QueryRowContext(ctx, q, id,
		in.ProjectID, in.ProjectActivityID, in.DrawingNo, in.ErrorCategoryID, in.ErrorSubCategoryID,
		in.Description, string(in.Severity), in.RaisedByID, in.ResponsibleID, in.Remarks, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

// UpdateStatus moves a discrepancy from one status to another. A nil remarks
// keeps the stored text.
func (r *DiscrepancyRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.DiscrepancyStatus, remarks *string, closedAt *time.Time) (*domain.Discrepancy, error) {
	const q = `
UPDATE discrepancies
SET status = $3, remarks = COALESCE($4, remarks), closed_at = $5, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + discrepancyColumns + `;
`
	d, err := scanDiscrepancy(r.db.QueryRowContext(ctx, q, id, string(from), string(to), remarks, closedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrInvalidTransition
	}
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

func (r *DiscrepancyRepository) SetAttachment(ctx context.Context, id int64, key string) (*domain.Discrepancy, error) {
	const q = `
UPDATE discrepancies
SET attachment_key = $2, updated_at = now()
WHERE id = $1
RETURNING ` + discrepancyColumns + `;
`
	d, err := scanDiscrepancy(r.db.QueryRowContext(ctx, q, id, key))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

// SubCategoryParent returns the category a sub-category belongs to.
func (r *DiscrepancyRepository) SubCategoryParent(ctx context.Context, subCategoryID int64) (int64, error) {
	var categoryID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT error_category_id FROM error_sub_categories WHERE id = $1`, subCategoryID).Scan(&categoryID)
	if err != nil {
		return 0, postgres.MapError(err)
	}
	return categoryID, nil
}

func (r *DiscrepancyRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "discrepancies", id, false)
}
