package repository

import (
	"context"
	"database/sql"

	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

const resourceColumns = `id, name, email, employee_code, resource_role_id, division_id, is_live, created_at, updated_at`

type ResourceRepository struct {
	db *sql.DB
}

func NewResourceRepository(db *sql.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

func scanResource(s postgres.RowScanner) (*domain.Resource, error) {
	var r domain.Resource
	err := s.Scan(&r.ID, &r.Name, &r.Email, &r.EmployeeCode, &r.ResourceRoleID, &r.DivisionID,
		&r.IsLive, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *ResourceRepository) List(ctx context.Context, f domain.ResourceFilter) ([]domain.Resource, error) {
	const q = `
SELECT ` + resourceColumns + `
FROM resources
WHERE ($1 OR is_live)
  AND ($2::bigint IS NULL OR resource_role_id = $2)
  AND ($3::bigint IS NULL OR division_id = $3)
ORDER BY name;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.ResourceRoleID, f.DivisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Resource, 0, 32)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

func (r *ResourceRepository) Get(ctx context.Context, id int64) (*domain.Resource, error) {
	const q = `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1;`
	res, err := scanResource(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return res, nil
}

func (r *ResourceRepository) Create(ctx context.Context, in domain.ResourceInput) (*domain.Resource, error) {
	const q = `
INSERT INTO resources (name, email, employee_code, resource_role_id, division_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + resourceColumns + `;
`
	res, err := scanResource(r.db.QueryRowContext(ctx, q,
		in.Name, in.Email, in.EmployeeCode, in.ResourceRoleID, in.DivisionID))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return res, nil
}

func (r *ResourceRepository) Update(ctx context.Context, id int64, in domain.ResourceInput) (*domain.Resource, error) {
	const q = `
UPDATE resources
SET name = $2, email = $3, employee_code = $4, resource_role_id = $5, division_id = $6,
    is_live = COALESCE($7, is_live), updated_at = now()
WHERE id = $1
RETURNING ` + resourceColumns + `;
`
	res, err := scanResource(r.db.QueryRowContext(ctx, q,
		id, in.Name, in.Email, in.EmployeeCode, in.ResourceRoleID, in.DivisionID, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return res, nil
}

func (r *ResourceRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "resources", id, false)
}
