package repository

import (
	"context"
	"database/sql"

	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

type ErrorSubCategoryRepository struct {
	db *sql.DB
}

func NewErrorSubCategoryRepository(db *sql.DB) *ErrorSubCategoryRepository {
	return &ErrorSubCategoryRepository{db: db}
}

func scanErrorSubCategory(s postgres.RowScanner) (*domain.ErrorSubCategory, error) {
	var e domain.ErrorSubCategory
	if err := s.Scan(&e.ID, &e.ErrorCategoryID, &e.Name, &e.Description, &e.IsLive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ErrorSubCategoryRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.ErrorSubCategory, error) {
	const q = `
SELECT id, error_category_id, name, description, is_live, created_at, updated_at
FROM error_sub_categories
WHERE ($1 OR is_live) AND ($2::bigint IS NULL OR error_category_id = $2)
ORDER BY name;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.ParentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ErrorSubCategory, 0, 32)
	for rows.Next() {
		e, err := scanErrorSubCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *ErrorSubCategoryRepository) Get(ctx context.Context, id int64) (*domain.ErrorSubCategory, error) {
	const q = `
SELECT id, error_category_id, name, description, is_live, created_at, updated_at
FROM error_sub_categories
WHERE id = $1;
`
	e, err := scanErrorSubCategory(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return e, nil
}

func (r *ErrorSubCategoryRepository) Create(ctx context.Context, in domain.ErrorSubCategoryInput) (*domain.ErrorSubCategory, error) {
	const q = `
INSERT INTO error_sub_categories (error_category_id, name, description)
VALUES ($1, $2, $3)
RETURNING id, error_category_id, name, description, is_live, created_at, updated_at;
`
	e, err := scanErrorSubCategory(r.db.QueryRowContext(ctx, q, in.ErrorCategoryID, in.Name, in.Description))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return e, nil
}

func (r *ErrorSubCategoryRepository) Update(ctx context.Context, id int64, in domain.ErrorSubCategoryInput) (*domain.ErrorSubCategory, error) {
	const q = `
UPDATE error_sub_categories
SET error_category_id = $2, name = $3, description = $4, is_live = COALESCE($5, is_live), updated_at = now()
WHERE id = $1
RETURNING id, error_category_id, name, description, is_live, created_at, updated_at;
`
	e, err := scanErrorSubCategory(r.db.QueryRowContext(ctx, q, id, in.ErrorCategoryID, in.Name, in.Description, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return e, nil
}

func (r *ErrorSubCategoryRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "error_sub_categories", id, false)
}
