package repository

import (
	"context"
	"database/sql"

	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

type DrawingDescriptionRepository struct {
	db *sql.DB
}

func NewDrawingDescriptionRepository(db *sql.DB) *DrawingDescriptionRepository {
	return &DrawingDescriptionRepository{db: db}
}

func scanDrawingDescription(s postgres.RowScanner) (*domain.DrawingDescription, error) {
	var d domain.DrawingDescription
	if err := s.Scan(&d.ID, &d.ProductID, &d.Name, &d.Description, &d.IsLive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DrawingDescriptionRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.DrawingDescription, error) {
	const q = `
SELECT id, product_id, name, description, is_live, created_at, updated_at
FROM drawing_descriptions
WHERE ($1 OR is_live) AND ($2::bigint IS NULL OR product_id = $2)
ORDER BY name;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.ParentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DrawingDescription, 0, 32)
	for rows.Next() {
		d, err := scanDrawingDescription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DrawingDescriptionRepository) Get(ctx context.Context, id int64) (*domain.DrawingDescription, error) {
	const q = `
SELECT id, product_id, name, description, is_live, created_at, updated_at
FROM drawing_descriptions
WHERE id = $1;
`
	d, err := scanDrawingDescription(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

func (r *DrawingDescriptionRepository) Create(ctx context.Context, in domain.DrawingDescriptionInput) (*domain.DrawingDescription, error) {
	const q = `
INSERT INTO drawing_descriptions (product_id, name, description)
VALUES ($1, $2, $3)
RETURNING id, product_id, name, description, is_live, created_at, updated_at;
`
	d, err := scanDrawingDescription(r.db.QueryRowContext(ctx, q, in.ProductID, in.Name, in.Description))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

func (r *DrawingDescriptionRepository) Update(ctx context.Context, id int64, in domain.DrawingDescriptionInput) (*domain.DrawingDescription, error) {
	const q = `
UPDATE drawing_descriptions
SET product_id = $2, name = $3, description = $4, is_live = COALESCE($5, is_live), updated_at = now()
WHERE id = $1
RETURNING id, product_id, name, description, is_live, created_at, updated_at;
`
	d, err := scanDrawingDescription(r.db.QueryRowContext(ctx, q, id, in.ProductID, in.Name, in.Description, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return d, nil
}

func (r *DrawingDescriptionRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "drawing_descriptions", id, false)
}
