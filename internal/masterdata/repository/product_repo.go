package repository

import (
	"context"
	"database/sql"

	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(s postgres.RowScanner) (*domain.Product, error) {
	var p domain.Product
	if err := s.Scan(&p.ID, &p.DivisionID, &p.Name, &p.Description, &p.IsLive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Product, error) {
	const q = `
SELECT id, division_id, name, description, is_live, created_at, updated_at
FROM products
WHERE ($1 OR is_live) AND ($2::bigint IS NULL OR division_id = $2)
ORDER BY name;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.ParentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, 16)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	const q = `
SELECT id, division_id, name, description, is_live, created_at, updated_at
FROM products
WHERE id = $1;
`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return p, nil
}

func (r *ProductRepository) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	const q = `
INSERT INTO products (division_id, name, description)
VALUES ($1, $2, $3)
RETURNING id, division_id, name, description, is_live, created_at, updated_at;
`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, in.DivisionID, in.Name, in.Description))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return p, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, in domain.ProductInput) (*domain.Product, error) {
	const q = `
UPDATE products
SET division_id = $2, name = $3, description = $4, is_live = COALESCE($5, is_live), updated_at = now()
WHERE id = $1
RETURNING id, division_id, name, description, is_live, created_at, updated_at;
`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id, in.DivisionID, in.Name, in.Description, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return p, nil
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "products", id, false)
}
