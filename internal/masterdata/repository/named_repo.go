package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qctrack/qctrack-backend/internal/masterdata/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

// NamedRepository persists one of the flat name/description tables.
type NamedRepository struct {
	db    *sql.DB
	table string

	listQ, getQ, createQ, updateQ, liveQ string
}

func newNamedRepository(db *sql.DB, table string) *NamedRepository {
	const cols = "id, name, description, is_live, created_at, updated_at"
	return &NamedRepository{
		db:    db,
		table: table,
		listQ: fmt.Sprintf(`SELECT %s FROM %s WHERE ($1 OR is_live) ORDER BY name;`, cols, table),
		getQ:  fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1;`, cols, table),
		createQ: fmt.Sprintf(`INSERT INTO %s (name, description) VALUES ($1, $2) RETURNING %s;`,
			table, cols),
		updateQ: fmt.Sprintf(`
UPDATE %s
SET name = $2, description = $3, is_live = COALESCE($4, is_live), updated_at = now()
WHERE id = $1
RETURNING %s;`, table, cols),
		liveQ: fmt.Sprintf(`SELECT is_live FROM %s WHERE id = $1;`, table),
	}
}

func NewDivisionRepository(db *sql.DB) *NamedRepository {
	return newNamedRepository(db, "divisions")
}

func NewErrorCategoryRepository(db *sql.DB) *NamedRepository {
	return newNamedRepository(db, "error_categories")
}

func NewResourceRoleRepository(db *sql.DB) *NamedRepository {
	return newNamedRepository(db, "resource_roles")
}

func scanNamed(s postgres.RowScanner) (*domain.Named, error) {
	var n domain.Named
	if err := s.Scan(&n.ID, &n.Name, &n.Description, &n.IsLive, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NamedRepository) List(ctx context.Context, includeInactive bool) ([]domain.Named, error) {
	rows, err := r.db.QueryContext(ctx, r.listQ, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Named, 0, 16)
	for rows.Next() {
		n, err := scanNamed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (r *NamedRepository) Get(ctx context.Context, id int64) (*domain.Named, error) {
	n, err := scanNamed(r.db.QueryRowContext(ctx, r.getQ, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return n, nil
}

func (r *NamedRepository) Create(ctx context.Context, in domain.NamedInput) (*domain.Named, error) {
	n, err := scanNamed(r.db.QueryRowContext(ctx, r.createQ, in.Name, in.Description))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return n, nil
}

func (r *NamedRepository) Update(ctx context.Context, id int64, in domain.NamedInput) (*domain.Named, error) {
	n, err := scanNamed(r.db.QueryRowContext(ctx, r.updateQ, id, in.Name, in.Description, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return n, nil
}

func (r *NamedRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, r.table, id, false)
}

// IsLive reports the live flag of one row; unknown ids yield ErrNotFound.
func (r *NamedRepository) IsLive(ctx context.Context, id int64) (bool, error) {
	var live bool
	if err := r.db.QueryRowContext(ctx, r.liveQ, id).Scan(&live); err != nil {
		return false, postgres.MapError(err)
	}
	return live, nil
}
