package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qctrack/qctrack-backend/internal/lookup/domain"
)

type kindQuery struct {
	sql       string
	hasParent bool
}

var queries = map[domain.Kind]kindQuery{
	domain.KindProjects: {sql: `
SELECT id, project_code || ' - ' || name
FROM projects
WHERE is_live
ORDER BY project_code;`},
	domain.KindDivisions: {sql: `
SELECT id, name FROM divisions WHERE is_live ORDER BY name;`},
	domain.KindProducts: {hasParent: true, sql: `
SELECT id, name FROM products
WHERE is_live AND ($1::bigint IS NULL OR division_id = $1)
ORDER BY name;`},
	domain.KindErrorCategories: {sql: `
SELECT id, name FROM error_categories WHERE is_live ORDER BY name;`},
	domain.KindErrorSubCategories: {hasParent: true, sql: `
SELECT id, name FROM error_sub_categories
WHERE is_live AND ($1::bigint IS NULL OR error_category_id = $1)
ORDER BY name;`},
	domain.KindDrawingDescriptions: {hasParent: true, sql: `
SELECT id, name FROM drawing_descriptions
WHERE is_live AND ($1::bigint IS NULL OR product_id = $1)
ORDER BY name;`},
	domain.KindResources: {hasParent: true, sql: `
SELECT id, name FROM resources
WHERE is_live AND ($1::bigint IS NULL OR resource_role_id = $1)
ORDER BY name;`},
	domain.KindResourceRoles: {sql: `
SELECT id, name FROM resource_roles WHERE is_live ORDER BY name;`},
}

// Repository reads live option lists straight from Postgres.
type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the options of kind, narrowed by parentID when the kind
// supports a parent.
func (r *Repository) Load(ctx context.Context, kind domain.Kind, parentID *int64) ([]domain.Option, error) {
	q, ok := queries[kind]
	if !ok {
		return nil, fmt.Errorf("lookup: unsupported kind %q", kind)
	}

	var args []any
	if q.hasParent {
		args = append(args, parentID)
	}

	rows, err := r.db.QueryContext(ctx, q.sql, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s options: %w", kind, err)
	}
	defer rows.Close()

	out := make([]domain.Option, 0, 32)
	for rows.Next() {
		var o domain.Option
		if err := rows.Scan(&o.Value, &o.Label); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
