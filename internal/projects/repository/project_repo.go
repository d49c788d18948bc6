package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/qctrack/qctrack-backend/internal/projects/domain"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
)

const projectColumns = `id, project_code, name, client_name, division_id, product_id, status,
       start_date, end_date, description, is_live, created_at, updated_at`

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func scanProject(s postgres.RowScanner) (*domain.Project, error) {
	var p domain.Project
	err := s.Scan(&p.ID, &p.ProjectCode, &p.Name, &p.ClientName, &p.DivisionID, &p.ProductID, &p.Status,
		&p.StartDate, &p.EndDate, &p.Description, &p.IsLive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// likePattern wraps s for ILIKE, escaping its wildcards.
func likePattern(s *string) *string {
	if s == nil {
		return nil
	}
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	p := "%" + r.Replace(*s) + "%"
	return &p
}

// List returns projects matching the filter, newest first.
func (r *ProjectRepository) List(ctx context.Context, f domain.ProjectFilter) ([]domain.Project, error) {
	const q = `
SELECT ` + projectColumns + `
FROM projects
WHERE ($1 OR is_live)
  AND ($2::bigint IS NULL OR division_id = $2)
  AND ($3::text IS NULL OR status = $3)
  AND ($4::text IS NULL OR project_code ILIKE $4 OR name ILIKE $4)
ORDER BY start_date DESC, project_code;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.DivisionID, f.Status, likePattern(f.Search))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) Get(ctx context.Context, id int64) (*domain.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = $1;`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	const q = `
INSERT INTO projects (project_code, name, client_name, division_id, product_id, status, start_date, end_date, description)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q,
		in.ProjectCode, in.Name, in.ClientName, in.DivisionID, in.ProductID, string(in.Status),
		in.StartDate, in.EndDate, in.Description))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return p, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id int64, in domain.ProjectInput) (*domain.Project, error) {
	const q = `
UPDATE projects
SET project_code = $2, name = $3, client_name = $4, division_id = $5, product_id = $6, status = $7,
    start_date = $8, end_date = $9, description = $10, is_live = COALESCE($11, is_live), updated_at = now()
WHERE id = $1
RETURNING ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRowContext(ctx, q, id,
		in.ProjectCode, in.Name, in.ClientName, in.DivisionID, in.ProductID, string(in.Status),
		in.StartDate, in.EndDate, in.Description, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return p, nil
}

// SoftDelete marks a project as inactive.
func (r *ProjectRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "projects", id, false)
}
