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

const clarificationColumns = `id, project_id, project_activity_id, subject, query, raised_by_id, response, responded_by_id,
       status, raised_at, responded_at, closed_at, is_live, created_at, updated_at`

type ClarificationRepository struct {
	db *sql.DB
}

func NewClarificationRepository(db *sql.DB) *ClarificationRepository {
	return &ClarificationRepository{db: db}
}

func scanClarification(s postgres.RowScanner) (*domain.Clarification, error) {
	var c domain.Clarification
	err := s.Scan(&c.ID, &c.ProjectID, &c.ProjectActivityID, &c.Subject, &c.Query, &c.RaisedByID, &c.Response,
		&c.RespondedByID, &c.Status, &c.RaisedAt, &c.RespondedAt, &c.ClosedAt, &c.IsLive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClarificationRepository) List(ctx context.Context, f domain.ClarificationFilter) ([]domain.Clarification, error) {
	const q = `
SELECT ` + clarificationColumns + `
FROM clarifications
WHERE ($1 OR is_live)
  AND ($2::bigint IS NULL OR project_id = $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY raised_at DESC, id DESC;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.ProjectID, f.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Clarification, 0, 16)
	for rows.Next() {
		c, err := scanClarification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *ClarificationRepository) Get(ctx context.Context, id int64) (*domain.Clarification, error) {
	const q = `SELECT ` + clarificationColumns + ` FROM clarifications WHERE id = $1;`
	c, err := scanClarification(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return c, nil
}

func (r *ClarificationRepository) Create(ctx context.Context, in domain.ClarificationInput, raisedAt time.Time) (*domain.Clarification, error) {
	const q = `
INSERT INTO clarifications (project_id, project_activity_id, subject, query, raised_by_id, status, raised_at)
VALUES ($1, $2, $3, $4, $5, 'Open', $6)
RETURNING ` + clarificationColumns + `;
`
	c, err := scanClarification(r.db.QueryRowContext(ctx, q,
		in.ProjectID, in.ProjectActivityID, in.Subject, in.Query, in.RaisedByID, raisedAt))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return c, nil
}

func (r *ClarificationRepository) Update(ctx context.Context, id int64, in domain.ClarificationInput) (*domain.Clarification, error) {
	const q = `
UPDATE clarifications
SET project_id = $2, project_activity_id = $3, subject = $4, query = $5, raised_by_id = $6,
    is_live = COALESCE($7, is_live), updated_at = now()
WHERE id = $1
RETURNING ` + clarificationColumns + `;
`
	c, err := scanClarification(r.db.QueryRowContext(ctx, q, id,
		in.ProjectID, in.ProjectActivityID, in.Subject, in.Query, in.RaisedByID, in.IsLive))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return c, nil
}

// Respond answers an Open clarification.
func (r *ClarificationRepository) Respond(ctx context.Context, id int64, in domain.ClarificationResponse, at time.Time) (*domain.Clarification, error) {
	const q = `
UPDATE clarifications
SET response = $2, responded_by_id = $3, responded_at = $4, status = 'Answered', updated_at = now()
WHERE id = $1 AND status = 'Open'
RETURNING ` + clarificationColumns + `;
`
	c, err := scanClarification(r.db.QueryRowContext(ctx, q, id, in.Response, in.RespondedByID, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrInvalidTransition
	}
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return c, nil
}

func (r *ClarificationRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.ClarificationStatus, closedAt *time.Time) (*domain.Clarification, error) {
	const q = `
UPDATE clarifications
SET status = $3, closed_at = $4, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING ` + clarificationColumns + `;
`
	c, err := scanClarification(r.db.QueryRowContext(ctx, q, id, string(from), string(to), closedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.ErrInvalidTransition
	}
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return c, nil
}

func (r *ClarificationRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "clarifications", id, false)
}
