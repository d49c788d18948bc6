package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qctrack/qctrack-backend/internal/auth/rbac"
	"github.com/qctrack/qctrack-backend/internal/storage/postgres"
	"github.com/qctrack/qctrack-backend/internal/users/domain"
)

const userColumns = `id, firebase_uid, email, display_name, role, last_login_at, is_live, created_at, updated_at`

// UserRepository persists users and their explicit permission rows.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(s postgres.RowScanner) (*domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName, &u.Role, &u.LastLoginAt,
		&u.IsLive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) one(ctx context.Context, q string, args ...any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, postgres.MapError(err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users
WHERE ($1 OR is_live) AND ($2::text IS NULL OR role = $2)
ORDER BY email;
`
	rows, err := r.db.QueryContext(ctx, q, f.IncludeInactive, f.Role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id)
}

func (r *UserRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE firebase_uid = $1;`, uid)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1);`, email)
}

// Create inserts a user. firebaseUID may be nil for accounts created by an
// administrator ahead of the first sign-in.
func (r *UserRepository) Create(ctx context.Context, in domain.UserInput, firebaseUID *string) (*domain.User, error) {
	const q = `
INSERT INTO users (firebase_uid, email, display_name, role, last_login_at)
VALUES ($1, $2, $3, $4, CASE WHEN $1::text IS NULL THEN NULL ELSE now() END)
RETURNING ` + userColumns + `;
`
	return r.one(ctx, q, firebaseUID, in.Email, in.DisplayName, in.Role)
}

func (r *UserRepository) Update(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	const q = `
UPDATE users
SET email = $2, display_name = $3, role = $4, is_live = COALESCE($5, is_live), updated_at = now()
WHERE id = $1
RETURNING ` + userColumns + `;
`
	return r.one(ctx, q, id, in.Email, in.DisplayName, in.Role, in.IsLive)
}

func (r *UserRepository) SoftDelete(ctx context.Context, id int64) error {
	return postgres.SetLive(ctx, r.db, "users", id, false)
}

// LinkFirebase attaches uid to an account that has never signed in. An
// account already linked to another uid yields ErrNotFound.
func (r *UserRepository) LinkFirebase(ctx context.Context, id int64, uid string) (*domain.User, error) {
	const q = `
UPDATE users
SET firebase_uid = $2, last_login_at = now(), updated_at = now()
WHERE id = $1 AND firebase_uid IS NULL
RETURNING ` + userColumns + `;
`
	return r.one(ctx, q, id, uid)
}

// TouchLogin stamps last_login_at and fills an empty display name.
func (r *UserRepository) TouchLogin(ctx context.Context, id int64, displayName string) (*domain.User, error) {
	const q = `
UPDATE users
SET last_login_at = now(),
    display_name = CASE WHEN display_name = '' THEN $2 ELSE display_name END
WHERE id = $1
RETURNING ` + userColumns + `;
`
	return r.one(ctx, q, id, displayName)
}

func (r *UserRepository) Permissions(ctx context.Context, userID int64) ([]rbac.Permission, error) {
	const q = `
SELECT module, can_view, can_add, can_edit, can_delete
FROM user_permissions
WHERE user_id = $1
ORDER BY module;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]rbac.Permission, 0, len(rbac.Modules))
	for rows.Next() {
		var p rbac.Permission
		if err := rows.Scan(&p.Module, &p.CanView, &p.CanAdd, &p.CanEdit, &p.CanDelete); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplacePermissions swaps the user's full permission set in one transaction.
func (r *UserRepository) ReplacePermissions(ctx context.Context, userID int64, perms []rbac.Permission) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM user_permissions WHERE user_id = $1;`, userID); err != nil {
		return postgres.MapError(err)
	}

	const ins = `
INSERT INTO user_permissions (user_id, module, can_view, can_add, can_edit, can_delete)
VALUES ($1, $2, $3, $4, $5, $6);
`
	for _, p := range perms {
		if _, err = tx.ExecContext(ctx, ins, userID, string(p.Module), p.CanView, p.CanAdd, p.CanEdit, p.CanDelete); err != nil {
			return postgres.MapError(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit permissions: %w", err)
	}
	return nil
}
