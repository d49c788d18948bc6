package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

// liveTables lists the tables whose is_live flag may be flipped through SetLive.
var liveTables = map[string]bool{
	"divisions":            true,
	"products":             true,
	"error_categories":     true,
	"error_sub_categories": true,
	"drawing_descriptions": true,
	"resource_roles":       true,
	"resources":            true,
	"projects":             true,
	"project_activities":   true,
	"discrepancies":        true,
	"clarifications":       true,
	"users":                true,
}

// SetLive flips is_live for one row. Setting a row to its current state is
// reported as ErrNotFound so a repeated soft delete answers 404.
func SetLive(ctx context.Context, db *sql.DB, table string, id int64, live bool) error {
	if !liveTables[table] {
		return fmt.Errorf("set live: unsupported table %q", table)
	}

	q := fmt.Sprintf(`UPDATE %s SET is_live = $2, updated_at = now() WHERE id = $1 AND is_live <> $2`, table)
	result, err := db.ExecContext(ctx, q, id, live)
	if err != nil {
		return MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
