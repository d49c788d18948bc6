package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError translates driver errors into the shared sentinels. Errors it does
// not recognise are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrNotFound
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w (%s)", errs.ErrConflict, pgErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w (%s)", errs.ErrInvalidReference, pgErr.Constraint)
		case codeCheckViolation:
			return errs.Invalid(fmt.Sprintf("check constraint %s violated", pgErr.Constraint))
		}
	}
	return err
}
