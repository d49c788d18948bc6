// Package importer bulk-loads project activities and discrepancies from CSV
// files. Rows are validated up front, then copied in one transaction.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
	"github.com/qctrack/qctrack-backend/internal/logging"
	projects "github.com/qctrack/qctrack-backend/internal/projects/domain"
	qc "github.com/qctrack/qctrack-backend/internal/qc/domain"
)

// TxBeginner is satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Importer struct {
	db TxBeginner
}

func New(db TxBeginner) *Importer {
	return &Importer{db: db}
}

var (
	activityColumns    = []string{"project_id", "name", "drawing_no", "sheet_count", "planned_start", "planned_end"}
	discrepancyColumns = []string{"project_id", "drawing_no", "error_category_id", "error_sub_category_id",
		"description", "severity", "raised_by_id"}
)

// Activities imports activity rows for projectID and returns how many were
// inserted.
func (im *Importer) Activities(ctx context.Context, projectID int64, src io.Reader) (int64, error) {
	rows, err := parseActivities(projectID, src)
	if err != nil {
		return 0, err
	}
	return im.copyRows(ctx, "project_activities", activityColumns, rows, nil)
}

// Discrepancies imports discrepancy rows for projectID. Each sub-category
// must belong to the row's category.
func (im *Importer) Discrepancies(ctx context.Context, projectID int64, src io.Reader) (int64, error) {
	rows, subs, err := parseDiscrepancies(projectID, src)
	if err != nil {
		return 0, err
	}
	check := func(ctx context.Context, tx pgx.Tx) error {
		return checkSubCategories(ctx, tx, subs)
	}
	return im.copyRows(ctx, "discrepancies", discrepancyColumns, rows, check)
}

func parseActivities(projectID int64, src io.Reader) ([][]any, error) {
	recs, err := readRecords(src, []string{"name"})
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(recs))
	for _, rec := range recs {
		sheets, err := rec.count("sheet_count")
		if err != nil {
			return nil, err
		}
		start, err := rec.date("planned_start")
		if err != nil {
			return nil, err
		}
		end, err := rec.date("planned_end")
		if err != nil {
			return nil, err
		}

		in := projects.ActivityInput{
			ProjectID:    projectID,
			Name:         rec.get("name"),
			DrawingNo:    rec.get("drawing_no"),
			SheetCount:   sheets,
			PlannedStart: start,
			PlannedEnd:   end,
		}
		if err := in.Normalize(); err != nil {
			return nil, rec.wrap(err)
		}
		rows = append(rows, []any{in.ProjectID, in.Name, in.DrawingNo, in.SheetCount, pgDate(in.PlannedStart), pgDate(in.PlannedEnd)})
	}
	return rows, nil
}

// subCategoryRef remembers which line named a sub-category under which
// category.
type subCategoryRef struct {
	line       int
	subID      int64
	categoryID int64
}

func parseDiscrepancies(projectID int64, src io.Reader) ([][]any, []subCategoryRef, error) {
	recs, err := readRecords(src, []string{"error_category_id", "description", "raised_by_id"})
	if err != nil {
		return nil, nil, err
	}

	rows := make([][]any, 0, len(recs))
	var subs []subCategoryRef
	for _, rec := range recs {
		categoryID, err := rec.requiredID("error_category_id")
		if err != nil {
			return nil, nil, err
		}
		subID, err := rec.optionalID("error_sub_category_id")
		if err != nil {
			return nil, nil, err
		}
		raisedBy, err := rec.requiredID("raised_by_id")
		if err != nil {
			return nil, nil, err
		}

		in := qc.DiscrepancyInput{
			ProjectID:          projectID,
			DrawingNo:          rec.get("drawing_no"),
			ErrorCategoryID:    categoryID,
			ErrorSubCategoryID: subID,
			Description:        rec.get("description"),
			Severity:           qc.Severity(rec.get("severity")),
			RaisedByID:         raisedBy,
		}
		if err := in.Normalize(); err != nil {
			return nil, nil, rec.wrap(err)
		}

		var sub any
		if subID != nil {
			sub = *subID
			subs = append(subs, subCategoryRef{line: rec.line, subID: *subID, categoryID: categoryID})
		}
		rows = append(rows, []any{in.ProjectID, in.DrawingNo, in.ErrorCategoryID, sub,
			in.Description, string(in.Severity), in.RaisedByID})
	}
	return rows, subs, nil
}

func checkSubCategories(ctx context.Context, tx pgx.Tx, refs []subCategoryRef) error {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(refs))
	seen := make(map[int64]bool, len(refs))
	for _, ref := range refs {
		if !seen[ref.subID] {
			seen[ref.subID] = true
			ids = append(ids, ref.subID)
		}
	}

	rows, err := tx.Query(ctx, `SELECT id, error_category_id FROM error_sub_categories WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("load sub-categories: %w", err)
	}
	defer rows.Close()

	parent := make(map[int64]int64, len(ids))
	for rows.Next() {
		var id, categoryID int64
		if err := rows.Scan(&id, &categoryID); err != nil {
			return err
		}
		parent[id] = categoryID
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, ref := range refs {
		got, ok := parent[ref.subID]
		if !ok {
			return fmt.Errorf("line %d: error sub-category %d: %w", ref.line, ref.subID, errs.ErrInvalidReference)
		}
		if got != ref.categoryID {
			return fmt.Errorf("line %d: error sub-category %d does not belong to category %d: %w",
				ref.line, ref.subID, ref.categoryID, errs.ErrInvalidReference)
		}
	}
	return nil
}

func (im *Importer) copyRows(ctx context.Context, table string, cols []string, rows [][]any, check func(context.Context, pgx.Tx) error) (int64, error) {
	started := time.Now()
	tx, err := im.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	if check != nil {
		if err := check(ctx, tx); err != nil {
			return 0, err
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, mapPgError(fmt.Errorf("copy into %s: %w", table, err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	logging.FromContext(ctx).Info("import complete",
		zap.String("table", table),
		zap.Int64("rows", n),
		zap.Duration("took", time.Since(started)),
	)
	return n, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23503":
		return fmt.Errorf("%w (%s)", errs.ErrInvalidReference, pgErr.ConstraintName)
	case "23505":
		return fmt.Errorf("%w (%s)", errs.ErrConflict, pgErr.ConstraintName)
	case "23514":
		return errs.Invalid(fmt.Sprintf("check constraint %s violated", pgErr.ConstraintName))
	}
	return err
}

func pgDate(d *dates.Date) any {
	if d == nil {
		return nil
	}
	return d.In(time.UTC)
}

// wrap prefixes a validation error with the row's line number.
func (r record) wrap(err error) error {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		return r.fail("%s", verr.Message)
	}
	return fmt.Errorf("line %d: %w", r.line, err)
}
