package postgres

// RowScanner is implemented by both *sql.Row and *sql.Rows so repositories can
// share one scan function per record type.
type RowScanner interface {
	Scan(dest ...any) error
}
