package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/qctrack/qctrack-backend/internal/api/errs"
	"github.com/qctrack/qctrack-backend/internal/dates"
)

// record is one data row addressed by lower-cased header name.
type record struct {
	line   int
	fields []string
	idx    map[string]int
}

func (r record) get(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r record) fail(format string, args ...any) error {
	return errs.Invalid(fmt.Sprintf("line %d: %s", r.line, fmt.Sprintf(format, args...)))
}

func (r record) optionalID(col string) (*int64, error) {
	raw := r.get(col)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, r.fail("%s must be a positive integer, got %q", col, raw)
	}
	return &v, nil
}

func (r record) requiredID(col string) (int64, error) {
	v, err := r.optionalID(col)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, r.fail("%s is required", col)
	}
	return *v, nil
}

func (r record) count(col string) (int, error) {
	raw := r.get(col)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, r.fail("%s must be an integer, got %q", col, raw)
	}
	return v, nil
}

func (r record) date(col string) (*dates.Date, error) {
	raw := r.get(col)
	if raw == "" {
		return nil, nil
	}
	d, err := dates.Parse(raw)
	if err != nil {
		return nil, r.fail("%s must be a date (%s), got %q", col, dates.Layout, raw)
	}
	return &d, nil
}

// readRecords reads the header and every data row. Header names are matched
// case-insensitively and every name in required must be present.
func readRecords(src io.Reader, required []string) ([]record, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, errs.Invalid("csv file is empty")
	}
	if err != nil {
		return nil, errs.Invalid(fmt.Sprintf("read csv header: %v", err))
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		idx[h] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errs.Invalid("missing columns: " + strings.Join(missing, ", "))
	}

	var out []record
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Invalid(fmt.Sprintf("read csv: %v", err))
		}
		line, _ := r.FieldPos(0)
		if blank(fields) {
			continue
		}
		out = append(out, record{line: line, fields: fields, idx: idx})
	}
	if len(out) == 0 {
		return nil, errs.Invalid("csv file has no data rows")
	}
	return out, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
