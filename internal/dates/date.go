// Package dates provides the calendar date used for planned/actual dates. It
// wraps civil.Date with JSON and database/sql support.
package dates

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Layout is the wire and CSV format of a Date.
const Layout = "2006-01-02"

type Date struct {
	civil.Date
}

func Of(t time.Time) Date {
	return Date{civil.DateOf(t)}
}

func New(year int, month time.Month, day int) Date {
	return Date{civil.Date{Year: year, Month: month, Day: day}}
}

// UTC is the calendar date of t in UTC. Server-side stamps use it so the
// stored date does not depend on the host's zone.
func UTC(t time.Time) Date {
	return Of(t.UTC())
}

// Parse accepts "2006-01-02" or an RFC 3339 timestamp, keeping only the date.
func Parse(s string) (Date, error) {
	if d, err := civil.ParseDate(s); err == nil {
		return Date{d}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %s", s, Layout)
	}
	return Of(t), nil
}

func (d Date) IsZero() bool {
	return d.Date == civil.Date{}
}

func (d Date) Before(o Date) bool {
	return d.Date.Before(o.Date)
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = Of(v)
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case nil:
		*d = Date{}
		return nil
	}
	return fmt.Errorf("cannot scan %T into dates.Date", src)
}

// Value implements driver.Valuer. Dates travel as "2006-01-02" text so the
// session time zone never shifts them; the zero Date is stored as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}
