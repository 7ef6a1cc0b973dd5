package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Date is a calendar day stored at midnight UTC.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in t's own location and re-anchors it at UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", raw, err)
	}
	return Date{t}, nil
}

// MustDate parses raw and panics on failure. Intended for fixtures.
func MustDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Time.After(other.Time) }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

// Equal reports whether both dates are the same day.
func (d Date) Equal(other Date) bool { return d.Time.Equal(other.Time) }

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if parsed, err := ParseDate(raw); err == nil {
		*d = parsed
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q", raw)
	}
	*d = NewDate(t)
	return nil
}

// Value stores the date as an ISO string.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan reads DATE columns returned as time.Time or text.
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		*d = NewDate(v)
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("unsupported type %T for Date", value)
	}
	return nil
}

func (d *Date) scanString(raw string) error {
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
