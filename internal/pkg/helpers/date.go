package helpers

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (payment_date, expense_date).
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date ("2024-01-10") or a full RFC3339 timestamp
// and returns midnight UTC of that calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	return TruncateDay(t), nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TruncateDay drops the clock part, keeping the calendar day as written.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// InDateRange reports whether day falls in [from, to]; nil bounds are open.
func InDateRange(day time.Time, from, to *time.Time) bool {
	day = TruncateDay(day)
	if from != nil && day.Before(TruncateDay(*from)) {
		return false
	}
	if to != nil && day.After(TruncateDay(*to)) {
		return false
	}
	return true
}

// ParseDuration parses s, returning def when s is empty or malformed.
func ParseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
