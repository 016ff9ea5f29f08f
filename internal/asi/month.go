package asi

import (
	"fmt"
	"time"
)

// MonthFloor normalizes a timestamp to the first of its month, UTC.
func MonthFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth accepts "YYYY-MM" or "YYYY-MM-DD" (day ignored) and returns
// the first of that month, UTC.
func ParseMonth(s string) (time.Time, error) {
	if len(s) < 7 {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM or YYYY-MM-01, got %q", s)
	}
	t, err := time.Parse("2006-01", s[:7])
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM or YYYY-MM-01, got %q", s)
	}
	return t, nil
}

// FormatMonth renders a month as the first-of-month date string used
// throughout the table and API ("2006-01-02").
func FormatMonth(t time.Time) string {
	return MonthFloor(t).Format("2006-01-02")
}
