package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used in the dataset resource.
const DateLayout = "2006-01-02"

// NewDate returns the calendar day y-m-d at UTC midnight.
func NewDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the time-of-day component of t, keeping its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses an ISO-like date string. A trailing time part separated by
// 'T' or a space ("2024-01-02T00:00:00", "2024-01-02 00:00:00") is ignored.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == 'T' || s[len(DateLayout)] == ' ') {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddMonths moves t by n calendar months. The day of month is kept, clamped to
// the last day of the target month (March 31 minus one month is February 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	y += floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)
	if last := daysIn(y, month); d > last {
		d = last
	}
	return NewDate(y, month, d)
}

// AddYears moves t by n calendar years with the same clamping as AddMonths.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

func daysIn(y int, m time.Month) int {
	// Day 0 of the next month is the last day of m.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
