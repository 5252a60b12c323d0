package model

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used for AppliedDate.
const DateLayout = "2006-01-02"

// ParseDate validates an ISO "YYYY-MM-DD" date. The exact layout is
// required: "2026-1-5" is rejected because it would not sort correctly as
// a string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// MonthKey returns the "YYYY-MM" bucket for an ISO date: its first seven
// characters. Shorter input is returned unchanged.
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// FormatShort renders "Feb 10".
func FormatShort(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}

// FormatMedium renders "Feb 10, 2026".
func FormatMedium(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

// FormatLong renders "Tue, February 10, 2026", the detail view format.
func FormatLong(date string) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format("Mon, January 2, 2006")
}

// FormatMonthYear renders a "YYYY-MM" key as "Feb 2026".
func FormatMonthYear(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
