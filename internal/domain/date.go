package domain

import (
	"fmt"
	"strings"
	"time"
)

// CalendarDate is a date with no time of day and no zone.
// The zero value means "no date".
type CalendarDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewCalendarDate builds a CalendarDate from its parts.
func NewCalendarDate(year int, month time.Month, day int) CalendarDate {
	return CalendarDate{Year: year, Month: month, Day: day}
}

// ParseCalendarDate parses "YYYY-MM-DD". Blank input yields the zero value.
func ParseCalendarDate(s string) (CalendarDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CalendarDate{}, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return CalendarDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// IsZero reports whether d is the empty date.
func (d CalendarDate) IsZero() bool {
	return d == CalendarDate{}
}

// String returns d as YYYY-MM-DD, or "" for the zero value.
func (d CalendarDate) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
