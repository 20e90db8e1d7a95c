// Package timestamp converts calendar dates picked by a user into
// offset-qualified timestamps and renders backend timestamps for display.
package timestamp

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"shortlink-client/internal/domain"
)

const (
	// OffsetLayout always spells the offset as ±HH:MM, UTC included.
	OffsetLayout = "2006-01-02T15:04:05-07:00"

	// DisplayLayout is used by FormatForDisplay.
	DisplayLayout = "Jan 2, 2006, 3:04 PM MST"

	NotSet = "Not set"
	Never  = "Never"
)

// Normalizer turns calendar dates into local-midnight timestamps for one location.
type Normalizer struct {
	loc *time.Location
}

// New creates a Normalizer for loc. A nil loc means time.Local.
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone the normalizer works in.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// ToOffsetTimestamp returns local midnight of date, formatted with the UTC
// offset in effect at that instant. It returns nil for the zero date.
//
// The date component of the result, read in the encoded offset, is always
// date itself.
func (n *Normalizer) ToOffsetTimestamp(date domain.CalendarDate) *string {
	if date.IsZero() {
		return nil
	}

	t := n.localMidnight(date)
	s := t.Format(OffsetLayout)
	return &s
}

// localMidnight builds 00:00:00 on date in n.loc. When midnight falls in a
// DST gap, time.Date may normalize into the previous day; in that case the
// first existing hour of date is used instead.
func (n *Normalizer) localMidnight(date domain.CalendarDate) time.Time {
	t := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, n.loc)
	for i := 0; i < 24 && !sameDate(t, date); i++ {
		t = t.Add(time.Hour)
	}
	return t
}

func sameDate(t time.Time, date domain.CalendarDate) bool {
	y, m, d := t.Date()
	return y == date.Year && m == date.Month && d == date.Day
}

// DecodeCalendarDate parses an RFC 3339 timestamp and returns its date in
// the offset the timestamp carries.
func DecodeCalendarDate(s string) (domain.CalendarDate, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return domain.CalendarDate{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	y, m, d := t.Date()
	return domain.NewCalendarDate(y, m, d), nil
}

// FormatForDisplay renders a backend timestamp in the normalizer's location.
// Empty input yields "Not set"; unparsable input is returned verbatim.
func (n *Normalizer) FormatForDisplay(value string) string {
	if strings.TrimSpace(value) == "" {
		return NotSet
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.In(n.loc).Format(DisplayLayout)
}

// FormatLastAccessed renders a last-access timestamp, "Never" when absent.
func (n *Normalizer) FormatLastAccessed(value string) string {
	if strings.TrimSpace(value) == "" {
		return Never
	}
	return n.FormatForDisplay(value)
}

// FormatCount renders a click tally with thousands separators.
// Negative counts are shown as 0.
func FormatCount(v int64) string {
	return humanize.Comma(max(v, 0))
}
