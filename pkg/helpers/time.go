package helpers

import (
	"strings"
	"time"
)

// LoadLocation resolves an IANA zone name, falling back to UTC on empty or
// unknown names.
func LoadLocation(name string) *time.Location {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CalendarDay returns the civil date of t as observed in loc, expressed as
// midnight UTC of that date. Two instants fall on the same economy day iff
// their CalendarDay values are equal.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
