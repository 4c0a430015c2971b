// Package dateutil provides timezone-naive calendar date arithmetic.
// A Date is a caregiver-local calendar day with no time-of-day or zone
// attached; resolution to an absolute instant happens only at reminder
// scheduling time.
package dateutil

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format for dates.
const Layout = "2006-01-02"

// Date is a calendar day (year, month, day) with no location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns a normalized Date. Out-of-range components roll over
// the way time.Date does (day 0 becomes the last day of the prior month).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Parse parses a date in the 2006-01-02 layout.
func Parse(s string) (Date, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Today returns the current calendar day in the given location.
func Today(loc *time.Location) Date {
	now := time.Now().In(loc)
	return Date{Year: now.Year(), Month: now.Month(), Day: now.Day()}
}

// String formats the date in the 2006-01-02 layout.
func (d Date) String() string {
	return d.toTime(time.UTC).Format(Layout)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday {
	return d.toTime(time.UTC).Weekday()
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	t := d.toTime(time.UTC).AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// AddMonths returns the date n months after d, clamping the day of month
// to the target month's length rather than rolling over (Jan 31 + 1 month
// is Feb 28/29, not Mar 2/3).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.toTime(time.UTC).Before(other.toTime(time.UTC))
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return other.Before(d)
}

// DaysUntil returns the number of calendar days from d to other
// (negative if other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.toTime(time.UTC).Sub(d.toTime(time.UTC)) / (24 * time.Hour))
}

// At resolves the date plus a local time-of-day to an absolute instant
// in the given location.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

// MarshalText implements encoding.TextMarshaler (dates appear in JSON
// payloads and as map keys).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) toTime(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// ParseClock parses an "HH:MM" local time-of-day into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
