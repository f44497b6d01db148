/*
date.go - Civil dates and business time zone handling

PURPOSE:
  Every work-hour and holiday comparison in this system happens on the
  calendar of ONE named business time zone. This file owns the conversion
  between absolute instants (time.Time) and civil calendar days (Date).

WHY A SEPARATE DATE TYPE:
  A holiday is a calendar day, not an instant. Storing it as time.Time
  invites comparisons like "2024-01-01T00:00:00Z == start of day in Taipei",
  which silently shift the holiday by one day. Date has no zone at all;
  instants are converted with DateIn(t, loc) before comparison.

PARSING:
  ParseDate:      "2006-01-02" -> Date (no zone involved)
  ParseTimestamp: user-entered wall-clock values are interpreted in the
                  business zone; RFC3339 values keep their own offset.
  ParseHolidayDate: a date, or an RFC3339 instant reduced to the business
                  day that contains it.

SEE ALSO:
  - calendar.go: Holiday and HolidayCalendar
  - hours.go:    The billable-hours calculator
*/
package workcal

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // business zone must resolve even without system zoneinfo
)

// DefaultZone is the business time zone of the observed deployment.
const DefaultZone = "Asia/Taipei"

// LoadZone resolves a business time zone by IANA name.
// An empty name resolves to DefaultZone; "Local" is rejected so the
// calculation never depends on the host's ambient zone.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	if strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("business time zone must be named explicitly, got %q", name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load business time zone %q: %w", name, err)
	}
	return loc, nil
}

// =============================================================================
// DATE - Civil calendar day
// =============================================================================

// Date is a calendar day with no time-of-day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// NewDate normalizes overflowing values (e.g. Jan 32 -> Feb 1).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateIn returns the calendar day containing t in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	lt := t.In(loc)
	return Date{Year: lt.Year(), Month: lt.Month(), Day: lt.Day()}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// ParseHolidayDate reads a holiday as a civil date ("2024-01-01") or an
// RFC3339 instant. Instants, such as the UTC-midnight timestamps other
// systems export, are normalized to their calendar day in loc.
func ParseHolidayDate(s string, loc *time.Location) (Date, error) {
	if d, err := ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or an RFC3339 instant", s)
	}
	return DateIn(t, loc), nil
}

// At returns the instant at hh:mm on d in loc.
func (d Date) At(loc *time.Location, hour, minute int) time.Time {
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

func (d Date) AddDays(n int) Date { return NewDate(d.Year, d.Month, d.Day+n) }
func (d Date) Weekday() time.Weekday { return d.At(time.UTC, 0, 0).Weekday() }
func (d Date) IsWeekend() bool { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) String() string { return d.At(time.UTC, 0, 0).Format(dateLayout) }
func (d Date) Before(other Date) bool { return d.compare(other) < 0 }
func (d Date) After(other Date) bool { return d.compare(other) > 0 }

func (d Date) compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return d.Year - other.Year
	case d.Month != other.Month:
		return int(d.Month) - int(other.Month)
	default:
		return d.Day - other.Day
	}
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD date.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// TIMESTAMPS
// =============================================================================

// wallClockLayouts carry no offset and are read in the business zone.
var wallClockLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses a user-entered timestamp.
// Wall-clock forms are interpreted in loc; RFC3339 keeps its own offset.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (use YYYY-MM-DDTHH:MM or RFC3339)", s)
}
