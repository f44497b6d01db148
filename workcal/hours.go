/*
hours.go - Billable leave-hour calculation

PURPOSE:
  Converts a [start, end) span into billable hours under the fixed work
  calendar: 08:30-17:30 Monday to Friday, minus the 12:00-13:00 lunch
  window, skipping weekends and holidays.

ALGORITHM (day-by-day accrual):
  1. end <= start                          -> 0
  2. walk business-zone calendar days from day(start) to day(end) inclusive
  3. for each working day:
       sub   = [start, end) ∩ [08:30, 17:30)
       lunch = sub ∩ [12:00, 13:00)
       total += |sub| - |lunch|
  4. round total to the nearest 0.5 hour

  Non-working days contribute nothing regardless of overlap. Day boundaries
  are always computed in the Calculator's zone, never time.Local.

PURITY:
  Calculator holds only a *time.Location. All context (span, calendar) is
  passed per call, so a Calculator is safe for concurrent use.

EXAMPLE:
  calc := workcal.NewCalculator(loc)
  hours := calc.BillableHours(workcal.TimeSpan{Start: s, End: e}, holidays)

SEE ALSO:
  - date.go:     Date, ParseTimestamp
  - calendar.go: HolidayCalendar
*/
package workcal

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WORK POLICY - Fixed working window
// =============================================================================

// ClockTime is a time of day in minutes resolution.
type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) on(d Date, loc *time.Location) time.Time { return d.At(loc, c.Hour, c.Minute) }

// WorkPolicy describes the daily work and lunch windows.
type WorkPolicy struct {
	WorkStart  ClockTime
	WorkEnd    ClockTime
	LunchStart ClockTime
	LunchEnd   ClockTime
}

// StandardPolicy is the company work calendar. It is not configurable.
var StandardPolicy = WorkPolicy{
	WorkStart:  ClockTime{8, 30},
	WorkEnd:    ClockTime{17, 30},
	LunchStart: ClockTime{12, 0},
	LunchEnd:   ClockTime{13, 0},
}

// =============================================================================
// TIME SPAN
// =============================================================================

// TimeSpan is a half-open interval [Start, End) of absolute instants.
type TimeSpan struct {
	Start time.Time
	End   time.Time
}

// IsEmpty reports whether the span has no positive duration.
func (s TimeSpan) IsEmpty() bool { return !s.End.After(s.Start) }

// Intersect returns the overlap of two spans. The result may be empty.
func (s TimeSpan) Intersect(other TimeSpan) TimeSpan {
	out := s
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out
}

// Duration returns the span length, or zero for empty spans.
func (s TimeSpan) Duration() time.Duration {
	if s.IsEmpty() {
		return 0
	}
	return s.End.Sub(s.Start)
}

// =============================================================================
// CALCULATOR
// =============================================================================

var (
	halfHourSteps = decimal.NewFromInt(2)
	nanosPerHour  = decimal.NewFromInt(int64(time.Hour))
)

// Calculator computes billable hours in a fixed business time zone.
type Calculator struct {
	loc    *time.Location
	policy WorkPolicy
}

// NewCalculator returns a calculator pinned to loc. A nil loc panics:
// callers resolve the zone once at startup with LoadZone.
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		panic("workcal: nil business time zone")
	}
	return &Calculator{loc: loc, policy: StandardPolicy}
}

// Location returns the business time zone.
func (c *Calculator) Location() *time.Location { return c.loc }

// IsWorkday reports whether d is a working day: not Saturday, not Sunday,
// and not in holidays. A nil calendar means no holidays.
func (c *Calculator) IsWorkday(d Date, holidays HolidayCalendar) bool {
	if d.IsWeekend() {
		return false
	}
	if holidays != nil && holidays.IsHoliday(d) {
		return false
	}
	return true
}

// DayHours is one calendar day's contribution to a span.
type DayHours struct {
	Date     Date
	Workday  bool
	Billable time.Duration
}

// Breakdown returns the per-day contribution of span, one entry for each
// calendar day the span touches. Empty spans yield nil.
func (c *Calculator) Breakdown(span TimeSpan, holidays HolidayCalendar) []DayHours {
	if span.IsEmpty() {
		return nil
	}

	first := DateIn(span.Start, c.loc)
	last := DateIn(span.End, c.loc)

	var days []DayHours
	for d := first; !d.After(last); d = d.AddDays(1) {
		entry := DayHours{Date: d, Workday: c.IsWorkday(d, holidays)}
		if entry.Workday {
			entry.Billable = c.dayBillable(d, span)
		}
		days = append(days, entry)
	}
	return days
}

func (c *Calculator) dayBillable(d Date, span TimeSpan) time.Duration {
	window := TimeSpan{Start: c.policy.WorkStart.on(d, c.loc), End: c.policy.WorkEnd.on(d, c.loc)}
	sub := span.Intersect(window)
	if sub.IsEmpty() {
		return 0
	}
	lunch := TimeSpan{Start: c.policy.LunchStart.on(d, c.loc), End: c.policy.LunchEnd.on(d, c.loc)}
	return sub.Duration() - sub.Intersect(lunch).Duration()
}

// BillableHours returns the billable hours of span, rounded to the nearest
// 0.5. The result is never negative.
func (c *Calculator) BillableHours(span TimeSpan, holidays HolidayCalendar) decimal.Decimal {
	return TotalHours(c.Breakdown(span, holidays))
}

// TotalHours sums a breakdown and rounds it to the nearest 0.5, so callers
// that already hold a breakdown need not walk the span again.
func TotalHours(days []DayHours) decimal.Decimal {
	var total time.Duration
	for _, day := range days {
		total += day.Billable
	}
	return RoundHalfHour(DurationHours(total))
}

// DurationHours converts a duration into exact decimal hours.
func DurationHours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(nanosPerHour)
}

// RoundHalfHour rounds hours to the nearest multiple of 0.5, ties away
// from zero.
func RoundHalfHour(hours decimal.Decimal) decimal.Decimal {
	return hours.Mul(halfHourSteps).Round(0).Div(halfHourSteps)
}

var defaultCalculator = func() *Calculator {
	loc, err := LoadZone(DefaultZone)
	if err != nil {
		panic(err)
	}
	return NewCalculator(loc)
}()

// Default returns the calculator for DefaultZone.
func Default() *Calculator { return defaultCalculator }

// BillableHours computes billable hours in DefaultZone.
func BillableHours(span TimeSpan, holidays HolidayCalendar) decimal.Decimal {
	return defaultCalculator.BillableHours(span, holidays)
}
