package workcal_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance/workcal"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func taipei(t *testing.T) *time.Location {
	t.Helper()
	loc, err := workcal.LoadZone("Asia/Taipei")
	require.NoError(t, err)
	return loc
}

func span(t *testing.T, loc *time.Location, start, end string) workcal.TimeSpan {
	t.Helper()
	s, err := workcal.ParseTimestamp(start, loc)
	require.NoError(t, err)
	e, err := workcal.ParseTimestamp(end, loc)
	require.NoError(t, err)
	return workcal.TimeSpan{Start: s, End: e}
}

func holidays(t *testing.T, dates ...string) *workcal.HolidaySet {
	t.Helper()
	var hs []workcal.Holiday
	for _, s := range dates {
		d, err := workcal.ParseDate(s)
		require.NoError(t, err)
		hs = append(hs, workcal.Holiday{Date: d, Name: "holiday " + s})
	}
	return workcal.NewHolidaySet(hs)
}

func assertHours(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, decimal.NewFromFloat(want).Equal(got), "expected %v hours, got %s", want, got)
}

// =============================================================================
// SINGLE DAY
// =============================================================================

func TestBillableHours_SingleDay(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	tests := []struct {
		name       string
		start, end string
		want       float64
	}{
		{"full work window", "2024-03-01T08:30", "2024-03-01T17:30", 8},
		{"exactly lunch", "2024-03-01T12:00", "2024-03-01T13:00", 0},
		{"clamped on both ends", "2024-03-01T08:00", "2024-03-01T18:00", 8},
		{"morning only", "2024-03-01T08:30", "2024-03-01T12:00", 3.5},
		{"afternoon only", "2024-03-01T13:00", "2024-03-01T17:30", 4.5},
		{"straddles lunch start", "2024-03-01T11:00", "2024-03-01T12:30", 1},
		{"straddles lunch end", "2024-03-01T12:30", "2024-03-01T14:00", 1},
		{"before work starts", "2024-03-01T06:00", "2024-03-01T08:30", 0},
		{"after work ends", "2024-03-01T17:30", "2024-03-01T22:00", 0},
		{"rounds 10 minutes down", "2024-03-01T09:00", "2024-03-01T09:10", 0},
		{"rounds 15 minutes up", "2024-03-01T09:00", "2024-03-01T09:15", 0.5},
		{"rounds 50 minutes up", "2024-03-01T09:00", "2024-03-01T09:50", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.BillableHours(span(t, loc, tt.start, tt.end), nil)
			assertHours(t, tt.want, got)
		})
	}
}

func TestBillableHours_EmptyOrInvertedSpanIsZero(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	same := span(t, loc, "2024-03-01T09:00", "2024-03-01T09:00")
	assertHours(t, 0, calc.BillableHours(same, nil))

	inverted := span(t, loc, "2024-03-04T17:30", "2024-03-01T08:30")
	assertHours(t, 0, calc.BillableHours(inverted, nil))
	assert.Nil(t, calc.Breakdown(inverted, nil))
}

func TestBillableHours_NonWorkingDayIsZero(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	// 2024-03-02 is a Saturday, 2024-03-03 a Sunday.
	assertHours(t, 0, calc.BillableHours(span(t, loc, "2024-03-02T08:30", "2024-03-02T17:30"), nil))
	assertHours(t, 0, calc.BillableHours(span(t, loc, "2024-03-03T00:00", "2024-03-03T23:59"), nil))

	newYear := span(t, loc, "2024-01-01T08:30", "2024-01-01T17:30")
	assertHours(t, 0, calc.BillableHours(newYear, holidays(t, "2024-01-01")))
}

// =============================================================================
// MULTI DAY
// =============================================================================

func TestBillableHours_MultiDay(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	// Friday to Monday skips the weekend.
	assertHours(t, 16, calc.BillableHours(span(t, loc, "2024-03-01T08:30", "2024-03-04T17:30"), nil))

	// Partial first and last days.
	assertHours(t, 16, calc.BillableHours(span(t, loc, "2024-03-04T13:00", "2024-03-06T12:00"), nil))

	// A holiday in the middle of the week.
	week := span(t, loc, "2024-03-04T08:30", "2024-03-08T17:30")
	assertHours(t, 40, calc.BillableHours(week, nil))
	assertHours(t, 32, calc.BillableHours(week, holidays(t, "2024-03-06")))
}

func TestBreakdown_ListsEveryDayTouched(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	days := calc.Breakdown(span(t, loc, "2024-03-01T08:30", "2024-03-04T10:30"), nil)
	require.Len(t, days, 4)

	assert.Equal(t, "2024-03-01", days[0].Date.String())
	assert.True(t, days[0].Workday)
	assert.Equal(t, 8*time.Hour, days[0].Billable)

	assert.False(t, days[1].Workday)
	assert.False(t, days[2].Workday)
	assert.Zero(t, days[2].Billable)

	assert.True(t, days[3].Workday)
	assert.Equal(t, 2*time.Hour, days[3].Billable)
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestBillableHours_IdempotentAndHalfHourMultiples(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)
	cal := holidays(t, "2024-03-06")
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)

	for startMin := 0; startMin < 24*60; startMin += 37 {
		for length := 0; length < 3*24*60; length += 211 {
			s := workcal.TimeSpan{
				Start: base.Add(time.Duration(startMin) * time.Minute),
				End:   base.Add(time.Duration(startMin+length) * time.Minute),
			}
			first := calc.BillableHours(s, cal)
			second := calc.BillableHours(s, cal)
			require.True(t, first.Equal(second))
			require.False(t, first.IsNegative())
			require.True(t, first.Mul(decimal.NewFromInt(2)).IsInteger(), "not a half-hour multiple: %s", first)
		}
	}
}

func TestBillableHours_HolidayMonotonicity(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)
	s := span(t, loc, "2024-03-04T10:00", "2024-03-07T15:00")

	without := calc.BillableHours(s, nil)
	for _, day := range []string{"2024-03-04", "2024-03-05", "2024-03-07", "2024-03-09", "2024-03-20"} {
		with := calc.BillableHours(s, holidays(t, day))
		assert.True(t, with.LessThanOrEqual(without), "adding %s increased hours", day)
	}

	cal := holidays(t, "2024-03-05", "2024-03-06")
	withBoth := calc.BillableHours(s, cal)
	withOne := calc.BillableHours(s, holidays(t, "2024-03-05"))
	assert.True(t, withOne.GreaterThanOrEqual(withBoth), "removing a holiday decreased hours")
}

// =============================================================================
// TIME ZONE HANDLING
// =============================================================================

func TestBillableHours_DayBoundariesUseBusinessZone(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	// 00:30Z on Friday is 08:30 in Taipei; 09:30Z is 17:30.
	s := workcal.TimeSpan{
		Start: time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	assertHours(t, 8, calc.BillableHours(s, nil))

	// RFC3339 input keeps its own offset.
	assertHours(t, 8, calc.BillableHours(span(t, loc, "2024-03-01T00:30:00Z", "2024-03-01T09:30:00Z"), nil))
}

func TestParseHolidayDate_NormalizesInstantsToBusinessDay(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)

	tests := []struct {
		name  string
		input string
		want  workcal.Date
	}{
		{"civil date", "2024-01-01", workcal.NewDate(2024, time.January, 1)},
		// Taipei midnight of Jan 1 is Dec 31 16:00 UTC; a naive UTC date
		// would shift the holiday to Dec 31.
		{"taipei midnight as UTC", "2023-12-31T16:00:00Z", workcal.NewDate(2024, time.January, 1)},
		{"UTC midnight", "2024-01-01T00:00:00Z", workcal.NewDate(2024, time.January, 1)},
		{"explicit offset", "2024-01-01T00:00:00+08:00", workcal.NewDate(2024, time.January, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workcal.ParseHolidayDate(tt.input, loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			cal := workcal.NewHolidaySet([]workcal.Holiday{{Date: got, Name: "New Year"}})
			assert.False(t, cal.IsHoliday(workcal.NewDate(2023, time.December, 31)))
			assertHours(t, 0, calc.BillableHours(span(t, loc, "2024-01-01T08:30", "2024-01-01T17:30"), cal))
		})
	}

	for _, bad := range []string{"", "01/01/2024", "2024-01-01T00:00"} {
		_, err := workcal.ParseHolidayDate(bad, loc)
		assert.Error(t, err, bad)
	}
}

func TestHolidaySet_Lookup(t *testing.T) {
	d := workcal.NewDate(2024, time.October, 10)
	cal := workcal.NewHolidaySet([]workcal.Holiday{
		{ID: "a", Date: d, Name: "National Day"},
		{ID: "b", Date: d, Name: "Duplicate"},
	})

	assert.Equal(t, 1, cal.Len())
	h, ok := cal.Lookup(d)
	require.True(t, ok)
	assert.Equal(t, "National Day", h.Name)

	_, ok = cal.Lookup(d.AddDays(1))
	assert.False(t, ok)

	var empty *workcal.HolidaySet
	assert.Zero(t, empty.Len())
	_, ok = empty.Lookup(d)
	assert.False(t, ok)
}

func TestTotalHours_MatchesBillableHours(t *testing.T) {
	loc := taipei(t)
	calc := workcal.NewCalculator(loc)
	s := span(t, loc, "2024-03-01T10:10", "2024-03-05T15:20")

	days := calc.Breakdown(s, nil)
	assert.True(t, calc.BillableHours(s, nil).Equal(workcal.TotalHours(days)))
	assert.True(t, workcal.TotalHours(nil).IsZero())
}

func TestPackageBillableHours_UsesDefaultZone(t *testing.T) {
	loc := taipei(t)
	assert.Equal(t, workcal.DefaultZone, workcal.Default().Location().String())
	assertHours(t, 8, workcal.BillableHours(span(t, loc, "2024-03-01T08:30", "2024-03-01T17:30"), workcal.NoHolidays{}))
}

func TestNewCalculator_NilZonePanics(t *testing.T) {
	assert.Panics(t, func() { workcal.NewCalculator(nil) })
}
