package workcal

import "sort"

// =============================================================================
// HOLIDAY CALENDAR - Admin-configured non-working dates
// =============================================================================

// Holiday is a company holiday. Name is a free-text label and plays no part
// in the calculation.
type Holiday struct {
	ID   string
	Date Date
	Name string
}

// HolidayCalendar provides holiday lookup by business-zone calendar day.
type HolidayCalendar interface {
	IsHoliday(date Date) bool
}

// HolidaySet is an immutable HolidayCalendar snapshot.
type HolidaySet struct {
	byDate map[Date]Holiday
}

// NewHolidaySet builds a calendar from holiday records. When two records
// share a date the first one wins; the date is a holiday either way.
func NewHolidaySet(holidays []Holiday) *HolidaySet {
	set := &HolidaySet{byDate: make(map[Date]Holiday, len(holidays))}
	for _, h := range holidays {
		if _, ok := set.byDate[h.Date]; !ok {
			set.byDate[h.Date] = h
		}
	}
	return set
}

func (s *HolidaySet) IsHoliday(date Date) bool {
	if s == nil {
		return false
	}
	_, ok := s.byDate[date]
	return ok
}

// Lookup returns the holiday recorded for date.
func (s *HolidaySet) Lookup(date Date) (Holiday, bool) {
	if s == nil {
		return Holiday{}, false
	}
	h, ok := s.byDate[date]
	return h, ok
}

// Len returns the number of holiday dates.
func (s *HolidaySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.byDate)
}

// NoHolidays is a calendar with no holidays.
type NoHolidays struct{}

func (NoHolidays) IsHoliday(Date) bool { return false }

// SortHolidays orders holidays by date, then name.
func SortHolidays(holidays []Holiday) {
	sort.Slice(holidays, func(i, j int) bool {
		if holidays[i].Date != holidays[j].Date {
			return holidays[i].Date.Before(holidays[j].Date)
		}
		return holidays[i].Name < holidays[j].Name
	})
}
