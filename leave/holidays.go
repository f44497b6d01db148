package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warp/attendance/workcal"
)

// =============================================================================
// HOLIDAY CALENDAR OPERATIONS
// =============================================================================
//
// Every mutation re-bills the requests in scope before returning, so the
// hours a caller reads after AddHoliday/RemoveHoliday already reflect the
// new calendar. The mutation itself is kept even when the sweep fails; the
// sweep error is a *RecalcError and can be retried with RecalculateHours.

func (s *Service) ListHolidays(ctx context.Context) ([]workcal.Holiday, error) {
	return s.store.ListHolidays(ctx)
}

// AddHoliday records a holiday and re-bills requests. date is YYYY-MM-DD
// or an RFC3339 instant, which is normalized to its business-zone day.
func (s *Service) AddHoliday(ctx context.Context, date, name string) (workcal.Holiday, RecalcReport, error) {
	d, err := workcal.ParseHolidayDate(date, s.calc.Location())
	if err != nil {
		return workcal.Holiday{}, RecalcReport{}, &ValidationError{Field: "date", Message: err.Error()}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return workcal.Holiday{}, RecalcReport{}, &ValidationError{Field: "name", Message: "is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := workcal.Holiday{ID: s.newID(), Date: d, Name: name}
	if err := s.store.SaveHoliday(ctx, h); err != nil {
		return workcal.Holiday{}, RecalcReport{}, err
	}
	s.logger.Info("holiday added", zap.String("holiday_id", h.ID), zap.Stringer("date", h.Date))

	report, err := s.recalculateLocked(ctx)
	return h, report, err
}

// AddHolidays records several holidays and re-bills once. Dates already
// on the calendar are skipped, not treated as errors. When a save fails
// part way, the holidays stored before it are kept and still re-billed;
// the returned error joins the save failure with any sweep failure.
func (s *Service) AddHolidays(ctx context.Context, holidays []workcal.Holiday) ([]workcal.Holiday, RecalcReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []workcal.Holiday
	for _, h := range holidays {
		if h.ID == "" {
			h.ID = s.newID()
		}
		err := s.store.SaveHoliday(ctx, h)
		if errors.Is(err, ErrDuplicateHoliday) {
			continue
		}
		if err != nil {
			saveErr := fmt.Errorf("save holiday %s: %w", h.Date, err)
			if len(added) == 0 {
				return nil, RecalcReport{}, saveErr
			}
			s.logger.Warn("holiday batch interrupted",
				zap.Int("added", len(added)),
				zap.Error(err),
			)
			report, recalcErr := s.recalculateLocked(ctx)
			return added, report, errors.Join(saveErr, recalcErr)
		}
		added = append(added, h)
	}
	s.logger.Info("holidays added", zap.Int("requested", len(holidays)), zap.Int("added", len(added)))

	report, err := s.recalculateLocked(ctx)
	return added, report, err
}

// RemoveHoliday deletes a holiday and re-bills requests.
func (s *Service) RemoveHoliday(ctx context.Context, id string) (RecalcReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteHoliday(ctx, id); err != nil {
		return RecalcReport{}, err
	}
	s.logger.Info("holiday removed", zap.String("holiday_id", id))

	return s.recalculateLocked(ctx)
}

// NationalHolidays returns the fixed-date national holidays observed in the
// business zone for year. Lunar-calendar and make-up days are announced
// yearly and must be added individually.
func NationalHolidays(year int) []workcal.Holiday {
	fixed := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "Founding Day"},
		{time.February, 28, "Peace Memorial Day"},
		{time.April, 4, "Children's Day"},
		{time.May, 1, "Labor Day"},
		{time.October, 10, "National Day"},
	}

	holidays := make([]workcal.Holiday, 0, len(fixed))
	for _, f := range fixed {
		holidays = append(holidays, workcal.Holiday{
			Date: workcal.NewDate(year, f.month, f.day),
			Name: f.name,
		})
	}
	return holidays
}
