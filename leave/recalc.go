/*
recalc.go - Re-billing requests after a holiday calendar change

PURPOSE:
  Request hours are derived data: a function of the request's span and
  the holiday calendar. When the calendar changes, every request in scope
  is recomputed from its own stored span and the new calendar.

SCOPE:
  ScopeOpen (default):  pending AND approved requests. An approved
                        request's hours can change after approval if an
                        admin edits the calendar later.
  ScopePendingOnly:     approved requests stay as billed.
  Rejected and cancelled requests are never touched.

FAILURE HANDLING:
  The sweep is not atomic across requests. A failed update is logged,
  recorded in the report, and the sweep moves on. Only failing to load
  the calendar or the request list aborts the sweep.

IDEMPOTENCE:
  Recomputing twice against the same calendar writes nothing the second
  time: unchanged hours are counted but not persisted.
*/
package leave

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RecalcFailure records one request whose hours could not be updated.
type RecalcFailure struct {
	RequestID string
	Err       error
}

// RecalcReport summarizes one sweep.
type RecalcReport struct {
	Scope     RecalcScope
	Scanned   int
	Updated   int
	Unchanged int
	Failures  []RecalcFailure
}

func (r RecalcReport) Failed() int { return len(r.Failures) }

// RecalculateHours re-bills every request in scope against the current
// calendar.
func (s *Service) RecalculateHours(ctx context.Context) (RecalcReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recalculateLocked(ctx)
}

func (s *Service) recalculateLocked(ctx context.Context) (RecalcReport, error) {
	report := RecalcReport{Scope: s.scope}

	cal, err := s.calendar(ctx)
	if err != nil {
		return report, &RecalcError{Err: err}
	}
	requests, err := s.store.ListRequests(ctx, RequestFilter{Statuses: s.scope.Statuses()})
	if err != nil {
		return report, &RecalcError{Err: fmt.Errorf("list requests: %w", err)}
	}

	now := s.now()
	for _, r := range requests {
		if err := ctx.Err(); err != nil {
			return report, &RecalcError{Err: err}
		}
		// The filter already excludes them; a store that ignores it must
		// still never re-bill a closed request.
		if r.Status.IsFinal() {
			continue
		}
		report.Scanned++

		hours := s.calc.BillableHours(r.Span, cal)
		if hours.Equal(r.Hours) {
			report.Unchanged++
			continue
		}
		if err := s.store.UpdateHours(ctx, r.ID, hours, now); err != nil {
			s.logger.Warn("failed to update request hours",
				zap.String("request_id", r.ID),
				zap.Error(err),
			)
			report.Failures = append(report.Failures, RecalcFailure{RequestID: r.ID, Err: err})
			continue
		}
		s.logger.Debug("request hours updated",
			zap.String("request_id", r.ID),
			zap.String("from", r.Hours.String()),
			zap.String("to", hours.String()),
		)
		report.Updated++
	}

	s.logger.Info("hours recalculated",
		zap.String("scope", string(report.Scope)),
		zap.Int("holidays", cal.Len()),
		zap.Int("scanned", report.Scanned),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed()),
	)
	return report, nil
}
