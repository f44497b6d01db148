// Package store provides leave.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance/leave"
	"github.com/warp/attendance/workcal"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	requests map[string]leave.Request
	holidays map[string]workcal.Holiday
}

var _ leave.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		requests: make(map[string]leave.Request),
		holidays: make(map[string]workcal.Holiday),
	}
}

// SaveRequest inserts or replaces a request.
func (m *Memory) SaveRequest(_ context.Context, r leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = cloneRequest(r)
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	out := cloneRequest(r)
	return &out, nil
}

func (m *Memory) ListRequests(_ context.Context, filter leave.RequestFilter) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []leave.Request
	for _, r := range m.requests {
		if filter.Matches(r) {
			out = append(out, cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateHours(_ context.Context, id string, hours decimal.Decimal, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.requests[id]
	if !ok {
		return leave.ErrRequestNotFound
	}
	r.Hours = hours
	r.UpdatedAt = at
	m.requests[id] = r
	return nil
}

// SaveHoliday inserts or replaces a holiday by ID. A different holiday on
// the same date is a conflict.
func (m *Memory) SaveHoliday(_ context.Context, h workcal.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.holidays {
		if id != h.ID && existing.Date == h.Date {
			return leave.ErrDuplicateHoliday
		}
	}
	m.holidays[h.ID] = h
	return nil
}

func (m *Memory) DeleteHoliday(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holidays[id]; !ok {
		return leave.ErrHolidayNotFound
	}
	delete(m.holidays, id)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context) ([]workcal.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]workcal.Holiday, 0, len(m.holidays))
	for _, h := range m.holidays {
		out = append(out, h)
	}
	workcal.SortHolidays(out)
	return out, nil
}

// Reset clears all data.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = make(map[string]leave.Request)
	m.holidays = make(map[string]workcal.Holiday)
}

func cloneRequest(r leave.Request) leave.Request {
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		r.ReviewedAt = &t
	}
	return r
}
