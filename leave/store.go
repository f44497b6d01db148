/*
store.go - Persistence interfaces for requests and holidays

PURPOSE:
  The service talks to storage only through these interfaces. There is no
  package-level cache of requests or holidays; every operation reads what
  it needs from the store it was given.

IMPLEMENTATIONS:
  - leave/store/memory.go:  In-memory, for tests and local runs
  - store/sqlite/sqlite.go: SQLite

CONTRACT:
  GetRequest / DeleteHoliday return ErrRequestNotFound / ErrHolidayNotFound.
  SaveHoliday returns ErrDuplicateHoliday when another holiday already
  occupies the date. UpdateHours touches only Hours and UpdatedAt, so a
  recalculation never clobbers a concurrent status change.
*/
package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance/workcal"
)

// RequestStore persists leave and overtime requests.
type RequestStore interface {
	// SaveRequest inserts or replaces a request by ID.
	SaveRequest(ctx context.Context, r Request) error

	GetRequest(ctx context.Context, id string) (*Request, error)

	// ListRequests returns matching requests ordered by CreatedAt, oldest first.
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)

	// UpdateHours rewrites the derived hours of one request.
	UpdateHours(ctx context.Context, id string, hours decimal.Decimal, at time.Time) error
}

// HolidayStore persists the holiday calendar.
type HolidayStore interface {
	SaveHoliday(ctx context.Context, h workcal.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error

	// ListHolidays returns all holidays ordered by date.
	ListHolidays(ctx context.Context) ([]workcal.Holiday, error)
}

// Store is the full persistence surface of the service.
type Store interface {
	RequestStore
	HolidayStore
}
