/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

KEY TABLES:
  holidays:  Company holiday calendar, one row per calendar date
  requests:  Leave and overtime requests with their derived hours

STORAGE FORMATS:
  - Holiday dates are civil "YYYY-MM-DD" strings. They are never stored as
    instants, so reading them back cannot shift the day across zones.
  - Request instants (start_at, end_at, created_at, ...) are RFC3339 in UTC.
  - Hours are decimal text, never REAL, so 7.5 stays 7.5.

INDEXES:
  - idx_holidays_date (UNIQUE): one holiday per calendar date
  - idx_requests_status:        recalculation sweep selects by status
  - idx_requests_employee:      per-employee listings

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  File databases are opened with WAL (Write-Ahead Logging) so readers do
  not block the single writer.

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leave.NewService(store, calc)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - leave/store.go:        Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/attendance/leave"
	"github.com/warp/attendance/workcal"
)

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ leave.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_date
		ON holidays(date);

	CREATE TABLE IF NOT EXISTS requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		leave_type TEXT NOT NULL DEFAULT '',
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		hours TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT NOT NULL DEFAULT '',
		reviewed_by TEXT NOT NULL DEFAULT '',
		reviewed_at TEXT,
		reject_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_employee
		ON requests(employee_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Reset deletes all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM requests; DELETE FROM holidays;`)
	return err
}

// =============================================================================
// HOLIDAY STORE
// =============================================================================

// SaveHoliday inserts or renames a holiday.
func (s *Store) SaveHoliday(ctx context.Context, h workcal.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO holidays (id, date, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			name = excluded.name
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.Date.String(),
		h.Name,
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return leave.ErrDuplicateHoliday
	}
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

// DeleteHoliday deletes a holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	return requireAffected(res, leave.ErrHolidayNotFound)
}

// ListHolidays returns all holidays ordered by date.
func (s *Store) ListHolidays(ctx context.Context) ([]workcal.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, date, name FROM holidays ORDER BY date ASC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []workcal.Holiday
	for rows.Next() {
		var h workcal.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &dateStr, &h.Name); err != nil {
			return nil, err
		}
		if h.Date, err = workcal.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

// =============================================================================
// REQUEST STORE
// =============================================================================

const requestColumns = `id, employee_id, kind, leave_type, start_at, end_at, hours, status,
	reason, reviewed_by, reviewed_at, reject_reason, created_at, updated_at`

// SaveRequest inserts or replaces a request.
func (s *Store) SaveRequest(ctx context.Context, r leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO requests (` + requestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			kind = excluded.kind,
			leave_type = excluded.leave_type,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			hours = excluded.hours,
			status = excluded.status,
			reason = excluded.reason,
			reviewed_by = excluded.reviewed_by,
			reviewed_at = excluded.reviewed_at,
			reject_reason = excluded.reject_reason,
			updated_at = excluded.updated_at
	`

	var reviewedAt *string
	if r.ReviewedAt != nil {
		v := formatTime(*r.ReviewedAt)
		reviewedAt = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.EmployeeID, string(r.Kind), r.LeaveType,
		formatTime(r.Span.Start), formatTime(r.Span.End),
		r.Hours.String(), string(r.Status), r.Reason,
		r.ReviewedBy, reviewedAt, r.RejectReason,
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id string) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requests, err := s.queryRequests(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, leave.ErrRequestNotFound
	}
	return &requests[0], nil
}

// ListRequests returns matching requests, oldest first.
func (s *Store) ListRequests(ctx context.Context, filter leave.RequestFilter) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if filter.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, filter.EmployeeID)
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return s.queryRequests(ctx, query, args...)
}

// UpdateHours rewrites the derived hours of one request.
func (s *Store) UpdateHours(ctx context.Context, id string, hours decimal.Decimal, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET hours = ?, updated_at = ? WHERE id = ?`,
		hours.String(), formatTime(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update hours: %w", err)
	}
	return requireAffected(res, leave.ErrRequestNotFound)
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]leave.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []leave.Request
	for rows.Next() {
		var r leave.Request
		var kind, status, hours, startAt, endAt, createdAt, updatedAt string
		var reviewedAt sql.NullString
		if err := rows.Scan(
			&r.ID, &r.EmployeeID, &kind, &r.LeaveType, &startAt, &endAt, &hours, &status,
			&r.Reason, &r.ReviewedBy, &reviewedAt, &r.RejectReason, &createdAt, &updatedAt,
		); err != nil {
			return nil, err
		}

		r.Kind = leave.Kind(kind)
		r.Status = leave.Status(status)
		if r.Hours, err = decimal.NewFromString(hours); err != nil {
			return nil, fmt.Errorf("request %s: invalid hours %q: %w", r.ID, hours, err)
		}
		r.Span.Start, _ = time.Parse(time.RFC3339Nano, startAt)
		r.Span.End, _ = time.Parse(time.RFC3339Nano, endAt)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		if reviewedAt.Valid {
			t, _ := time.Parse(time.RFC3339Nano, reviewedAt.String)
			r.ReviewedAt = &t
		}

		requests = append(requests, r)
	}

	return requests, rows.Err()
}

// Helper functions

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
