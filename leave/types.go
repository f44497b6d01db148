// Package leave implements leave and overtime requests, the holiday calendar
// they are billed against, and the recalculation sweep that keeps request
// hours consistent with that calendar.
package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance/workcal"
)

// =============================================================================
// REQUEST KIND & STATUS
// =============================================================================

type Kind string

const (
	KindLeave    Kind = "leave"
	KindOvertime Kind = "overtime"
)

func (k Kind) Valid() bool { return k == KindLeave || k == KindOvertime }

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// IsFinal reports whether the request is out of the billing workflow.
// Final requests keep their hours as last computed.
func (s Status) IsFinal() bool { return s == StatusRejected || s == StatusCancelled }

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is a leave or overtime request.
// Hours is derived from Span and the holiday calendar; it is rewritten by
// the service whenever either changes.
type Request struct {
	ID           string
	EmployeeID   string
	Kind         Kind
	LeaveType    string // e.g. "annual", "sick", "personal"; empty for overtime
	Span         workcal.TimeSpan
	Hours        decimal.Decimal
	Status       Status
	Reason       string
	ReviewedBy   string
	ReviewedAt   *time.Time
	RejectReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RequestFilter narrows ListRequests. Zero values match everything.
type RequestFilter struct {
	EmployeeID string
	Kind       Kind
	Statuses   []Status
}

// Matches reports whether r passes the filter.
func (f RequestFilter) Matches(r Request) bool {
	if f.EmployeeID != "" && r.EmployeeID != f.EmployeeID {
		return false
	}
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if r.Status == s {
			return true
		}
	}
	return false
}

// =============================================================================
// RECALCULATION SCOPE
// =============================================================================

// RecalcScope selects which requests a holiday change re-bills.
type RecalcScope string

const (
	// ScopeOpen re-bills every request that is not rejected or cancelled,
	// approved ones included.
	ScopeOpen RecalcScope = "open"

	// ScopePendingOnly leaves approved requests frozen.
	ScopePendingOnly RecalcScope = "pending"
)

// Statuses returns the statuses covered by the scope.
func (s RecalcScope) Statuses() []Status {
	if s == ScopePendingOnly {
		return []Status{StatusPending}
	}
	return []Status{StatusPending, StatusApproved}
}

// ParseRecalcScope accepts "open" (also "", "all") or "pending".
func ParseRecalcScope(s string) (RecalcScope, error) {
	switch s {
	case "", "open", "all":
		return ScopeOpen, nil
	case "pending":
		return ScopePendingOnly, nil
	}
	return "", &ValidationError{Field: "recalc_scope", Message: "must be \"open\" or \"pending\", got " + s}
}
