package leave

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/attendance/clock"
	"github.com/warp/attendance/workcal"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service owns the request workflow and the holiday calendar.
//
// Every write goes through mu so a recalculation sweep never interleaves
// with a status change or a submission reading the old calendar. This
// serializes writers within one process only; multiple processes sharing
// a database rely on the store.
type Service struct {
	store    Store
	calc     *workcal.Calculator
	clock    clock.Clock
	scope    RecalcScope
	logger   *zap.Logger
	validate *validator.Validate
	newID    func() string

	mu sync.Mutex
}

type Option func(*Service)

func WithClock(c clock.Clock) Option { return func(s *Service) { s.clock = c } }

func WithScope(scope RecalcScope) Option { return func(s *Service) { s.scope = scope } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// NewService wires a service over store. Defaults: system clock, ScopeOpen,
// no-op logger, random UUIDs.
func NewService(store Store, calc *workcal.Calculator, opts ...Option) *Service {
	s := &Service{
		store:    store,
		calc:     calc,
		clock:    clock.System{},
		scope:    ScopeOpen,
		logger:   zap.NewNop(),
		validate: newValidator(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculator returns the billable-hours calculator in use.
func (s *Service) Calculator() *workcal.Calculator { return s.calc }

// Scope returns the recalculation scope in use.
func (s *Service) Scope() RecalcScope { return s.scope }

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// =============================================================================
// INPUT PARSING
// =============================================================================

// MaxSpan is the longest span a request or preview may cover. Hours are
// computed by walking every calendar day, so the walk must stay bounded.
const MaxSpan = 366 * 24 * time.Hour

// parseSpan turns user-entered timestamps into a span in the business zone.
// This is the only place malformed timestamps are detected.
func (s *Service) parseSpan(start, end string) (workcal.TimeSpan, error) {
	loc := s.calc.Location()
	st, err := workcal.ParseTimestamp(start, loc)
	if err != nil {
		return workcal.TimeSpan{}, &ValidationError{Field: "start", Message: err.Error()}
	}
	en, err := workcal.ParseTimestamp(end, loc)
	if err != nil {
		return workcal.TimeSpan{}, &ValidationError{Field: "end", Message: err.Error()}
	}
	if !en.After(st) {
		return workcal.TimeSpan{}, &ValidationError{Field: "end", Message: "must be after start"}
	}
	if en.Sub(st) > MaxSpan {
		return workcal.TimeSpan{}, &ValidationError{Field: "end", Message: "must be within 366 days of start"}
	}
	return workcal.TimeSpan{Start: st.In(loc), End: en.In(loc)}, nil
}

func (s *Service) calendar(ctx context.Context) (*workcal.HolidaySet, error) {
	holidays, err := s.store.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	return workcal.NewHolidaySet(holidays), nil
}

// =============================================================================
// PREVIEW
// =============================================================================

// HoursPreview is the billable-hours figure for a draft span.
type HoursPreview struct {
	Span     workcal.TimeSpan
	Hours    decimal.Decimal
	Days     []workcal.DayHours
	Holidays []workcal.Holiday // holidays falling inside the span
}

// PreviewHours computes hours for a span without storing anything.
func (s *Service) PreviewHours(ctx context.Context, start, end string) (*HoursPreview, error) {
	span, err := s.parseSpan(start, end)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	days := s.calc.Breakdown(span, cal)
	preview := &HoursPreview{Span: span, Hours: workcal.TotalHours(days), Days: days}
	for _, d := range days {
		if h, ok := cal.Lookup(d.Date); ok {
			preview.Holidays = append(preview.Holidays, h)
		}
	}
	return preview, nil
}

// =============================================================================
// SUBMIT
// =============================================================================

// SubmitInput is an employee's draft request.
type SubmitInput struct {
	EmployeeID string `json:"employee_id" validate:"required,max=64"`
	Kind       Kind   `json:"kind" validate:"required,oneof=leave overtime"`
	LeaveType  string `json:"leave_type" validate:"required_if=Kind leave,max=32"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	Reason     string `json:"reason" validate:"max=500"`
}

// Submit validates a draft, computes its hours and stores it as pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Request, error) {
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}
	span, err := s.parseSpan(in.Start, in.End)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	r := Request{
		ID:         s.newID(),
		EmployeeID: in.EmployeeID,
		Kind:       in.Kind,
		LeaveType:  in.LeaveType,
		Span:       span,
		Hours:      s.calc.BillableHours(span, cal),
		Status:     StatusPending,
		Reason:     in.Reason,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}

	s.logger.Info("request submitted",
		zap.String("request_id", r.ID),
		zap.String("employee_id", r.EmployeeID),
		zap.String("kind", string(r.Kind)),
		zap.String("hours", r.Hours.String()),
	)
	return &r, nil
}

// UpdateSpan changes the span of a pending request and recomputes its hours.
func (s *Service) UpdateSpan(ctx context.Context, id, start, end string) (*Request, error) {
	span, err := s.parseSpan(start, end)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPending {
		return nil, &TransitionError{RequestID: id, From: r.Status, To: StatusPending}
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}

	r.Span = span
	r.Hours = s.calc.BillableHours(span, cal)
	r.UpdatedAt = s.now()
	if err := s.store.SaveRequest(ctx, *r); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}
	return r, nil
}

// =============================================================================
// REVIEW WORKFLOW
// =============================================================================

// Approve moves a pending request to approved.
func (s *Service) Approve(ctx context.Context, id, reviewer string) (*Request, error) {
	return s.transition(ctx, id, reviewer, StatusApproved, func(r *Request, now time.Time) {
		r.ReviewedBy = reviewer
		r.ReviewedAt = &now
	})
}

// Reject moves a pending request to rejected.
func (s *Service) Reject(ctx context.Context, id, reviewer, reason string) (*Request, error) {
	return s.transition(ctx, id, reviewer, StatusRejected, func(r *Request, now time.Time) {
		r.ReviewedBy = reviewer
		r.ReviewedAt = &now
		r.RejectReason = reason
	})
}

// Cancel withdraws a pending or approved request.
func (s *Service) Cancel(ctx context.Context, id, actor string) (*Request, error) {
	return s.transition(ctx, id, actor, StatusCancelled, func(*Request, time.Time) {})
}

var allowedTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

func canTransition(from, to Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *Service) transition(ctx context.Context, id, actor string, to Status, apply func(*Request, time.Time)) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(r.Status, to) {
		return nil, &TransitionError{RequestID: id, From: r.Status, To: to}
	}

	now := s.now()
	from := r.Status
	r.Status = to
	r.UpdatedAt = now
	apply(r, now)

	if err := s.store.SaveRequest(ctx, *r); err != nil {
		return nil, fmt.Errorf("save request: %w", err)
	}
	s.logger.Info("request status changed",
		zap.String("request_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actor),
	)
	return r, nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	return s.store.GetRequest(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, &ValidationError{Field: "kind", Message: "must be leave or overtime"}
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			return nil, &ValidationError{Field: "status", Message: "unknown status " + string(st)}
		}
	}
	return s.store.ListRequests(ctx, filter)
}
