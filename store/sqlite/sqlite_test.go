package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/attendance/leave"
	"github.com/warp/attendance/workcal"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRequest(id string, status leave.Status, created time.Time) leave.Request {
	loc, _ := workcal.LoadZone(workcal.DefaultZone)
	return leave.Request{
		ID:         id,
		EmployeeID: "emp-1",
		Kind:       leave.KindLeave,
		LeaveType:  "annual",
		Span: workcal.TimeSpan{
			Start: time.Date(2024, 3, 4, 8, 30, 0, 0, loc),
			End:   time.Date(2024, 3, 5, 17, 30, 0, 0, loc),
		},
		Hours:     decimal.RequireFromString("16"),
		Status:    status,
		Reason:    "family trip",
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestStore_Ping(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveRequest(ctx, sampleRequest("r1", leave.StatusPending, time.Now().UTC())))
	require.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h1", Date: workcal.NewDate(2024, time.May, 1), Name: "Labor Day"}))

	require.NoError(t, s.Reset(ctx))

	requests, err := s.ListRequests(ctx, leave.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests)
	holidays, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, holidays)

	// Schema survives; the freed date can be reused.
	assert.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h2", Date: workcal.NewDate(2024, time.May, 1), Name: "Labor Day"}))
}

func TestStore_HolidayRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h2", Date: workcal.NewDate(2024, time.October, 10), Name: "National Day"}))
	require.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h1", Date: workcal.NewDate(2024, time.April, 4), Name: "Children's Day"}))

	got, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "h1", got[0].ID)
	assert.Equal(t, workcal.NewDate(2024, time.April, 4), got[0].Date)
	assert.Equal(t, "National Day", got[1].Name)
}

func TestStore_HolidayDuplicateDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	d := workcal.NewDate(2024, time.May, 1)

	require.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h1", Date: d, Name: "Labor Day"}))
	err := s.SaveHoliday(ctx, workcal.Holiday{ID: "h2", Date: d, Name: "Workers' Day"})
	assert.ErrorIs(t, err, leave.ErrDuplicateHoliday)

	// Renaming the same record is not a conflict.
	require.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h1", Date: d, Name: "Workers' Day"}))
	got, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Workers' Day", got[0].Name)
}

func TestStore_DeleteHoliday(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveHoliday(ctx, workcal.Holiday{ID: "h1", Date: workcal.NewDate(2024, time.May, 1), Name: "Labor Day"}))
	require.NoError(t, s.DeleteHoliday(ctx, "h1"))
	assert.ErrorIs(t, s.DeleteHoliday(ctx, "h1"), leave.ErrHolidayNotFound)

	got, err := s.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_RequestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	created := time.Date(2024, 2, 20, 1, 0, 0, 0, time.UTC)

	r := sampleRequest("r1", leave.StatusApproved, created)
	reviewed := created.Add(time.Hour)
	r.ReviewedBy = "mgr-1"
	r.ReviewedAt = &reviewed
	r.Hours = decimal.RequireFromString("7.5")
	require.NoError(t, s.SaveRequest(ctx, r))

	got, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, leave.KindLeave, got.Kind)
	assert.Equal(t, leave.StatusApproved, got.Status)
	assert.Equal(t, "annual", got.LeaveType)
	assert.Equal(t, "7.5", got.Hours.String())
	assert.True(t, got.Span.Start.Equal(r.Span.Start))
	assert.True(t, got.Span.End.Equal(r.Span.End))
	require.NotNil(t, got.ReviewedAt)
	assert.True(t, got.ReviewedAt.Equal(reviewed))
	assert.Equal(t, "mgr-1", got.ReviewedBy)
}

func TestStore_GetRequestNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, leave.ErrRequestNotFound)
}

func TestStore_ListRequestsFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 2, 20, 1, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRequest(ctx, sampleRequest("r3", leave.StatusRejected, base.Add(2*time.Minute))))
	require.NoError(t, s.SaveRequest(ctx, sampleRequest("r1", leave.StatusPending, base)))
	require.NoError(t, s.SaveRequest(ctx, sampleRequest("r2", leave.StatusApproved, base.Add(time.Minute))))
	other := sampleRequest("r4", leave.StatusPending, base.Add(3*time.Minute))
	other.EmployeeID = "emp-2"
	other.Kind = leave.KindOvertime
	other.LeaveType = ""
	require.NoError(t, s.SaveRequest(ctx, other))

	all, err := s.ListRequests(ctx, leave.RequestFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "r1", all[0].ID)
	assert.Equal(t, "r4", all[3].ID)

	open, err := s.ListRequests(ctx, leave.RequestFilter{Statuses: leave.ScopeOpen.Statuses()})
	require.NoError(t, err)
	require.Len(t, open, 3)
	assert.Equal(t, []string{"r1", "r2", "r4"}, ids(open))

	mine, err := s.ListRequests(ctx, leave.RequestFilter{EmployeeID: "emp-1", Statuses: []leave.Status{leave.StatusPending}})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids(mine))

	overtime, err := s.ListRequests(ctx, leave.RequestFilter{Kind: leave.KindOvertime})
	require.NoError(t, err)
	assert.Equal(t, []string{"r4"}, ids(overtime))
}

func TestStore_UpdateHours(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	created := time.Date(2024, 2, 20, 1, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveRequest(ctx, sampleRequest("r1", leave.StatusPending, created)))

	later := created.Add(24 * time.Hour)
	require.NoError(t, s.UpdateHours(ctx, "r1", decimal.RequireFromString("8"), later))

	got, err := s.GetRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "8", got.Hours.String())
	assert.True(t, got.UpdatedAt.Equal(later))
	assert.Equal(t, leave.StatusPending, got.Status)

	assert.ErrorIs(t, s.UpdateHours(ctx, "missing", decimal.Zero, later), leave.ErrRequestNotFound)
}

func TestStore_ServiceSweep(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	loc, err := workcal.LoadZone(workcal.DefaultZone)
	require.NoError(t, err)
	svc := leave.NewService(s, workcal.NewCalculator(loc))

	r, err := svc.Submit(ctx, leave.SubmitInput{
		EmployeeID: "emp-1",
		Kind:       "leave",
		LeaveType:  "annual",
		Start:      "2024-03-04T08:30",
		End:        "2024-03-06T17:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "24", r.Hours.String())

	_, report, err := svc.AddHoliday(ctx, "2024-03-05", "Company Day")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Updated)

	got, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "16", got.Hours.String())
}

func ids(rs []leave.Request) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
