/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the leave/workcal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

HOURS:
  Hours are rendered as JSON numbers (json.Number built from the decimal
  string), so 7.5 is sent as 7.5 and never as a float approximation.

TIMESTAMPS:
  Request instants are rendered RFC3339 in the business zone. Holiday dates
  are plain "YYYY-MM-DD".

VALIDATION:
  Submit bodies decode straight into leave.SubmitInput, which carries its
  own validate tags. The smaller bodies here are checked by the service.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/service.go: SubmitInput
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance/leave"
	"github.com/warp/attendance/workcal"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

// SpanRequest carries a span as entered by the user. Wall-clock values
// without an offset are read in the business zone.
type SpanRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// CreateHolidayRequest adds one holiday.
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// DefaultHolidaysRequest loads the fixed-date national holidays of Year.
type DefaultHolidaysRequest struct {
	Year int `json:"year"`
}

// ReviewRequest is the body of approve/reject/cancel.
type ReviewRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// RequestDTO represents a leave or overtime request in API responses.
type RequestDTO struct {
	ID           string      `json:"id"`
	EmployeeID   string      `json:"employee_id"`
	Kind         string      `json:"kind"`
	LeaveType    string      `json:"leave_type,omitempty"`
	Start        string      `json:"start"`
	End          string      `json:"end"`
	Hours        json.Number `json:"hours"`
	Status       string      `json:"status"`
	Reason       string      `json:"reason,omitempty"`
	ReviewedBy   string      `json:"reviewed_by,omitempty"`
	ReviewedAt   *string     `json:"reviewed_at,omitempty"`
	RejectReason string      `json:"reject_reason,omitempty"`
	CreatedAt    string      `json:"created_at"`
	UpdatedAt    string      `json:"updated_at"`
}

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// DayHoursDTO is one calendar day of an hours preview.
type DayHoursDTO struct {
	Date    string      `json:"date"`
	Weekday string      `json:"weekday"`
	Workday bool        `json:"workday"`
	Holiday string      `json:"holiday,omitempty"`
	Hours   json.Number `json:"hours"`
}

// PreviewDTO is the result of POST /api/hours/preview.
type PreviewDTO struct {
	Start string        `json:"start"`
	End   string        `json:"end"`
	Hours json.Number   `json:"hours"`
	Days  []DayHoursDTO `json:"days"`
}

// RecalcDTO summarizes a recalculation sweep.
type RecalcDTO struct {
	Scope     string           `json:"scope"`
	Scanned   int              `json:"scanned"`
	Updated   int              `json:"updated"`
	Unchanged int              `json:"unchanged"`
	Failed    int              `json:"failed"`
	Failures  []RecalcErrorDTO `json:"failures,omitempty"`
}

// RecalcErrorDTO names one request the sweep could not update.
type RecalcErrorDTO struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// HolidayMutationDTO is returned by holiday writes: what changed and the
// sweep that followed. Warning is set when the change was stored but the
// sweep did not finish; POST /api/admin/recalculate retries it.
type HolidayMutationDTO struct {
	Holidays []HolidayDTO `json:"holidays,omitempty"`
	Recalc   RecalcDTO    `json:"recalc"`
	Warning  string       `json:"warning,omitempty"`
}

// TimeDTO is the corrected server time.
type TimeDTO struct {
	Now      string `json:"now"`
	Date     string `json:"date"`
	Zone     string `json:"zone"`
	OffsetMS int64  `json:"offset_ms"`
	SyncedAt string `json:"synced_at,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func hoursNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func formatInstant(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.RFC3339)
}

func toRequestDTO(r *leave.Request, loc *time.Location) RequestDTO {
	dto := RequestDTO{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		Kind:         string(r.Kind),
		LeaveType:    r.LeaveType,
		Start:        formatInstant(r.Span.Start, loc),
		End:          formatInstant(r.Span.End, loc),
		Hours:        hoursNumber(r.Hours),
		Status:       string(r.Status),
		Reason:       r.Reason,
		ReviewedBy:   r.ReviewedBy,
		RejectReason: r.RejectReason,
		CreatedAt:    formatInstant(r.CreatedAt, loc),
		UpdatedAt:    formatInstant(r.UpdatedAt, loc),
	}
	if r.ReviewedAt != nil {
		s := formatInstant(*r.ReviewedAt, loc)
		dto.ReviewedAt = &s
	}
	return dto
}

func toRequestDTOs(rs []leave.Request, loc *time.Location) []RequestDTO {
	dtos := make([]RequestDTO, len(rs))
	for i := range rs {
		dtos[i] = toRequestDTO(&rs[i], loc)
	}
	return dtos
}

func toHolidayDTO(h workcal.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID, Date: h.Date.String(), Name: h.Name}
}

func toHolidayDTOs(hs []workcal.Holiday) []HolidayDTO {
	dtos := make([]HolidayDTO, len(hs))
	for i, h := range hs {
		dtos[i] = toHolidayDTO(h)
	}
	return dtos
}

func toPreviewDTO(p *leave.HoursPreview, loc *time.Location) PreviewDTO {
	names := make(map[workcal.Date]string, len(p.Holidays))
	for _, h := range p.Holidays {
		names[h.Date] = h.Name
	}
	days := make([]DayHoursDTO, len(p.Days))
	for i, d := range p.Days {
		days[i] = DayHoursDTO{
			Date:    d.Date.String(),
			Weekday: d.Date.Weekday().String(),
			Workday: d.Workday,
			Holiday: names[d.Date],
			Hours:   hoursNumber(workcal.DurationHours(d.Billable).Round(2)),
		}
	}
	return PreviewDTO{
		Start: formatInstant(p.Span.Start, loc),
		End:   formatInstant(p.Span.End, loc),
		Hours: hoursNumber(p.Hours),
		Days:  days,
	}
}

func toRecalcDTO(r leave.RecalcReport) RecalcDTO {
	dto := RecalcDTO{
		Scope:     string(r.Scope),
		Scanned:   r.Scanned,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Failed:    r.Failed(),
	}
	for _, f := range r.Failures {
		dto.Failures = append(dto.Failures, RecalcErrorDTO{RequestID: f.RequestID, Error: f.Err.Error()})
	}
	return dto
}
