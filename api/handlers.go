/*
handlers.go - HTTP API handlers for the attendance portal

PURPOSE:
  Exposes the leave service and the billable-hours calculator via REST API.
  Handles HTTP request/response and JSON serialization, and delegates all
  domain decisions to leave.Service.

ENDPOINTS:
  Time:
    GET    /api/time                      Corrected server time

  Hours:
    POST   /api/hours/preview             Billable hours of a draft span

  Holidays:
    GET    /api/holidays                  List holidays
    POST   /api/holidays                  Add holiday (date or RFC3339 instant), re-bill requests
    POST   /api/holidays/defaults         Add national holidays for a year
    DELETE /api/holidays/{id}             Remove holiday, re-bill requests

  Requests:
    GET    /api/requests                  List (employee_id, kind, status)
    POST   /api/requests                  Submit leave/overtime request
    GET    /api/requests/{id}             Get one request
    PUT    /api/requests/{id}/span        Change a pending request's span
    POST   /api/requests/{id}/approve     Approve pending request
    POST   /api/requests/{id}/reject      Reject pending request
    POST   /api/requests/{id}/cancel      Cancel pending/approved request

  Admin:
    POST   /api/admin/recalculate         Re-bill requests against calendar

REQUEST FLOW:
  1. Parse HTTP request
  2. Call leave.Service (validation happens there)
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  A holiday change that was stored but whose re-billing sweep failed still
  answers 201/200, with the report and a "warning" field.

  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Request or holiday not found
  - 409: Duplicate holiday date, illegal status transition
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Actor IDs in review bodies are trusted as given.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/attendance/clock"
	"github.com/warp/attendance/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Clock   *clock.Corrected
	logger  *zap.Logger
}

// NewHandler creates a handler. A nil clock reports the uncorrected system
// time; a nil logger discards logs.
func NewHandler(svc *leave.Service, clk *clock.Corrected, logger *zap.Logger) *Handler {
	if clk == nil {
		clk = clock.NewCorrected(nil, svc.Calculator().Location())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Clock: clk, logger: logger}
}

func (h *Handler) location() *time.Location {
	return h.Service.Calculator().Location()
}

// =============================================================================
// TIME & PREVIEW
// =============================================================================

// GetTime returns the corrected current time in the business zone.
// GET /api/time
func (h *Handler) GetTime(w http.ResponseWriter, r *http.Request) {
	loc := h.location()
	now := h.Clock.Now().In(loc)

	dto := TimeDTO{
		Now:      now.Format(time.RFC3339),
		Date:     now.Format("2006-01-02"),
		Zone:     loc.String(),
		OffsetMS: h.Clock.Offset().Milliseconds(),
	}
	if synced := h.Clock.SyncedAt(); !synced.IsZero() {
		dto.SyncedAt = synced.In(loc).Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, dto)
}

// PreviewHours computes billable hours without storing anything.
// POST /api/hours/preview
func (h *Handler) PreviewHours(w http.ResponseWriter, r *http.Request) {
	var req SpanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	preview, err := h.Service.PreviewHours(r.Context(), req.Start, req.End)
	if err != nil {
		h.writeServiceError(w, "Failed to compute hours", err)
		return
	}
	writeJSON(w, http.StatusOK, toPreviewDTO(preview, h.location()))
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Service.ListHolidays(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to get holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": toHolidayDTOs(holidays)})
}

// CreateHoliday adds a holiday and re-bills open requests.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	holiday, report, err := h.Service.AddHoliday(r.Context(), req.Date, req.Name)
	if err != nil && !leave.IsRecalcOnly(err) {
		h.writeServiceError(w, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, HolidayMutationDTO{
		Holidays: []HolidayDTO{toHolidayDTO(holiday)},
		Recalc:   toRecalcDTO(report),
		Warning:  h.recalcWarning(err),
	})
}

// AddDefaultHolidays adds the fixed-date national holidays for a year.
// Dates already on the calendar are left as they are.
// POST /api/holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var req DefaultHolidaysRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 {
		req.Year = h.Clock.Now().In(h.location()).Year()
	}
	if req.Year < 1900 || req.Year > 9999 {
		writeError(w, http.StatusBadRequest, "Year out of range", nil)
		return
	}

	added, report, err := h.Service.AddHolidays(r.Context(), leave.NationalHolidays(req.Year))
	if err != nil && !leave.IsRecalcOnly(err) {
		h.writeServiceError(w, "Failed to add holidays", err)
		return
	}

	writeJSON(w, http.StatusCreated, HolidayMutationDTO{
		Holidays: toHolidayDTOs(added),
		Recalc:   toRecalcDTO(report),
		Warning:  h.recalcWarning(err),
	})
}

// DeleteHoliday removes a holiday and re-bills open requests.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.Service.RemoveHoliday(r.Context(), id)
	if err != nil && !leave.IsRecalcOnly(err) {
		h.writeServiceError(w, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, HolidayMutationDTO{
		Recalc:  toRecalcDTO(report),
		Warning: h.recalcWarning(err),
	})
}

// =============================================================================
// REQUEST ENDPOINTS
// =============================================================================

// ListRequests returns requests, oldest first.
// GET /api/requests?employee_id=...&kind=leave&status=pending,approved
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := leave.RequestFilter{
		EmployeeID: q.Get("employee_id"),
		Kind:       leave.Kind(q.Get("kind")),
	}
	if raw := q.Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				filter.Statuses = append(filter.Statuses, leave.Status(s))
			}
		}
	}

	requests, err := h.Service.ListRequests(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": toRequestDTOs(requests, h.location())})
}

// SubmitRequest stores a new pending request with its computed hours.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req leave.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Service.Submit(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, "Failed to submit request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(request, h.location()))
}

// GetRequest returns one request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request, h.location()))
}

// UpdateRequestSpan changes the span of a pending request.
// PUT /api/requests/{id}/span
func (h *Handler) UpdateRequestSpan(w http.ResponseWriter, r *http.Request) {
	var req SpanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Service.UpdateSpan(r.Context(), chi.URLParam(r, "id"), req.Start, req.End)
	if err != nil {
		h.writeServiceError(w, "Failed to update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request, h.location()))
}

// ApproveRequest approves a pending request.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}
	request, err := h.Service.Approve(r.Context(), chi.URLParam(r, "id"), req.ActorID)
	if err != nil {
		h.writeServiceError(w, "Failed to approve request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request, h.location()))
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}
	request, err := h.Service.Reject(r.Context(), chi.URLParam(r, "id"), req.ActorID, req.Reason)
	if err != nil {
		h.writeServiceError(w, "Failed to reject request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request, h.location()))
}

// CancelRequest withdraws a pending or approved request.
// POST /api/requests/{id}/cancel
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeReview(w, r)
	if !ok {
		return
	}
	request, err := h.Service.Cancel(r.Context(), chi.URLParam(r, "id"), req.ActorID)
	if err != nil {
		h.writeServiceError(w, "Failed to cancel request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(request, h.location()))
}

// =============================================================================
// ADMIN ENDPOINTS
// =============================================================================

// Recalculate re-bills every request in scope against the current calendar.
// POST /api/admin/recalculate
func (h *Handler) Recalculate(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.RecalculateHours(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to recalculate hours", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecalcDTO(report))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps leave errors to status codes. Anything it does not
// recognize is a 500 and is logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	switch {
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case leave.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// recalcWarning logs a failed sweep behind a stored holiday change and
// returns the text clients see. A nil err yields "".
func (h *Handler) recalcWarning(err error) string {
	if err == nil {
		return ""
	}
	h.logger.Warn("holiday change stored but hours not recalculated", zap.Error(err))
	return "holiday change saved but hours were not recalculated: " + err.Error()
}

// decodeOptional decodes a JSON body that may be absent.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeReview(w http.ResponseWriter, r *http.Request) (ReviewRequest, bool) {
	var req ReviewRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if req.ActorID == "" {
		req.ActorID = "admin"
	}
	return req, true
}
