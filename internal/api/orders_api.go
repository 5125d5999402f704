package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pizzaflow/internal/booking"
	"pizzaflow/internal/metrics"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
)

// OrderRequest is the body of order submissions. It accepts the stored
// document shape, including the legacy singular tableId.
type OrderRequest struct {
	model.Document
	Force bool `json:"force,omitempty"`
}

// OrderResponse is returned for committed orders.
type OrderResponse struct {
	Order      model.Order `json:"order"`
	Verdict    string      `json:"verdict"`
	Overbooked bool        `json:"overbooked,omitempty"`
}

// OverbookingResponse explains a refused or unconfirmed overbooking.
type OverbookingResponse struct {
	Error             string `json:"error"`
	Code              string `json:"code"`
	Verdict           string `json:"verdict"`
	Projected         int    `json:"projected"`
	Capacity          int    `json:"capacity"`
	NeedsConfirmation bool   `json:"needsConfirmation"`
}

// ConflictResponse lists the orders holding requested tables.
type ConflictResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code"`
	Conflicts []string `json:"conflicts"`
}

func decodeOrder(r *http.Request) (OrderRequest, error) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, err
	}
	return req, nil
}

// handlePublicOrder accepts an order from the website. It is created
// pending and full slots are never overridable.
// POST /api/v1/orders
func (s *HTTPServer) handlePublicOrder(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("public_order")

	req, err := decodeOrder(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order := req.Normalize()
	order.ID = ""
	order.Version = 0

	res, err := s.booker.SubmitOrder(r.Context(), booking.SubmitRequest{
		Order: order,
		Flow:  overbooking.FlowPublic,
		Actor: "web",
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(res))
}

// handleStaffCreate enters an order from the floor.
// POST /api/v1/staff/orders
func (s *HTTPServer) handleStaffCreate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_create")

	req, err := decodeOrder(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order := req.Normalize()
	order.ID = ""
	order.Version = 0

	res, err := s.booker.SubmitOrder(r.Context(), booking.SubmitRequest{
		Order: order,
		Flow:  overbooking.FlowStaff,
		Force: req.Force,
		Actor: actor(r, order),
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderResponse(res))
}

// handleStaffUpdate edits an order in place. The body version guards
// against concurrent edits; omit it to overwrite the latest version.
// PUT /api/v1/staff/orders/{id}
func (s *HTTPServer) handleStaffUpdate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_update")

	req, err := decodeOrder(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	order := req.Normalize()
	order.ID = r.PathValue("id")

	res, err := s.booker.SubmitOrder(r.Context(), booking.SubmitRequest{
		Order: order,
		Flow:  overbooking.FlowStaff,
		Force: req.Force,
		Actor: actor(r, order),
	})
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse(res))
}

// POST /api/v1/staff/orders/{id}/accept
func (s *HTTPServer) handleAccept(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_accept")

	o, err := s.booker.AcceptOrder(r.Context(), r.PathValue("id"), actor(r, model.Order{}))
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// POST /api/v1/staff/orders/{id}/archive
func (s *HTTPServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_archive")

	o, err := s.booker.ArchiveOrder(r.Context(), r.PathValue("id"), actor(r, model.Order{}))
	if err != nil {
		s.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// handleReject deletes a pending order.
// DELETE /api/v1/staff/orders/{id}
func (s *HTTPServer) handleReject(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_reject")

	if err := s.booker.RejectOrder(r.Context(), r.PathValue("id"), actor(r, model.Order{})); err != nil {
		s.writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TableStatusRequest is the body of a floor state change.
type TableStatusRequest struct {
	Status model.TableStatus `json:"status"`
}

// handleTableStatus records whether a table is free, occupied or billing.
// PUT /api/v1/staff/tables/{id}/status
func (s *HTTPServer) handleTableStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("table_status")

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid table id")
		return
	}
	var req TableStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.booker.SetTableStatus(r.Context(), id, req.Status, actor(r, model.Order{})); err != nil {
		s.writeBookingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func actor(r *http.Request, o model.Order) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	if o.CreatedBy != "" {
		return o.CreatedBy
	}
	return "staff"
}

func orderResponse(res *booking.Result) OrderResponse {
	return OrderResponse{
		Order:      res.Order,
		Verdict:    res.Decision.Verdict.String(),
		Overbooked: res.Decision.Overbooked,
	}
}

// writeBookingError maps service errors to HTTP statuses.
func (s *HTTPServer) writeBookingError(w http.ResponseWriter, err error) {
	var (
		unavailable *booking.UnavailableError
		overbooked  *booking.OverbookingError
		conflict    *booking.TableConflictError
	)
	switch {
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: unavailable.Reason.Message(),
			Code:  unavailable.Reason.String(),
		})
	case errors.As(err, &overbooked):
		d := overbooked.Decision
		writeJSON(w, http.StatusConflict, OverbookingResponse{
			Error:             "slot over kitchen capacity",
			Code:              "overbooking",
			Verdict:           d.Verdict.String(),
			Projected:         d.Projected,
			Capacity:          d.Capacity,
			NeedsConfirmation: overbooked.NeedsConfirmation(),
		})
	case errors.As(err, &conflict):
		ids := make([]string, len(conflict.Conflicts))
		for i, o := range conflict.Conflicts {
			ids[i] = o.ID
		}
		writeJSON(w, http.StatusConflict, ConflictResponse{Error: conflict.Error(), Code: "table_conflict", Conflicts: ids})
	case errors.Is(err, booking.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "order not found", Code: "not_found"})
	case errors.Is(err, booking.ErrTableNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "table not found", Code: "table_not_found"})
	case errors.Is(err, booking.ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "order was modified, reload and retry", Code: "stale"})
	case errors.Is(err, booking.ErrNotPending):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "order is not pending", Code: "not_pending"})
	case errors.Is(err, booking.ErrArchived):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "order is archived", Code: "archived"})
	case errors.Is(err, booking.ErrInvalidOrder), errors.Is(err, booking.ErrUnknownTable):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid"})
	case errors.Is(err, booking.ErrBusy):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "booking in progress, retry", Code: "busy"})
	default:
		s.logger.Error().Err(err).Msg("order request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
