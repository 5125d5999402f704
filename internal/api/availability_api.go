package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pizzaflow/internal/availability"
	"pizzaflow/internal/load"
	"pizzaflow/internal/metrics"
	"pizzaflow/internal/model"
	"pizzaflow/internal/overbooking"
	"pizzaflow/internal/tables"
	"pizzaflow/internal/timeutil"
)

// SlotsResponse is the response for GET /api/v1/slots.
type SlotsResponse struct {
	Date   string                    `json:"date"`
	Type   model.OrderType           `json:"type"`
	Status availability.DateStatus   `json:"status"`
	Slots  []availability.SlotStatus `json:"slots"`
}

// handleSlots returns the slot grid of a date for customers.
// GET /api/v1/slots?date=YYYY-MM-DD&type=takeaway&pax=2&items=3
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	s.serveSlots(w, r, overbooking.FlowPublic)
}

// handleStaffSlots is handleSlots with staff overbooking semantics and
// support for excluding the order being edited.
// GET /api/v1/staff/slots?date=YYYY-MM-DD&type=delivery&exclude=ORDER_ID
func (s *HTTPServer) handleStaffSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("staff_slots")
	s.serveSlots(w, r, overbooking.FlowStaff)
}

func (s *HTTPServer) serveSlots(w http.ResponseWriter, r *http.Request, flow overbooking.Flow) {
	q := r.URL.Query()
	date := q.Get("date")
	if _, err := timeutil.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	pax, err := intParam(q.Get("pax"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pax")
		return
	}
	incoming, err := intParam(q.Get("items"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid items")
		return
	}

	now := s.clock()
	cal := s.calendar.Calendar()
	orderType := model.OrderType(q.Get("type"))
	query := availability.SlotQuery{
		Date:      date,
		OrderType: orderType,
		Pax:       pax,
		Incoming:  incoming,
		Flow:      flow,
		Now:       now,
	}
	if flow == overbooking.FlowStaff {
		query.ExcludeOrderID = q.Get("exclude")
	}

	resp := SlotsResponse{
		Date:   date,
		Type:   orderType,
		Status: availability.CheckDateStatus(cal, date, orderType, timeutil.Today(now)),
		Slots:  availability.SlotGrid(cal, query, s.reader.Orders(), s.reader.Tables()),
	}
	if resp.Slots == nil {
		resp.Slots = []availability.SlotStatus{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// DateStatusResponse is the response for GET /api/v1/dates/status.
type DateStatusResponse struct {
	Date    string `json:"date"`
	Message string `json:"message,omitempty"`
	availability.DateStatus
}

// handleDateStatus returns whether an order type can be booked on a date.
// GET /api/v1/dates/status?date=YYYY-MM-DD&type=table
func (s *HTTPServer) handleDateStatus(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("date_status")

	date := r.URL.Query().Get("date")
	if _, err := timeutil.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	orderType := model.OrderType(r.URL.Query().Get("type"))

	st := availability.CheckDateStatus(s.calendar.Calendar(), date, orderType, timeutil.Today(s.clock()))
	writeJSON(w, http.StatusOK, DateStatusResponse{Date: date, Message: st.Reason.Message(), DateStatus: st})
}

// DateRangeRequest is the request body for POST /api/v1/dates/availability.
type DateRangeRequest struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Type      model.OrderType `json:"type"`
}

// DateRangeResponse is the response for POST /api/v1/dates/availability.
type DateRangeResponse struct {
	Type model.OrderType          `json:"type"`
	Days []availability.DayStatus `json:"days"`
}

// handleDateRange returns date statuses for a calendar view.
// POST /api/v1/dates/availability
func (s *HTTPServer) handleDateRange(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("date_range")

	var req DateRangeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, "start_date and end_date are required")
		return
	}

	days, err := availability.DateRange(s.calendar.Calendar(), req.StartDate, req.EndDate, req.Type, timeutil.Today(s.clock()))
	switch {
	case errors.Is(err, availability.ErrRangeTooLarge):
		writeError(w, http.StatusBadRequest, "date range exceeds maximum of 90 days")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid date range; expected YYYY-MM-DD with start_date before end_date")
		return
	}
	writeJSON(w, http.StatusOK, DateRangeResponse{Type: req.Type, Days: days})
}

// TablesResponse is the response for GET /api/v1/tables/available.
type TablesResponse struct {
	Date   string        `json:"date"`
	Time   string        `json:"time"`
	Tables []model.Table `json:"tables"`
	Load   int           `json:"kitchenLoad"`
}

// handleAvailableTables lists the tables free for a party at a time.
// GET /api/v1/tables/available?date=YYYY-MM-DD&time=HH:MM&pax=4&exclude=ORDER_ID
func (s *HTTPServer) handleAvailableTables(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("available_tables")

	q := r.URL.Query()
	date, clock := q.Get("date"), q.Get("time")
	if _, err := timeutil.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if !timeutil.IsClock(clock) {
		writeError(w, http.StatusBadRequest, "invalid time format; expected HH:MM")
		return
	}
	pax, err := intParam(q.Get("pax"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pax")
		return
	}

	orders := tables.ExcludeOrder(s.reader.Orders(), q.Get("exclude"))
	free := tables.AvailableTables(date, clock, pax, s.reader.Tables(), orders, s.calendar.Calendar().Policy())
	if free == nil {
		free = []model.Table{}
	}
	writeJSON(w, http.StatusOK, TablesResponse{
		Date:   date,
		Time:   clock,
		Tables: free,
		Load:   load.SlotLoad(orders, date, clock, load.AsOf(timeutil.Today(s.clock()))),
	})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid number")
	}
	return n, nil
}
