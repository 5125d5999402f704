package api

import (
	"bytes"
	"fmt"
	"net/http"

	"pizzaflow/internal/metrics"
	"pizzaflow/internal/report"
	"pizzaflow/internal/timeutil"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleAgenda exports a day's orders as a workbook.
// GET /api/v1/staff/agenda.xlsx?date=YYYY-MM-DD&shift=lunch|dinner
func (s *HTTPServer) handleAgenda(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("agenda")

	q := r.URL.Query()
	today := timeutil.Today(s.clock())
	date := q.Get("date")
	if date == "" {
		date = today
	}
	if _, err := timeutil.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	shift := timeutil.Shift(q.Get("shift"))
	if shift != "" && shift != timeutil.Lunch && shift != timeutil.Dinner {
		writeError(w, http.StatusBadRequest, "shift must be lunch or dinner")
		return
	}

	a := report.Agenda{
		Date:     date,
		Today:    today,
		Shift:    shift,
		Calendar: s.calendar.Calendar(),
		Orders:   s.reader.Orders(),
		Tables:   s.reader.Tables(),
	}
	if s.audit != nil {
		entries, err := s.audit.ListAudit(r.Context(), date)
		if err != nil {
			s.logger.Warn().Err(err).Str("date", date).Msg("audit unavailable for agenda")
		}
		a.Audit = entries
	}

	var buf bytes.Buffer
	err := report.WriteAgenda(&buf, a)
	if err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("agenda export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=agenda_%s.xlsx", date))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
