package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
)

type CalendarHandler struct {
	loc    *time.Location
	logger *slog.Logger
}

func NewCalendarHandler(loc *time.Location, logger *slog.Logger) *CalendarHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarHandler{loc: loc, logger: logger}
}

// MonthGrid handles GET /api/calendar?year=2026&month=3. It returns the grid of
// day cells the calendar widgets render.
func (h *CalendarHandler) MonthGrid(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month"})
		return
	}

	grid := dateutil.MonthGrid(year, time.Month(month), dateutil.Today(h.loc))
	writeJSON(w, http.StatusOK, map[string]any{"weeks": grid})
}
