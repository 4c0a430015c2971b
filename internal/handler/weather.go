package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/weather"
)

type WeatherHandler struct {
	svc    *weather.Service
	loc    *time.Location
	logger *slog.Logger
}

func NewWeatherHandler(svc *weather.Service, loc *time.Location, logger *slog.Logger) *WeatherHandler {
	if loc == nil {
		loc = time.Local
	}
	return &WeatherHandler{svc: svc, loc: loc, logger: logger}
}

// Get handles GET /api/weather?date=2026-03-14. The date defaults to
// today and picks which day's outlook accompanies the current reading.
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Enabled() {
		writeJSON(w, http.StatusOK, map[string]any{"configured": false})
		return
	}

	date := dateutil.Today(h.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := dateutil.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
			return
		}
		date = parsed
	}

	resp := map[string]any{"configured": true}
	if cur, ok := h.svc.Now(); ok {
		resp["current"] = cur
	}
	if f, ok := h.svc.Forecast(date); ok {
		resp["forecast"] = f
	}
	writeJSON(w, http.StatusOK, resp)
}
