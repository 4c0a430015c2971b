package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/brightday/internal/auth"
	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/schedule"
	"github.com/dukerupert/brightday/internal/store"
	syncengine "github.com/dukerupert/brightday/internal/sync"
)

type ScheduleHandler struct {
	schedules *schedule.Manager
	logger    *slog.Logger
}

func NewScheduleHandler(schedules *schedule.Manager, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: logger}
}

// Get handles GET /api/schedules/{date}
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	sched, err := h.schedules.GetScheduleForDate(date)
	if err != nil {
		h.logger.Error("get schedule", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load schedule"})
		return
	}
	if sched == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no schedule for date"})
		return
	}
	writeJSON(w, http.StatusOK, sched)
}

type saveScheduleRequest struct {
	Name       string           `json:"name"`
	Activities []model.Activity `json:"activities"`
}

type saveScheduleResponse struct {
	Schedule   *model.Schedule   `json:"schedule"`
	SyncStatus syncengine.Status `json:"sync_status"`
}

// Save handles PUT /api/schedules/{date}
func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	var req saveScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Activities == nil {
		req.Activities = []model.Activity{}
	}

	sched := &model.Schedule{Date: date, Name: req.Name, Activities: req.Activities}
	status, err := h.schedules.SaveScheduleToDate(r.Context(), auth.UserID(r.Context()), sched)
	if err != nil {
		// A failed local write means the caregiver's edit did not
		// save; it must be shown, never hidden.
		h.logger.Error("save schedule", "date", date, "error", err)
		code := http.StatusInternalServerError
		if errors.Is(err, store.ErrSerialization) {
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, map[string]string{"error": "failed to save schedule"})
		return
	}

	writeJSON(w, http.StatusOK, saveScheduleResponse{Schedule: sched, SyncStatus: status})
}

// Delete handles DELETE /api/schedules/{date}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	if _, err := h.schedules.DeleteSchedule(r.Context(), auth.UserID(r.Context()), date); err != nil {
		h.logger.Error("delete schedule", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete schedule"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	Completed bool `json:"completed"`
}

// Complete handles POST /api/schedules/{date}/activities/{id}/complete
func (h *ScheduleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}
	activityID := r.PathValue("id")
	if activityID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing activity id"})
		return
	}

	req := completeRequest{Completed: true}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
	}

	status, err := h.schedules.SetActivityCompleted(r.Context(), auth.UserID(r.Context()), date, activityID, req.Completed)
	if err != nil {
		h.logger.Error("complete activity", "date", date, "activity", activityID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update activity"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sync_status": status})
}

// MonthDates handles GET /api/schedules?year=2026&month=3. It returns the dates in
// a month that have activities, for the calendar dot indicators.
func (h *ScheduleHandler) MonthDates(w http.ResponseWriter, r *http.Request) {
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

	dates, err := h.schedules.ListDatesWithSchedules(year, time.Month(month))
	if err != nil {
		h.logger.Error("list month dates", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list dates"})
		return
	}
	if dates == nil {
		dates = []dateutil.Date{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": dates})
}

func parseDateParam(r *http.Request) (dateutil.Date, error) {
	return dateutil.Parse(r.PathValue("date"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
