package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/brightday/internal/auth"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/remotesvc/store"
)

type ScheduleHandler struct {
	schedules *store.ScheduleStore
	logger    *slog.Logger
}

func NewScheduleHandler(schedules *store.ScheduleStore, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: logger}
}

// Get handles GET /api/users/{user}/schedules/{date}
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	sched, err := h.schedules.Get(auth.UserID(r.Context()), date)
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

// Put handles PUT /api/users/{user}/schedules/{date}. The body's
// updated_at is stored verbatim; last-write-wins resolution happens on
// the devices, the service just keeps the newest record it was given.
func (h *ScheduleHandler) Put(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	var sched model.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	sched.Date = date
	if sched.UpdatedAt.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "updated_at required"})
		return
	}
	if sched.Activities == nil {
		sched.Activities = []model.Activity{}
	}

	userID := auth.UserID(r.Context())

	// Only move forward. A device replaying a stale record must not
	// clobber a newer one another device already pushed.
	existing, err := h.schedules.Get(userID, date)
	if err != nil {
		h.logger.Error("check existing schedule", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store schedule"})
		return
	}
	if existing != nil && existing.UpdatedAt.After(sched.UpdatedAt) {
		writeJSON(w, http.StatusOK, existing)
		return
	}

	if err := h.schedules.Put(userID, &sched); err != nil {
		h.logger.Error("put schedule", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store schedule"})
		return
	}
	writeJSON(w, http.StatusOK, &sched)
}

// Delete handles DELETE /api/users/{user}/schedules/{date}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	if err := h.schedules.Delete(auth.UserID(r.Context()), date); err != nil {
		h.logger.Error("delete schedule", "date", date, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete schedule"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ModifiedSince handles GET /api/users/{user}/schedules?since=RFC3339
func (h *ScheduleHandler) ModifiedSince(w http.ResponseWriter, r *http.Request) {
	since, err := time.Parse(time.RFC3339, r.URL.Query().Get("since"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid since timestamp"})
		return
	}

	dates, err := h.schedules.ListModifiedSince(auth.UserID(r.Context()), since)
	if err != nil {
		h.logger.Error("list modified schedules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedules"})
		return
	}

	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": out})
}
