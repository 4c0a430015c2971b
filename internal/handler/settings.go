package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	logger   *slog.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// GetNotificationSettings handles GET /api/settings/notifications
func (h *SettingsHandler) GetNotificationSettings(w http.ResponseWriter, r *http.Request) {
	ns, err := h.settings.NotificationSettings()
	if err != nil {
		h.logger.Error("get notification settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load settings"})
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

// UpdateNotificationSettings handles PUT /api/settings/notifications
func (h *SettingsHandler) UpdateNotificationSettings(w http.ResponseWriter, r *http.Request) {
	var ns model.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&ns); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if err := h.settings.SetNotificationSettings(ns); err != nil {
		h.logger.Error("save notification settings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
		return
	}
	writeJSON(w, http.StatusOK, ns.Normalize())
}
