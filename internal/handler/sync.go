package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/brightday/internal/auth"
	syncengine "github.com/dukerupert/brightday/internal/sync"
)

type SyncHandler struct {
	engine *syncengine.Engine
	logger *slog.Logger
}

func NewSyncHandler(engine *syncengine.Engine, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, logger: logger}
}

// FullSync handles POST /api/sync, the session-start sweep. Guest mode
// returns an empty result without touching the network.
func (h *SyncHandler) FullSync(w http.ResponseWriter, r *http.Request) {
	result := h.engine.FullSync(r.Context(), auth.UserID(r.Context()))
	writeJSON(w, http.StatusOK, result)
}

// SyncDate handles POST /api/sync/{date}: reconcile a single date on
// demand (the builder calls this when a date view opens).
func (h *SyncHandler) SyncDate(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
		return
	}

	status := h.engine.SyncDate(r.Context(), auth.UserID(r.Context()), date)
	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}
