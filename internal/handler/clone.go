package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/brightday/internal/auth"
	"github.com/dukerupert/brightday/internal/clone"
	"github.com/dukerupert/brightday/internal/dateutil"
	"github.com/dukerupert/brightday/internal/recurrence"
)

type CloneHandler struct {
	cloner *clone.Engine
	loc    *time.Location
	logger *slog.Logger
}

func NewCloneHandler(cloner *clone.Engine, loc *time.Location, logger *slog.Logger) *CloneHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CloneHandler{cloner: cloner, loc: loc, logger: logger}
}

type cloneRequest struct {
	Source string `json:"source"`
	// Either explicit targets or a recurrence rule with an end date.
	Targets []string `json:"targets,omitempty"`
	Rule    string   `json:"rule,omitempty"`
	Until   string   `json:"until,omitempty"`
}

// Clone handles POST /api/schedules/clone
func (h *CloneHandler) Clone(w http.ResponseWriter, r *http.Request) {
	var req cloneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	source, err := dateutil.Parse(req.Source)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid source date"})
		return
	}

	userID := auth.UserID(r.Context())

	switch {
	case len(req.Targets) > 0:
		targets := make([]dateutil.Date, 0, len(req.Targets))
		for _, t := range req.Targets {
			d, err := dateutil.Parse(t)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid target date"})
				return
			}
			targets = append(targets, d)
		}
		err = h.cloner.CloneToDates(r.Context(), userID, source, targets)

	case req.Rule != "":
		rule, perr := recurrence.Parse(req.Rule)
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": perr.Error()})
			return
		}
		until, perr := dateutil.Parse(req.Until)
		if perr != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid until date"})
			return
		}
		err = h.cloner.CloneByRecurrence(r.Context(), userID, source, rule, until, dateutil.Today(h.loc))

	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "targets or rule required"})
		return
	}

	if err != nil {
		h.logger.Error("clone schedule", "source", source, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "clone failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
