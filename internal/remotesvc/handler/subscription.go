package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/brightday/internal/auth"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/remotesvc/store"
)

type SubscriptionHandler struct {
	subscriptions *store.SubscriptionStore
	logger        *slog.Logger
}

func NewSubscriptionHandler(subscriptions *store.SubscriptionStore, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, logger: logger}
}

// Upsert handles POST /api/users/{user}/subscriptions
func (h *SubscriptionHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var sub model.PushSubscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if sub.Endpoint == "" || sub.P256dhKey == "" || sub.AuthKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint and keys required"})
		return
	}
	sub.UserID = auth.UserID(r.Context())

	if err := h.subscriptions.Upsert(&sub); err != nil {
		h.logger.Error("upsert subscription", "endpoint", sub.Endpoint, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store subscription"})
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// Delete handles DELETE /api/users/{user}/subscriptions?endpoint=...
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint required"})
		return
	}

	if err := h.subscriptions.Delete(auth.UserID(r.Context()), endpoint); err != nil {
		h.logger.Error("delete subscription", "endpoint", endpoint, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete subscription"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/users/{user}/subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list subscriptions", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list subscriptions"})
		return
	}
	if subs == nil {
		subs = []*model.PushSubscription{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}
