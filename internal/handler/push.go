package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/brightday/internal/auth"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/push"
)

type PushHandler struct {
	manager *push.Manager
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(manager *push.Manager, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{manager: manager, service: service, logger: logger}
}

// GetVAPIDKey handles GET /api/push/vapid-key
func (h *PushHandler) GetVAPIDKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}

// Ensure handles POST /api/push/ensure, the notification-opt-in prompt
// calls this; terminal permission outcomes come back as 403/422 and the
// UI must not retry them without explicit user action.
func (h *PushHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	sub, err := h.manager.EnsureSubscription(r.Context(), auth.UserID(r.Context()))
	switch {
	case errors.Is(err, push.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "notification permission denied"})
	case errors.Is(err, push.ErrUnsupported):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "push not supported on this device"})
	case err != nil:
		h.logger.Error("ensure subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to subscribe"})
	default:
		writeJSON(w, http.StatusOK, sub)
	}
}

type subscribeRequest struct {
	Endpoint   string `json:"endpoint"`
	P256dh     string `json:"p256dh"`
	Auth       string `json:"auth"`
	DeviceName string `json:"device_name"`
}

// Subscribe handles POST /api/push/subscribe for a browser UI that did its
// own permission prompt registers the resulting subscription here.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint, p256dh, and auth are required"})
		return
	}

	sub := &model.PushSubscription{
		Endpoint:   req.Endpoint,
		P256dhKey:  req.P256dh,
		AuthKey:    req.Auth,
		DeviceName: req.DeviceName,
	}
	if err := h.manager.SaveDeviceSubscription(r.Context(), auth.UserID(r.Context()), sub); err != nil {
		h.logger.Error("save push subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save subscription"})
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscription
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.RevokeSubscription(r.Context(), auth.UserID(r.Context())); err != nil {
		h.logger.Error("revoke subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to unsubscribe"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
