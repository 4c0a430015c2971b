package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/brightday/internal/remotesvc/store"
	"github.com/dukerupert/brightday/internal/remotesvc/token"
)

// PairingHandler registers users and exchanges pairing secrets for
// bearer tokens. Both routes sit behind the rate limiter; the secret is
// the only credential a household shares between devices.
type PairingHandler struct {
	users     *store.UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *slog.Logger
}

func NewPairingHandler(users *store.UserStore, jwtSecret []byte, logger *slog.Logger) *PairingHandler {
	return &PairingHandler{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  token.DefaultTTL,
		logger:    logger,
	}
}

type registerRequest struct {
	UserID string `json:"user_id"`
	Secret string `json:"secret"`
}

// Register handles POST /api/register
func (h *PairingHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || len(req.Secret) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and a secret of at least 8 characters required"})
		return
	}

	existing, err := h.users.Get(req.UserID)
	if err != nil {
		h.logger.Error("check user", "user", req.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "user already exists"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Secret), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash secret", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	if err := h.users.Create(req.UserID, string(hash)); err != nil {
		h.logger.Error("create user", "user", req.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "registration failed"})
		return
	}

	h.logger.Info("user registered", "user", req.UserID)
	w.WriteHeader(http.StatusCreated)
}

type pairRequest struct {
	UserID     string `json:"user_id"`
	Secret     string `json:"secret"`
	DeviceName string `json:"device_name"`
}

type pairResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Pair handles POST /api/pair
func (h *PairingHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	user, err := h.users.Get(strings.TrimSpace(req.UserID))
	if err != nil {
		h.logger.Error("look up user", "user", req.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pairing failed"})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.SecretHash), []byte(req.Secret)) != nil {
		// Same answer for unknown user and wrong secret.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	signed, err := token.Mint(h.jwtSecret, user.ID, h.tokenTTL)
	if err != nil {
		h.logger.Error("mint token", "user", user.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pairing failed"})
		return
	}

	device := &store.Device{ID: uuid.NewString(), UserID: user.ID, Name: req.DeviceName}
	if err := h.users.AddDevice(device); err != nil {
		h.logger.Warn("record device", "user", user.ID, "error", err)
	}

	h.logger.Info("device paired", "user", user.ID, "device", req.DeviceName)
	writeJSON(w, http.StatusOK, pairResponse{
		Token:     signed,
		ExpiresAt: time.Now().Add(h.tokenTTL),
	})
}
