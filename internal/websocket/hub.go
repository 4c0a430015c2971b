package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message is a real-time event broadcast to every connected UI client.
type Message struct {
	Type  string         `json:"type"`
	Date  string         `json:"date,omitempty"`
	Extra map[string]any `json:"extra,omitempty"`
}

// ScheduleUpdated announces that a date's schedule changed locally
// (edit, clone, or a sync pull from another device).
func ScheduleUpdated(date string) Message {
	return Message{Type: "schedule_updated", Date: date}
}

// SyncStatus carries the per-date sync indicator state.
func SyncStatus(date, status string) Message {
	return Message{Type: "sync_status", Date: date, Extra: map[string]any{"status": status}}
}

// ReminderFired announces a delivered reminder so an open UI can show it
// inline.
func ReminderFired(date, activityID, label string) Message {
	return Message{
		Type: "reminder_fired",
		Date: date,
		Extra: map[string]any{
			"activity_id": activityID,
			"label":       label,
		},
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
