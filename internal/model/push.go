package model

import "time"

// PushSubscription mirrors a device push subscription into the remote
// registry, one row per (user, endpoint). The device-level subscription
// is owned by the platform notification subsystem; losing this mirror
// makes the device unreachable from the remote side until re-synced,
// but does not lose the underlying subscription.
type PushSubscription struct {
	UserID     string    `json:"user_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	LastUsedAt time.Time `json:"last_used_at"`
}
