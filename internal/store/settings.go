package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/brightday/internal/model"
)

// Settings keys.
const (
	keyNotificationSettings = "notification_settings"
	keyPushPermission       = "push_permission"
	keyPushSubscription     = "push_subscription"
	keyDisplayName          = "display_name"
)

// SettingsStore is simple key/value persistence for device-local
// preferences.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// NotificationSettings loads the reminder policy, falling back to
// defaults when none has been saved yet.
func (s *SettingsStore) NotificationSettings() (model.NotificationSettings, error) {
	raw, err := s.Get(keyNotificationSettings)
	if err != nil {
		return model.NotificationSettings{}, err
	}
	if raw == "" {
		return model.DefaultNotificationSettings(), nil
	}

	var ns model.NotificationSettings
	if err := json.Unmarshal([]byte(raw), &ns); err != nil {
		return model.NotificationSettings{}, fmt.Errorf("%w: decode notification settings: %v", ErrSerialization, err)
	}
	return ns.Normalize(), nil
}

// SetNotificationSettings saves the reminder policy.
func (s *SettingsStore) SetNotificationSettings(ns model.NotificationSettings) error {
	raw, err := json.Marshal(ns.Normalize())
	if err != nil {
		return fmt.Errorf("%w: encode notification settings: %v", ErrSerialization, err)
	}
	return s.Set(keyNotificationSettings, string(raw))
}

// PushPermission returns the recorded notification permission outcome:
// "", "granted", "denied", or "unsupported". Denied and unsupported are
// terminal; the subscription manager never re-prompts on them.
func (s *SettingsStore) PushPermission() (string, error) {
	return s.Get(keyPushPermission)
}

func (s *SettingsStore) SetPushPermission(state string) error {
	return s.Set(keyPushPermission, state)
}

// DeviceSubscription returns the device's push subscription mirror, or
// nil if the device has never subscribed.
func (s *SettingsStore) DeviceSubscription() (*model.PushSubscription, error) {
	raw, err := s.Get(keyPushSubscription)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var sub model.PushSubscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return nil, fmt.Errorf("%w: decode push subscription: %v", ErrSerialization, err)
	}
	return &sub, nil
}

// SetDeviceSubscription saves the device's push subscription; nil clears it.
func (s *SettingsStore) SetDeviceSubscription(sub *model.PushSubscription) error {
	if sub == nil {
		return s.Set(keyPushSubscription, "")
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("%w: encode push subscription: %v", ErrSerialization, err)
	}
	return s.Set(keyPushSubscription, string(raw))
}

// DisplayName returns the caregiver-facing plan owner name.
func (s *SettingsStore) DisplayName() (string, error) {
	return s.Get(keyDisplayName)
}

func (s *SettingsStore) SetDisplayName(name string) error {
	return s.Set(keyDisplayName, name)
}
