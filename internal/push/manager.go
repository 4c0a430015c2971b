package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

// Terminal permission errors. Both are user-actionable only: the system
// must not re-prompt on its own.
var (
	ErrPermissionDenied = errors.New("notification permission denied")
	ErrUnsupported      = errors.New("push not supported on this device")
)

// Registry is the slice of the remote client the manager uses to mirror
// subscriptions. A nil registry means guest mode: the device-level
// subscription still works locally, it just isn't reachable from the
// remote side.
type Registry interface {
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, userID, endpoint string) error
}

// Manager owns the push subscription lifecycle: permission flow,
// device-level subscribe, and mirroring into the remote registry.
type Manager struct {
	gateway    DeviceGateway
	settings   *store.SettingsStore
	registry   Registry
	vapidPub   string
	deviceName string
	logger     *slog.Logger
}

func NewManager(gateway DeviceGateway, settings *store.SettingsStore, registry Registry, vapidPublicKey, deviceName string, logger *slog.Logger) *Manager {
	return &Manager{
		gateway:    gateway,
		settings:   settings,
		registry:   registry,
		vapidPub:   vapidPublicKey,
		deviceName: deviceName,
		logger:     logger,
	}
}

// EnsureSubscription makes sure a live subscription exists for this
// device and is mirrored into the remote registry. Idempotent: with an
// already-live subscription it only refreshes last_used_at. A registry
// failure after a successful device-level subscribe is not rolled back;
// the mirror is retried the next time this is called.
func (m *Manager) EnsureSubscription(ctx context.Context, userID string) (*model.PushSubscription, error) {
	state, err := m.permissionState(ctx)
	if err != nil {
		return nil, err
	}
	switch state {
	case PermissionDenied:
		return nil, ErrPermissionDenied
	case PermissionUnsupported:
		return nil, ErrUnsupported
	}

	sub, err := m.gateway.Subscribe(ctx, m.vapidPub)
	if err != nil {
		return nil, fmt.Errorf("device subscribe: %w", err)
	}

	sub.UserID = userID
	sub.LastUsedAt = time.Now().UTC()
	if sub.DeviceName == "" {
		sub.DeviceName = m.deviceName
	}

	if err := m.settings.SetDeviceSubscription(sub); err != nil {
		return nil, err
	}

	if m.registry != nil && userID != "" {
		if err := m.registry.UpsertSubscription(ctx, sub); err != nil {
			// The device is still subscribed; an un-mirrored
			// subscription is inert but not harmful.
			m.logger.Warn("push: mirror subscription", "error", err)
		}
	}

	return sub, nil
}

// RevokeSubscription unsubscribes the device and removes the registry
// mirror. The recorded permission state is kept: disabling notifications
// is not the same as the platform denying them.
func (m *Manager) RevokeSubscription(ctx context.Context, userID string) error {
	sub, err := m.settings.DeviceSubscription()
	if err != nil {
		return err
	}

	if err := m.gateway.Unsubscribe(ctx); err != nil {
		return fmt.Errorf("device unsubscribe: %w", err)
	}

	if err := m.settings.SetDeviceSubscription(nil); err != nil {
		return err
	}

	if m.registry != nil && userID != "" && sub != nil {
		if err := m.registry.DeleteSubscription(ctx, userID, sub.Endpoint); err != nil {
			m.logger.Warn("push: delete subscription mirror", "error", err)
		}
	}
	return nil
}

// SaveDeviceSubscription records a subscription obtained by an external
// UI (a browser doing its own permission prompt and pushManager
// subscribe) and mirrors it, bypassing the gateway.
func (m *Manager) SaveDeviceSubscription(ctx context.Context, userID string, sub *model.PushSubscription) error {
	if err := m.settings.SetPushPermission(PermissionGranted); err != nil {
		return err
	}
	sub.UserID = userID
	sub.LastUsedAt = time.Now().UTC()
	if err := m.settings.SetDeviceSubscription(sub); err != nil {
		return err
	}
	if m.registry != nil && userID != "" {
		if err := m.registry.UpsertSubscription(ctx, sub); err != nil {
			m.logger.Warn("push: mirror subscription", "error", err)
		}
	}
	return nil
}

// permissionState resolves the effective permission, prompting at most
// once and persisting terminal outcomes so they are never re-prompted.
func (m *Manager) permissionState(ctx context.Context) (string, error) {
	recorded, err := m.settings.PushPermission()
	if err != nil {
		return "", err
	}
	if recorded == PermissionDenied || recorded == PermissionUnsupported || recorded == PermissionGranted {
		return recorded, nil
	}

	state, err := m.gateway.Permission(ctx)
	if err != nil {
		return "", fmt.Errorf("query permission: %w", err)
	}
	if state == PermissionDefault || state == "" {
		state, err = m.gateway.RequestPermission(ctx)
		if err != nil {
			return "", fmt.Errorf("request permission: %w", err)
		}
	}

	if err := m.settings.SetPushPermission(state); err != nil {
		return "", err
	}
	return state, nil
}
