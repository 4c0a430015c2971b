package push

import (
	"context"

	"github.com/dukerupert/brightday/internal/model"
)

// Notification permission outcomes. Denied and unsupported are terminal:
// the manager records them and never re-prompts automatically.
const (
	PermissionDefault     = "default"
	PermissionGranted     = "granted"
	PermissionDenied      = "denied"
	PermissionUnsupported = "unsupported"
)

// DeviceGateway is the boundary to the platform notification subsystem
// that owns the actual push subscription object. The engine only ever
// holds a mirror of what the gateway hands back.
type DeviceGateway interface {
	// Permission returns the current permission state without prompting.
	Permission(ctx context.Context) (string, error)
	// RequestPermission prompts the user and returns the terminal
	// outcome: granted, denied, or unsupported.
	RequestPermission(ctx context.Context) (string, error)
	// Subscribe obtains the device subscription, reusing an existing
	// one when the platform already holds it.
	Subscribe(ctx context.Context, vapidPublicKey string) (*model.PushSubscription, error)
	// Unsubscribe releases the device-level subscription.
	Unsubscribe(ctx context.Context) error
}

// StaticGateway is a DeviceGateway for pre-provisioned devices (kiosk
// displays, companion apps that pass their subscription in config).
// Permission is implicitly granted when a subscription is configured
// and unsupported otherwise.
type StaticGateway struct {
	sub *model.PushSubscription
}

// NewStaticGateway wraps a pre-provisioned subscription; sub may be nil
// for devices without push capability.
func NewStaticGateway(sub *model.PushSubscription) *StaticGateway {
	return &StaticGateway{sub: sub}
}

func (g *StaticGateway) Permission(ctx context.Context) (string, error) {
	if g.sub == nil {
		return PermissionUnsupported, nil
	}
	return PermissionGranted, nil
}

func (g *StaticGateway) RequestPermission(ctx context.Context) (string, error) {
	return g.Permission(ctx)
}

func (g *StaticGateway) Subscribe(ctx context.Context, vapidPublicKey string) (*model.PushSubscription, error) {
	if g.sub == nil {
		return nil, ErrUnsupported
	}
	sub := *g.sub
	return &sub, nil
}

func (g *StaticGateway) Unsubscribe(ctx context.Context) error {
	return nil
}
