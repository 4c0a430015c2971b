package push

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/brightday/internal/database"
	"github.com/dukerupert/brightday/internal/model"
	"github.com/dukerupert/brightday/internal/store"
)

// fakeGateway scripts the platform permission flow.
type fakeGateway struct {
	permission   string
	promptResult string
	prompts      int
	subscribes   int
	unsubscribes int
	sub          *model.PushSubscription
}

func (g *fakeGateway) Permission(ctx context.Context) (string, error) {
	return g.permission, nil
}

func (g *fakeGateway) RequestPermission(ctx context.Context) (string, error) {
	g.prompts++
	return g.promptResult, nil
}

func (g *fakeGateway) Subscribe(ctx context.Context, vapidPublicKey string) (*model.PushSubscription, error) {
	g.subscribes++
	if g.sub == nil {
		return nil, errors.New("no subscription available")
	}
	cp := *g.sub
	return &cp, nil
}

func (g *fakeGateway) Unsubscribe(ctx context.Context) error {
	g.unsubscribes++
	return nil
}

type fakeRegistry struct {
	upserts int
	deletes int
	fail    bool
}

func (r *fakeRegistry) UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error {
	if r.fail {
		return errors.New("registry down")
	}
	r.upserts++
	return nil
}

func (r *fakeRegistry) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	if r.fail {
		return errors.New("registry down")
	}
	r.deletes++
	return nil
}

func setupManager(t *testing.T, gateway *fakeGateway, registry Registry) (*Manager, *store.SettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	settings := store.NewSettingsStore(db)
	return NewManager(gateway, settings, registry, "vapid-pub", "kitchen tablet", slog.Default()), settings
}

func deviceSub() *model.PushSubscription {
	return &model.PushSubscription{
		Endpoint:  "https://push.example.com/send/abc",
		P256dhKey: "p256dh",
		AuthKey:   "auth",
	}
}

func TestEnsureSubscriptionGranted(t *testing.T) {
	gateway := &fakeGateway{permission: PermissionDefault, promptResult: PermissionGranted, sub: deviceSub()}
	registry := &fakeRegistry{}
	m, settings := setupManager(t, gateway, registry)

	sub, err := m.EnsureSubscription(context.Background(), "june")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if sub.UserID != "june" {
		t.Errorf("user = %q, want june", sub.UserID)
	}
	if sub.DeviceName != "kitchen tablet" {
		t.Errorf("device name = %q", sub.DeviceName)
	}
	if registry.upserts != 1 {
		t.Errorf("registry upserts = %d, want 1", registry.upserts)
	}

	// Permission outcome and subscription are persisted.
	state, _ := settings.PushPermission()
	if state != PermissionGranted {
		t.Errorf("recorded permission = %q, want granted", state)
	}
	stored, _ := settings.DeviceSubscription()
	if stored == nil || stored.Endpoint != sub.Endpoint {
		t.Errorf("stored subscription = %+v", stored)
	}
}

func TestEnsureSubscriptionDeniedIsTerminal(t *testing.T) {
	gateway := &fakeGateway{permission: PermissionDefault, promptResult: PermissionDenied, sub: deviceSub()}
	m, _ := setupManager(t, gateway, nil)

	if _, err := m.EnsureSubscription(context.Background(), "june"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if gateway.prompts != 1 {
		t.Fatalf("prompts = %d, want 1", gateway.prompts)
	}

	// A second attempt resolves from the persisted state without
	// prompting again.
	if _, err := m.EnsureSubscription(context.Background(), "june"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("second call err = %v", err)
	}
	if gateway.prompts != 1 {
		t.Errorf("prompts after second call = %d; denied must never re-prompt", gateway.prompts)
	}
	if gateway.subscribes != 0 {
		t.Errorf("subscribed despite denial")
	}
}

func TestEnsureSubscriptionUnsupported(t *testing.T) {
	gateway := &fakeGateway{permission: PermissionUnsupported}
	m, settings := setupManager(t, gateway, nil)

	if _, err := m.EnsureSubscription(context.Background(), "june"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
	state, _ := settings.PushPermission()
	if state != PermissionUnsupported {
		t.Errorf("recorded permission = %q, want unsupported", state)
	}
}

func TestEnsureSubscriptionRegistryFailureIsNotFatal(t *testing.T) {
	gateway := &fakeGateway{permission: PermissionGranted, sub: deviceSub()}
	registry := &fakeRegistry{fail: true}
	m, settings := setupManager(t, gateway, registry)

	sub, err := m.EnsureSubscription(context.Background(), "june")
	if err != nil {
		t.Fatalf("ensure with failing registry: %v", err)
	}
	if sub == nil {
		t.Fatal("expected subscription despite registry failure")
	}
	stored, _ := settings.DeviceSubscription()
	if stored == nil {
		t.Error("device subscription not kept after registry failure")
	}
}

func TestRevokeSubscriptionKeepsPermission(t *testing.T) {
	gateway := &fakeGateway{permission: PermissionGranted, sub: deviceSub()}
	registry := &fakeRegistry{}
	m, settings := setupManager(t, gateway, registry)

	if _, err := m.EnsureSubscription(context.Background(), "june"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := m.RevokeSubscription(context.Background(), "june"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if gateway.unsubscribes != 1 {
		t.Errorf("unsubscribes = %d, want 1", gateway.unsubscribes)
	}
	if registry.deletes != 1 {
		t.Errorf("registry deletes = %d, want 1", registry.deletes)
	}
	stored, _ := settings.DeviceSubscription()
	if stored != nil {
		t.Error("subscription still stored after revoke")
	}
	state, _ := settings.PushPermission()
	if state != PermissionGranted {
		t.Errorf("permission = %q after revoke, want granted kept", state)
	}
}

func TestSaveDeviceSubscription(t *testing.T) {
	registry := &fakeRegistry{}
	m, settings := setupManager(t, &fakeGateway{}, registry)

	sub := deviceSub()
	if err := m.SaveDeviceSubscription(context.Background(), "june", sub); err != nil {
		t.Fatalf("save: %v", err)
	}

	state, _ := settings.PushPermission()
	if state != PermissionGranted {
		t.Errorf("permission = %q, want granted", state)
	}
	stored, _ := settings.DeviceSubscription()
	if stored == nil || stored.UserID != "june" {
		t.Errorf("stored = %+v", stored)
	}
	if registry.upserts != 1 {
		t.Errorf("registry upserts = %d, want 1", registry.upserts)
	}
}
