package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/vibecircles/realtime-core/domain/social"
)

type fakeSink struct {
	created []social.Notification
	err     error
}

func (f *fakeSink) CreateNotification(_ context.Context, n social.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, n)
	return nil
}

func TestModule_StartRequiresStore(t *testing.T) {
	m := NewModule("")
	if err := m.Start(context.Background()); err == nil {
		t.Error("Start() should fail without a store")
	}
}

func TestModule_DirectMode(t *testing.T) {
	sink := &fakeSink{}
	m := NewModule("")
	m.SetStore(sink)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer m.Stop(context.Background())

	n := social.Notification{
		UserID:  "user-1",
		Type:    "new_message",
		Title:   "New Message",
		Message: "alice: hello",
	}
	if err := m.CreateNotification(context.Background(), n); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	if len(sink.created) != 1 {
		t.Fatalf("store received %d notifications, want 1", len(sink.created))
	}
	if sink.created[0].UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", sink.created[0].UserID)
	}
}

func TestModule_DirectModeSurfacesStoreError(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	m := NewModule("")
	m.SetStore(sink)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	err := m.CreateNotification(context.Background(), social.Notification{UserID: "user-1"})
	if err == nil {
		t.Error("CreateNotification() should surface the store error")
	}
}

func TestModule_HealthDirectMode(t *testing.T) {
	m := NewModule("")
	m.SetStore(&fakeSink{})

	status := m.Health(context.Background())
	if !status.Healthy {
		t.Error("direct mode should report healthy")
	}
}

func TestModule_HealthDisconnected(t *testing.T) {
	m := NewModule("nats://localhost:4222")
	m.SetStore(&fakeSink{})

	status := m.Health(context.Background())
	if status.Healthy {
		t.Error("unstarted NATS mode should report unhealthy")
	}
}
