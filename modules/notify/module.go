package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-monolith/mono"

	"github.com/vibecircles/realtime-core/domain/social"
)

// persistTimeout bounds each store write performed by the worker.
const persistTimeout = 5 * time.Second

// Module queues notifications through JetStream and persists them with a
// background worker. Without a NATS URL it degrades to direct store writes.
type Module struct {
	config Config
	client *Client
	store  social.NotificationSink

	workerCancel context.CancelFunc
	workerDone   chan struct{}
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)
var _ social.NotificationSink = (*Module)(nil)

// NewModule creates a notify module. An empty natsURL selects direct mode.
func NewModule(natsURL string) *Module {
	cfg := DefaultConfig()
	cfg.URL = natsURL
	return &Module{config: cfg}
}

// SetStore wires the persistent notification sink. Must be called before Start.
func (m *Module) SetStore(store social.NotificationSink) {
	m.store = store
}

// Name returns the module name.
func (m *Module) Name() string {
	return "notify"
}

// Start connects to NATS (when configured) and launches the worker.
func (m *Module) Start(ctx context.Context) error {
	if m.store == nil {
		return errors.New("notify: store not set")
	}

	if m.config.URL == "" {
		log.Println("[notify] NATS not configured, using direct store writes")
		return nil
	}

	m.client = NewClient(m.config)
	if err := m.client.Connect(ctx, m.config); err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	m.workerCancel = cancel
	m.workerDone = make(chan struct{})

	messages, err := m.client.Subscribe(workerCtx)
	if err != nil {
		cancel()
		return err
	}
	go m.runWorker(messages)

	log.Println("[notify] Module started")
	return nil
}

// runWorker drains the queue, persisting each notification.
func (m *Module) runWorker(messages <-chan *ConsumeMessage) {
	defer close(m.workerDone)
	for msg := range messages {
		m.handleMessage(msg)
	}
}

func (m *Module) handleMessage(msg *ConsumeMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := m.store.CreateNotification(ctx, msg.Notification); err != nil {
		log.Printf("[notify] Failed to persist notification %s (delivery %d): %v",
			msg.Notification.ID, msg.DeliveryCount, err)
		if err := msg.Nak(); err != nil {
			log.Printf("[notify] Failed to nak message: %v", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		log.Printf("[notify] Failed to ack message: %v", err)
	}
}

// Stop drains the worker and closes the NATS connection.
func (m *Module) Stop(_ context.Context) error {
	if m.workerCancel != nil {
		m.workerCancel()
		select {
		case <-m.workerDone:
		case <-time.After(5 * time.Second):
			log.Println("[notify] Worker did not drain in time")
		}
	}
	if m.client != nil {
		_ = m.client.Close()
	}
	log.Println("[notify] Module stopped")
	return nil
}

// Health reports queue connectivity.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.config.URL == "" {
		return mono.HealthStatus{Healthy: true, Message: "direct mode"}
	}
	if m.client == nil || !m.client.IsConnected() {
		return mono.HealthStatus{Healthy: false, Message: "nats disconnected"}
	}
	return mono.HealthStatus{Healthy: true, Message: "nats connected"}
}

// CreateNotification enqueues the notification, falling back to a direct
// store write when the queue is unavailable.
func (m *Module) CreateNotification(ctx context.Context, n social.Notification) error {
	if m.client != nil && m.client.IsConnected() {
		err := m.client.Publish(ctx, n)
		if err == nil {
			return nil
		}
		log.Printf("[notify] Publish failed, writing directly: %v", err)
	}
	return m.store.CreateNotification(ctx, n)
}
