// Package notify queues notification records through NATS JetStream and
// persists them with a background worker. When NATS is not configured the
// module falls back to writing notifications directly to the store.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/vibecircles/realtime-core/domain/social"
)

const (
	// StreamName is the name of the JetStream stream for notifications.
	StreamName = "NOTIFICATIONS"
	// SubjectNotifications is the subject wildcard covered by the stream.
	SubjectNotifications = "notifications.>"
	// SubjectNotificationsNew is the subject for new notification messages.
	SubjectNotificationsNew = "notifications.new"
	// ConsumerName is the name of the durable consumer.
	ConsumerName = "notification-writers"
)

// Envelope is the wire format for queued notifications.
type Envelope struct {
	Notification social.Notification `json:"notification"`
	MessageID    string              `json:"message_id"`
}

// Config holds NATS client configuration.
type Config struct {
	URL             string
	MaxDeliverCount int
	AckWait         time.Duration
}

// DefaultConfig returns the default NATS configuration.
func DefaultConfig() Config {
	return Config{
		URL:             "nats://localhost:4222",
		MaxDeliverCount: 5,
		AckWait:         30 * time.Second,
	}
}

// Client provides NATS JetStream operations for the notification queue.
type Client struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	stream   jetstream.Stream
	consumer jetstream.Consumer
	natsURL  string
}

// NewClient creates a new NATS JetStream client.
func NewClient(cfg Config) *Client {
	return &Client{
		natsURL: cfg.URL,
	}
}

// Connect establishes the connection and creates the stream and consumer.
func (c *Client) Connect(ctx context.Context, cfg Config) error {
	nc, err := nats.Connect(c.natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c.nc = nc

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}
	c.js = js

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Pending notification records",
		Subjects:    []string{SubjectNotifications},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	c.stream = stream

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          ConsumerName,
		Durable:       ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       cfg.AckWait,
		MaxDeliver:    cfg.MaxDeliverCount,
		FilterSubject: SubjectNotificationsNew,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	c.consumer = consumer

	log.Printf("[notify] Connected to NATS at %s, stream %s ready", c.natsURL, StreamName)
	return nil
}

// Publish enqueues a notification record.
func (c *Client) Publish(ctx context.Context, n social.Notification) error {
	env := Envelope{
		Notification: n,
		MessageID:    n.ID,
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = c.js.Publish(ctx, SubjectNotificationsNew, data)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// ConsumeMessage wraps a queued notification with acknowledgment methods.
type ConsumeMessage struct {
	Notification  social.Notification
	DeliveryCount int
	msg           jetstream.Msg
}

// Ack acknowledges successful processing of the message.
func (m *ConsumeMessage) Ack() error {
	return m.msg.Ack()
}

// Nak negatively acknowledges the message for redelivery.
func (m *ConsumeMessage) Nak() error {
	return m.msg.Nak()
}

// Subscribe starts consuming queued notifications. The returned channel is
// closed when the context is cancelled.
func (c *Client) Subscribe(ctx context.Context) (<-chan *ConsumeMessage, error) {
	if c.consumer == nil {
		return nil, fmt.Errorf("consumer not initialized")
	}

	msgChan := make(chan *ConsumeMessage, 100)

	go func() {
		defer close(msgChan)

		iter, err := c.consumer.Messages()
		if err != nil {
			log.Printf("[notify] Error creating message iterator: %v", err)
			return
		}
		defer iter.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[notify] Error fetching message: %v", err)
					continue
				}

				var env Envelope
				if err := json.Unmarshal(msg.Data(), &env); err != nil {
					log.Printf("[notify] Error unmarshaling message: %v", err)
					if err := msg.Term(); err != nil {
						log.Printf("[notify] Error terminating message: %v", err)
					}
					continue
				}

				metadata, _ := msg.Metadata()
				deliveryCount := 1
				if metadata != nil {
					deliveryCount = int(metadata.NumDelivered)
				}

				msgChan <- &ConsumeMessage{
					Notification:  env.Notification,
					DeliveryCount: deliveryCount,
					msg:           msg,
				}
			}
		}
	}()

	return msgChan, nil
}

// Close closes the NATS connection.
func (c *Client) Close() error {
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}

// IsConnected returns true if connected to NATS.
func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}
