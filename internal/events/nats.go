package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSConfig represents NATS JetStream configuration
type NATSConfig struct {
	URL      string
	Username string
	Password string
	Prefix   string // Stream captures "<prefix>.>"
}

// NATSBus implements Bus using NATS JetStream. One stream named after the
// prefix captures every subject published through the bus.
type NATSBus struct {
	conn          *nats.Conn
	js            nats.JetStreamContext
	stream        string
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
}

// newNATSBus connects to NATS and ensures the event stream exists
func newNATSBus(cfg NATSConfig) (*NATSBus, error) {
	opts := []nats.Option{nats.Name("txcast")}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	bus, err := newNATSBusWithConn(conn, cfg.Prefix)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return bus, nil
}

// newNATSBusWithConn creates a bus over an existing connection
func newNATSBusWithConn(conn *nats.Conn, prefix string) (*NATSBus, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream := sanitizeName(prefix) + "-events"
	if _, err := js.StreamInfo(stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return nil, fmt.Errorf("failed to look up stream %s: %w", stream, err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     stream,
			Subjects: []string{prefix + ".>"},
			Storage:  nats.FileStorage,
			MaxAge:   24 * time.Hour,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream %s: %w", stream, err)
		}
	}

	return &NATSBus{
		conn:          conn,
		js:            js,
		stream:        stream,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// Publish publishes a message and waits for the JetStream ack
func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte) error {
	if _, err := b.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", subject, err)
	}
	return nil
}

// Subscribe creates a durable consumer that only receives messages
// published after it was first created
func (b *NATSBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	// Consumer names can only contain A-Z, a-z, 0-9, dash and underscore
	durableName := "consumer-" + sanitizeName(subject)

	sub, err := b.js.Subscribe(subject, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.BindStream(b.stream),
		nats.Durable(durableName),
		nats.ManualAck(),
		nats.MaxAckPending(100),
		nats.AckWait(30*time.Second),
		nats.MaxDeliver(3),
		nats.DeliverNew(),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	b.subscriptions[subject] = sub
	return nil
}

// Unsubscribe unsubscribes from a subject
func (b *NATSBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from subject %s: %w", subject, err)
	}

	delete(b.subscriptions, subject)
	return nil
}

// Close drains subscriptions and closes the connection
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subject, sub := range b.subscriptions {
		_ = sub.Unsubscribe()
		delete(b.subscriptions, subject)
	}

	b.conn.Close()
	return nil
}

// sanitizeName replaces characters not allowed in stream and consumer names
func sanitizeName(subject string) string {
	result := make([]byte, 0, len(subject))
	for i := 0; i < len(subject); i++ {
		c := subject[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
