package events

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig represents Redis Streams configuration
type RedisConfig struct {
	URL      string // Redis URL (e.g., redis://localhost:6379)
	Password string // Optional password, overrides the URL
	DB       int    // Database number, overrides the URL when non-zero
	Group    string // Consumer group name (default: "txcast-group")
	Consumer string // Consumer name (default: hostname)
	MaxLen   int64  // Approximate stream length cap (default: 10000)
}

// RedisBus implements Bus using Redis Streams with consumer groups
type RedisBus struct {
	client        *redis.Client
	config        RedisConfig
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// newRedisBus connects to Redis and applies defaults
func newRedisBus(cfg RedisConfig) (*RedisBus, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Group == "" {
		cfg.Group = "txcast-group"
	}
	if cfg.Consumer == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "consumer-1"
		}
		cfg.Consumer = hostname
	}
	if cfg.MaxLen == 0 {
		cfg.MaxLen = 10000
	}

	return &RedisBus{
		client:        client,
		config:        cfg,
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

// Publish appends a message to the subject's stream
func (b *RedisBus) Publish(ctx context.Context, subject string, data []byte) error {
	_, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: subject,
		MaxLen: b.config.MaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{"data": data},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", subject, err)
	}
	return nil
}

// Subscribe joins the consumer group of the subject's stream. Only
// messages added after the group was created are delivered.
func (b *RedisBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ctx, cancel := context.WithCancel(context.Background())

	err := b.client.XGroupCreateMkStream(ctx, subject, b.config.Group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.readStream(ctx, subject, handler)
	}()

	b.subscriptions[subject] = cancel
	return nil
}

// readStream reads and acknowledges messages until ctx is cancelled
func (b *RedisBus) readStream(ctx context.Context, stream string, handler MessageHandler) {
	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.config.Group,
			Consumer: b.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    100,
			Block:    2 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				data, ok := msg.Values["data"].(string)
				if !ok {
					b.client.XAck(ctx, stream, b.config.Group, msg.ID)
					continue
				}

				// Unacked messages stay pending for redelivery
				if err := handler([]byte(data)); err != nil {
					continue
				}

				b.client.XAck(ctx, stream, b.config.Group, msg.ID)
			}
		}
	}
}

// Unsubscribe stops reading a subject
func (b *RedisBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancel, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(b.subscriptions, subject)
	return nil
}

// Close stops all readers and closes the client
func (b *RedisBus) Close() error {
	b.mu.Lock()
	for subject, cancel := range b.subscriptions {
		cancel()
		delete(b.subscriptions, subject)
	}
	b.mu.Unlock()

	b.wg.Wait()
	return b.client.Close()
}
