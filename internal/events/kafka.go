package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig represents Apache Kafka configuration
type KafkaConfig struct {
	Brokers       []string      // Kafka broker addresses
	GroupID       string        // Consumer group ID (default: "txcast-group")
	BatchTimeout  time.Duration // Producer batch timeout (default: 10ms)
	MaxRetries    int           // Producer attempts (default: 3)
	RetryBackoff  time.Duration // Backoff between commit retries (default: 100ms)
	CommitRetries int           // Consumer commit retries (default: 3)
}

// KafkaBus implements Bus using Apache Kafka. Subjects map 1:1 to topics.
type KafkaBus struct {
	config        KafkaConfig
	writer        *kafka.Writer
	readers       map[string]*kafka.Reader
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.Mutex
}

// newKafkaBus validates the configuration and prepares a shared writer
func newKafkaBus(cfg KafkaConfig) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	if cfg.GroupID == "" {
		cfg.GroupID = "txcast-group"
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.CommitRetries == 0 {
		cfg.CommitRetries = 3
	}

	// Topic is set per message so one writer serves every subject
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            cfg.MaxRetries,
		AllowAutoTopicCreation: true,
	}

	return &KafkaBus{
		config:        cfg,
		writer:        writer,
		readers:       make(map[string]*kafka.Reader),
		subscriptions: make(map[string]context.CancelFunc),
	}, nil
}

// Publish writes a message to the subject's topic
func (b *KafkaBus) Publish(ctx context.Context, subject string, data []byte) error {
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Value: data,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe consumes the subject's topic with the configured group
func (b *KafkaBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.config.Brokers,
		GroupID:     b.config.GroupID,
		Topic:       subject,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		StartOffset: kafka.LastOffset,
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.readers[subject] = reader
	b.subscriptions[subject] = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(ctx, reader, handler)
	}()

	return nil
}

// consume reads messages and commits the ones handled successfully
func (b *KafkaBus) consume(ctx context.Context, reader *kafka.Reader, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(b.config.RetryBackoff)
			continue
		}

		// Uncommitted messages are redelivered after a rebalance
		if err := handler(msg.Value); err != nil {
			continue
		}

		for i := 0; i < b.config.CommitRetries; i++ {
			if err := reader.CommitMessages(ctx, msg); err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			time.Sleep(b.config.RetryBackoff)
		}
	}
}

// Unsubscribe stops consuming a topic
func (b *KafkaBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancel, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}

	cancel()
	if reader, ok := b.readers[subject]; ok {
		_ = reader.Close()
		delete(b.readers, subject)
	}
	delete(b.subscriptions, subject)
	return nil
}

// Close stops all consumers and flushes the writer
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	var lastErr error
	for subject, cancel := range b.subscriptions {
		cancel()
		if reader, ok := b.readers[subject]; ok {
			if err := reader.Close(); err != nil {
				lastErr = err
			}
		}
		delete(b.subscriptions, subject)
		delete(b.readers, subject)
	}
	b.mu.Unlock()

	b.wg.Wait()
	if err := b.writer.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}

// Stats returns producer stats (for monitoring)
func (b *KafkaBus) Stats() kafka.WriterStats {
	return b.writer.Stats()
}
