package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// memoryBufferSize is the per-subject backlog of the in-memory bus
const memoryBufferSize = 1024

// ErrBusClosed is returned when publishing on a closed bus
var ErrBusClosed = errors.New("event bus closed")

// MemoryBus implements Bus with in-process channels. Messages published
// to a subject nobody subscribes to are dropped.
type MemoryBus struct {
	channels map[string]chan []byte
	cancels  map[string]context.CancelFunc
	closed   bool
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// newMemoryBus creates a new in-memory bus
func newMemoryBus() *MemoryBus {
	return &MemoryBus{
		channels: make(map[string]chan []byte),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Publish hands a copy of data to the subject's consumer
func (b *MemoryBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	ch, ok := b.channels[subject]
	if !ok {
		return nil
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	select {
	case ch <- dataCopy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("channel full for subject: %s", subject)
	}
}

// Subscribe starts a consumer goroutine for subject
func (b *MemoryBus) Subscribe(subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, exists := b.channels[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	ch := make(chan []byte, memoryBufferSize)
	ctx, cancel := context.WithCancel(context.Background())
	b.channels[subject] = ch
	b.cancels[subject] = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case data := <-ch:
				// No redelivery in memory
				_ = handler(data)
			}
		}
	}()

	return nil
}

// Unsubscribe stops the subject's consumer
func (b *MemoryBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancel, exists := b.cancels[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(b.cancels, subject)
	delete(b.channels, subject)
	return nil
}

// Close stops all consumers and waits for them to exit
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	for subject, cancel := range b.cancels {
		cancel()
		delete(b.cancels, subject)
		delete(b.channels, subject)
	}
	b.mu.Unlock()

	b.wg.Wait()
	return nil
}
