// Package events publishes service events (forecast runs, dataset reloads)
// and listens for operational commands over a pluggable message bus.
package events

import "context"

// Publisher publishes messages to a subject/topic
type Publisher interface {
	// Publish publishes a message to a subject/topic
	Publish(ctx context.Context, subject string, data []byte) error

	// Close closes the connection
	Close() error
}

// Subscriber subscribes to messages from a subject/topic
type Subscriber interface {
	// Subscribe subscribes to a subject/topic with a handler
	Subscribe(subject string, handler MessageHandler) error

	// Unsubscribe unsubscribes from a subject/topic
	Unsubscribe(subject string) error

	// Close closes the connection
	Close() error
}

// MessageHandler handles incoming messages. A non-nil error asks the
// backend to redeliver where it supports that.
type MessageHandler func(data []byte) error

// Bus combines Publisher and Subscriber interfaces
type Bus interface {
	Publisher
	Subscriber
}

// nopBus drops everything
type nopBus struct{}

// NewNop returns a bus that accepts and discards all messages
func NewNop() Bus {
	return nopBus{}
}

func (nopBus) Publish(context.Context, string, []byte) error { return nil }
func (nopBus) Subscribe(string, MessageHandler) error        { return nil }
func (nopBus) Unsubscribe(string) error                      { return nil }
func (nopBus) Close() error                                  { return nil }
