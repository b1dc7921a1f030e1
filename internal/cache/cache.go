// Package cache stores computed forecast responses keyed by dataset
// version and request parameters.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL
type Cache interface {
	// Get returns the value and true when the key is present and fresh
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value; ttl <= 0 means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the backend
	Close() error
}

// Key joins key parts with ':' after trimming and lower-casing them
func Key(parts ...string) string {
	cleaned := make([]string, len(parts))
	for i, p := range parts {
		cleaned[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(cleaned, ":")
}

// nopCache never stores anything
type nopCache struct{}

// NewNop returns a cache that always misses
func NewNop() Cache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (nopCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (nopCache) Close() error {
	return nil
}
