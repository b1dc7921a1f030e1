package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// DefaultRequestTimeout is the default timeout for HTTP requests
	DefaultRequestTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 30 * time.Second

	// EventPublishTimeout bounds publishing a single event
	EventPublishTimeout = 5 * time.Second

	// DatasetLoadTimeout bounds a dataset (re)load
	DatasetLoadTimeout = 2 * time.Minute
)

// =============================================================================
// Query Limits
// =============================================================================

const (
	// DefaultListLimit is the default number of rows for ranked lists
	DefaultListLimit = 10

	// MaxListLimit is the maximum number of rows for ranked lists
	MaxListLimit = 50
)

// =============================================================================
// Backend Type Constants
// =============================================================================

// BackendType names a pluggable backend for the cache and the event bus
type BackendType string

const (
	// BackendNone disables the component
	BackendNone BackendType = "none"

	// BackendMemory is an in-process backend (single instance, tests)
	BackendMemory BackendType = "memory"

	// BackendNATS represents NATS JetStream
	BackendNATS BackendType = "nats"

	// BackendRedis represents Redis (strings for the cache, streams for events)
	BackendRedis BackendType = "redis"

	// BackendKafka represents Apache Kafka
	BackendKafka BackendType = "kafka"
)
