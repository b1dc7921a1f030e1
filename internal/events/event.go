package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/txcast/internal/logging"
	"github.com/soltixdb/txcast/internal/utils"
)

// Event types
const (
	TypeForecastCompleted = "forecast.completed"
	TypeDatasetReloaded   = "dataset.reloaded"
	TypeDatasetReload     = "dataset.reload"
)

// DefaultPrefix is prepended to every subject
const DefaultPrefix = "txcast"

// Event is the envelope written to the bus
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the event payload into v
func (e Event) Decode(v interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// ForecastCompleted is published after every computed (non-cached) forecast
type ForecastCompleted struct {
	RequestID       string  `json:"request_id,omitempty"`
	Model           string  `json:"model"`
	Requested       string  `json:"requested"`
	Granularity     string  `json:"granularity"`
	Horizon         int     `json:"horizon"`
	State           string  `json:"state,omitempty"`
	TransactionType string  `json:"transaction_type,omitempty"`
	DataPoints      int     `json:"data_points"`
	MAE             float64 `json:"mae"`
	RMSE            float64 `json:"rmse"`
	MAPE            float64 `json:"mape"`
	Fallback        bool    `json:"fallback"`
	DatasetVersion  string  `json:"dataset_version"`
	LatencyMs       int64   `json:"latency_ms"`
}

// DatasetReloaded is published when a reload produced new data
type DatasetReloaded struct {
	Version string `json:"version"`
	Source  string `json:"source"`
	Records int    `json:"records"`
	Users   int    `json:"users"`
}

// DatasetReload asks running instances to re-read the dataset
type DatasetReload struct {
	Reason string `json:"reason,omitempty"`
}

// Emitter publishes typed events on a Bus under a subject prefix
type Emitter struct {
	bus    Bus
	prefix string
	logger *logging.Logger
	now    func() time.Time
}

// NewEmitter wraps bus. An empty prefix falls back to DefaultPrefix.
func NewEmitter(bus Bus, prefix string, logger *logging.Logger) *Emitter {
	if bus == nil {
		bus = NewNop()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Emitter{bus: bus, prefix: prefix, logger: logger.WithComponent("events"), now: time.Now}
}

// Subject returns the full subject for an event type
func (e *Emitter) Subject(eventType string) string {
	return e.prefix + "." + eventType
}

// Emit publishes data as an event of the given type
func (e *Emitter) Emit(ctx context.Context, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	body, err := json.Marshal(Event{
		ID:   uuid.New().String(),
		Type: eventType,
		Time: e.now().UTC(),
		Data: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, utils.EventPublishTimeout)
	defer cancel()

	if err := e.bus.Publish(ctx, e.Subject(eventType), body); err != nil {
		return err
	}
	e.logger.Debug("Event published", "type", eventType, "bytes", len(body))
	return nil
}

// EmitAsync publishes in the background and only logs failures
func (e *Emitter) EmitAsync(eventType string, data interface{}) {
	go func() {
		if err := e.Emit(context.Background(), eventType, data); err != nil {
			e.logger.Warn("Failed to publish event", "type", eventType, "error", err)
		}
	}()
}

// On registers fn for events of the given type. Malformed envelopes are
// logged and acknowledged.
func (e *Emitter) On(eventType string, fn func(ctx context.Context, ev Event) error) error {
	return e.bus.Subscribe(e.Subject(eventType), func(data []byte) error {
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			e.logger.Warn("Dropping malformed event", "subject", e.Subject(eventType), "error", err)
			return nil
		}
		return fn(context.Background(), ev)
	})
}

// Close closes the underlying bus
func (e *Emitter) Close() error {
	return e.bus.Close()
}
