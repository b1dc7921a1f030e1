package events

import (
	"fmt"
	"strings"

	"github.com/soltixdb/txcast/internal/config"
	"github.com/soltixdb/txcast/internal/utils"
)

// New creates the bus backend selected by configuration. An empty type
// disables events.
func New(cfg config.EventsConfig) (Bus, error) {
	switch utils.BackendType(strings.ToLower(cfg.Type)) {
	case "", utils.BackendNone:
		return NewNop(), nil

	case utils.BackendNATS:
		b, err := newNATSBus(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Prefix:   prefixOrDefault(cfg.Prefix),
		})
		if err != nil {
			return nil, err
		}
		return b, nil

	case utils.BackendRedis:
		b, err := newRedisBus(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Group:    cfg.RedisGroup,
			Consumer: cfg.RedisConsumer,
		})
		if err != nil {
			return nil, err
		}
		return b, nil

	case utils.BackendKafka:
		b, err := newKafkaBus(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaGroupID,
		})
		if err != nil {
			return nil, err
		}
		return b, nil

	case utils.BackendMemory:
		return newMemoryBus(), nil

	default:
		return nil, fmt.Errorf("unsupported events type: %s (supported: none, nats, redis, kafka, memory)", cfg.Type)
	}
}

func prefixOrDefault(prefix string) string {
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}
