package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/snappy"
)

// Payload markers: the first byte says how the rest is encoded
const (
	markerJSON   byte = 'j'
	markerSnappy byte = 's'
)

// Codec serializes values as JSON, optionally snappy-compressed
type Codec struct {
	Compress bool
}

// Encode marshals v
func (c Codec) Encode(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cache encode failed: %w", err)
	}

	if !c.Compress {
		return append([]byte{markerJSON}, raw...), nil
	}

	compressed := snappy.Encode(nil, raw)
	return append([]byte{markerSnappy}, compressed...), nil
}

// Decode unmarshals data produced by Encode regardless of the
// compression setting it was written with
func (c Codec) Decode(data []byte, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("cache decode failed: empty payload")
	}

	raw := data[1:]
	switch data[0] {
	case markerJSON:
	case markerSnappy:
		decompressed, err := snappy.Decode(nil, raw)
		if err != nil {
			return fmt.Errorf("snappy decompress failed: %w", err)
		}
		raw = decompressed
	default:
		return fmt.Errorf("cache decode failed: unknown payload marker %q", data[0])
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("cache decode failed: %w", err)
	}
	return nil
}

// Typed wraps a Cache with a Codec
type Typed struct {
	Cache Cache
	Codec Codec
	TTL   time.Duration
}

// Get decodes the cached value into v. A corrupt entry counts as a miss
// and is reported through the error.
func (t Typed) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	data, ok, err := t.Cache.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := t.Codec.Decode(data, v); err != nil {
		return false, err
	}
	return true, nil
}

// Set encodes v and stores it with the configured TTL
func (t Typed) Set(ctx context.Context, key string, v interface{}) error {
	data, err := t.Codec.Encode(v)
	if err != nil {
		return err
	}
	return t.Cache.Set(ctx, key, data, t.TTL)
}
