// Package codec defines the serialization capability consumed by the
// request engine and provides the default JSON implementation.
// AWS JSON-protocol services exchange JSON bodies; a caller talking to a
// different wire format can inject its own Codec.
package codec

import (
	"encoding/json"
	"fmt"
)

// Codec encodes request payloads and decodes response bodies.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// JSON is the default Codec backed by encoding/json.
type JSON struct{}

// Ensure JSON implements the interface
var _ Codec = JSON{}

// Encode serializes v to JSON bytes.
func (JSON) Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode failed: %w", err)
	}
	return data, nil
}

// Decode parses JSON bytes into v.
func (JSON) Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("codec: decode failed: %w", err)
	}
	return nil
}
