// Package serialization defines the serializer and deserializer slots
// used by producer and consumer configurations, plus the shared JSON
// default.
package serialization

import (
	"encoding/json"
	"fmt"
)

// Serializer converts a message key or body into bytes for the wire.
type Serializer interface {
	Serialize(v any) ([]byte, error)
}

// Deserializer fills a message key or body from wire bytes.
type Deserializer interface {
	Deserialize(data []byte, v any) error
}

// SerializerFunc is a function adapter for Serializer.
type SerializerFunc func(v any) ([]byte, error)

// Serialize implements Serializer.
func (f SerializerFunc) Serialize(v any) ([]byte, error) {
	return f(v)
}

// DeserializerFunc is a function adapter for Deserializer.
type DeserializerFunc func(data []byte, v any) error

// Deserialize implements Deserializer.
func (f DeserializerFunc) Deserialize(data []byte, v any) error {
	return f(data, v)
}

// JSONSerializer is the shared default for both serializer slots.
type JSONSerializer struct{}

// NewJSONSerializer creates the default JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Serialize implements Serializer. A nil value serializes to nil bytes,
// which brokers treat as an absent key or tombstone body.
func (s *JSONSerializer) Serialize(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json serialize: %w", err)
	}
	return data, nil
}

// Deserialize implements Deserializer. Nil or empty input leaves the
// target untouched.
func (s *JSONSerializer) Deserialize(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json deserialize: %w", err)
	}
	return nil
}

// RawSerializer passes []byte keys and bodies through unchanged, for
// callers that handle encoding themselves.
type RawSerializer struct{}

// Serialize implements Serializer. The value must be []byte, a string,
// or nil.
func (s *RawSerializer) Serialize(v any) ([]byte, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	default:
		return nil, fmt.Errorf("raw serializer requires []byte or string, got %T", v)
	}
}

// Deserialize implements Deserializer. The target must be *[]byte or
// *string.
func (s *RawSerializer) Deserialize(data []byte, v any) error {
	switch target := v.(type) {
	case *[]byte:
		*target = data
		return nil
	case *string:
		*target = string(data)
		return nil
	default:
		return fmt.Errorf("raw deserializer requires *[]byte or *string, got %T", v)
	}
}
