package serialization

import (
	"fmt"
)

// NewSerializerFactory builds a registry with every built-in format
// registered and the requested one selected as default.
func NewSerializerFactory(defaultFormat string) (*SerializerRegistry, error) {
	registry := NewSerializerRegistry()

	if err := registry.RegisterSerializer(NewMessagePackSerializer()); err != nil {
		return nil, fmt.Errorf("failed to register msgpack serializer: %w", err)
	}
	if err := registry.RegisterSerializer(NewJSONSerializer()); err != nil {
		return nil, fmt.Errorf("failed to register json serializer: %w", err)
	}

	if defaultFormat != "" {
		if err := registry.SetDefaultSerializer(defaultFormat); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
