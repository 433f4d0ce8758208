// Package serialization provides named, versioned encoders over dynamic
// value trees, with a registry for format lookup and conversion. The
// MessagePack serializer is backed by the msgpack codec; JSON is the
// interchange fallback.
package serialization

import (
	"fmt"

	"github.com/funvibe/matchpack/errors"
)

// StateSerializer is a named codec over dynamic value trees.
type StateSerializer interface {
	// Serialize converts a value tree to bytes.
	Serialize(data interface{}) ([]byte, error)

	// Deserialize converts bytes back to a value tree.
	Deserialize(data []byte) (interface{}, error)

	// GetName returns the format name used for registry lookup.
	GetName() string

	// GetVersion returns the serializer's format version.
	GetVersion() string

	// SupportsVersion checks whether data written at the given version can
	// be read.
	SupportsVersion(version string) bool
}

// VersionedState carries serialized data together with its provenance.
type VersionedState struct {
	Data    interface{} `json:"data"`
	Version string      `json:"version"`
	Format  string      `json:"format"`
}

// NewSerializationError builds a CodeError in the serialization category.
func NewSerializationError(format, operation, message string) *errors.CodeError {
	return errors.New(errors.CategorySerialization, 1, "SERIALIZATION_FAILED", message).
		WithContext("format", format).
		WithContext("operation", operation)
}

// SerializerRegistry manages the available formats.
type SerializerRegistry struct {
	serializers       map[string]StateSerializer
	defaultSerializer string
}

// NewSerializerRegistry creates an empty registry defaulting to msgpack.
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{
		serializers:       make(map[string]StateSerializer),
		defaultSerializer: "msgpack",
	}
}

// RegisterSerializer registers a serializer under its own name.
func (sr *SerializerRegistry) RegisterSerializer(serializer StateSerializer) error {
	name := serializer.GetName()
	if _, exists := sr.serializers[name]; exists {
		return fmt.Errorf("serializer '%s' is already registered", name)
	}
	sr.serializers[name] = serializer
	return nil
}

// GetSerializer returns a serializer by name.
func (sr *SerializerRegistry) GetSerializer(name string) (StateSerializer, error) {
	serializer, exists := sr.serializers[name]
	if !exists {
		return nil, fmt.Errorf("serializer '%s' not found", name)
	}
	return serializer, nil
}

// GetDefaultSerializer returns the configured default.
func (sr *SerializerRegistry) GetDefaultSerializer() (StateSerializer, error) {
	return sr.GetSerializer(sr.defaultSerializer)
}

// SetDefaultSerializer switches the default to a registered format.
func (sr *SerializerRegistry) SetDefaultSerializer(name string) error {
	if _, exists := sr.serializers[name]; !exists {
		return fmt.Errorf("serializer '%s' not found", name)
	}
	sr.defaultSerializer = name
	return nil
}

// ListSerializers returns the names of all registered formats.
func (sr *SerializerRegistry) ListSerializers() []string {
	var names []string
	for name := range sr.serializers {
		names = append(names, name)
	}
	return names
}

// IsFormatSupported checks whether a format is registered.
func (sr *SerializerRegistry) IsFormatSupported(format string) bool {
	_, exists := sr.serializers[format]
	return exists
}

// SerializeWithVersion serializes data and records which format and version
// produced it.
func (sr *SerializerRegistry) SerializeWithVersion(data interface{}, format string) (*VersionedState, error) {
	serializer, err := sr.GetSerializer(format)
	if err != nil {
		return nil, err
	}
	serialized, err := serializer.Serialize(data)
	if err != nil {
		return nil, NewSerializationError(format, "serialize", err.Error())
	}
	return &VersionedState{
		Data:    serialized,
		Version: serializer.GetVersion(),
		Format:  format,
	}, nil
}

// DeserializeWithVersion decodes versioned state, refusing versions the
// registered serializer does not support.
func (sr *SerializerRegistry) DeserializeWithVersion(state *VersionedState) (interface{}, error) {
	serializer, err := sr.GetSerializer(state.Format)
	if err != nil {
		return nil, err
	}
	if !serializer.SupportsVersion(state.Version) {
		return nil, NewSerializationError(state.Format, "deserialize",
			fmt.Sprintf("version '%s' not supported", state.Version))
	}
	data, ok := state.Data.([]byte)
	if !ok {
		return nil, NewSerializationError(state.Format, "deserialize",
			"invalid data type, expected []byte")
	}
	return serializer.Deserialize(data)
}

// ConvertFormat re-encodes serialized data from one registered format into
// another.
func (sr *SerializerRegistry) ConvertFormat(data []byte, fromFormat, toFormat string) ([]byte, error) {
	from, err := sr.GetSerializer(fromFormat)
	if err != nil {
		return nil, err
	}
	decoded, err := from.Deserialize(data)
	if err != nil {
		return nil, NewSerializationError(fromFormat, "deserialize", err.Error())
	}
	to, err := sr.GetSerializer(toFormat)
	if err != nil {
		return nil, err
	}
	encoded, err := to.Serialize(decoded)
	if err != nil {
		return nil, NewSerializationError(toFormat, "serialize", err.Error())
	}
	return encoded, nil
}
