package serialization

import (
	"github.com/funvibe/matchpack/msgpack"
)

// MessagePackSerializer encodes value trees with the msgpack codec.
type MessagePackSerializer struct {
	version string
}

// NewMessagePackSerializer creates a new MessagePack serializer.
func NewMessagePackSerializer() *MessagePackSerializer {
	return &MessagePackSerializer{version: "1.0.0"}
}

// Serialize converts a value tree to MessagePack bytes. A nil root is
// rejected; nil leaves inside the tree are fine.
func (mps *MessagePackSerializer) Serialize(data interface{}) ([]byte, error) {
	if data == nil {
		return nil, NewSerializationError("msgpack", "serialize", "data is nil")
	}
	out, err := msgpack.PackValue(data)
	if err != nil {
		return nil, NewSerializationError("msgpack", "serialize", err.Error()).Wrap(err)
	}
	return out, nil
}

// Deserialize converts MessagePack bytes back to a value tree.
func (mps *MessagePackSerializer) Deserialize(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, NewSerializationError("msgpack", "deserialize", "data is empty")
	}
	value, err := msgpack.UnpackValue(data)
	if err != nil {
		return nil, NewSerializationError("msgpack", "deserialize", err.Error()).Wrap(err)
	}
	return value, nil
}

// GetName returns the format name.
func (mps *MessagePackSerializer) GetName() string {
	return "msgpack"
}

// GetVersion returns the format version.
func (mps *MessagePackSerializer) GetVersion() string {
	return mps.version
}

// SupportsVersion accepts all 1.x.x versions.
func (mps *MessagePackSerializer) SupportsVersion(version string) bool {
	return version == "1.0.0" || (len(version) > 2 && version[:2] == "1.")
}
