package serialization

import (
	"bytes"
	"encoding/json"
)

// JSONSerializer is the human-readable interchange format.
type JSONSerializer struct {
	version string
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{version: "1.0.0"}
}

// Serialize converts a value tree to JSON bytes.
func (js *JSONSerializer) Serialize(data interface{}) ([]byte, error) {
	if data == nil {
		return nil, NewSerializationError("json", "serialize", "data is nil")
	}
	out, err := json.Marshal(data)
	if err != nil {
		return nil, NewSerializationError("json", "serialize", err.Error()).Wrap(err)
	}
	return out, nil
}

// Deserialize converts JSON bytes back to a value tree. Numbers without a
// fractional part come back as int64 so a JSON round-trip preserves the
// integer encodings of the binary formats.
func (js *JSONSerializer) Deserialize(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, NewSerializationError("json", "deserialize", "data is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, NewSerializationError("json", "deserialize", err.Error()).Wrap(err)
	}
	return normalizeNumbers(value), nil
}

func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []interface{}:
		for i, el := range t {
			t[i] = normalizeNumbers(el)
		}
		return t
	case map[string]interface{}:
		for k, el := range t {
			t[k] = normalizeNumbers(el)
		}
		return t
	}
	return v
}

// GetName returns the format name.
func (js *JSONSerializer) GetName() string {
	return "json"
}

// GetVersion returns the format version.
func (js *JSONSerializer) GetVersion() string {
	return js.version
}

// SupportsVersion accepts all 1.x.x versions.
func (js *JSONSerializer) SupportsVersion(version string) bool {
	return version == "1.0.0" || (len(version) > 2 && version[:2] == "1.")
}
