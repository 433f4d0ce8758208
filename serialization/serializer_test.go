package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() map[string]interface{} {
	return map[string]interface{}{
		"name":    "demo",
		"count":   int64(7),
		"ratio":   0.5,
		"enabled": true,
		"items":   []interface{}{int64(1), "two", nil},
	}
}

func TestMessagePackRoundTrip(t *testing.T) {
	s := NewMessagePackSerializer()
	data, err := s.Serialize(sampleTree())
	require.NoError(t, err)

	got, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), got)
}

func TestJSONRoundTrip(t *testing.T) {
	s := NewJSONSerializer()
	data, err := s.Serialize(sampleTree())
	require.NoError(t, err)

	got, err := s.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), got)
}

func TestSerializeNil(t *testing.T) {
	for _, s := range []StateSerializer{NewMessagePackSerializer(), NewJSONSerializer()} {
		_, err := s.Serialize(nil)
		assert.Error(t, err, s.GetName())
		_, err = s.Deserialize(nil)
		assert.Error(t, err, s.GetName())
	}
}

func TestRegistry(t *testing.T) {
	registry, err := NewSerializerFactory("msgpack")
	require.NoError(t, err)

	assert.True(t, registry.IsFormatSupported("msgpack"))
	assert.True(t, registry.IsFormatSupported("json"))
	assert.False(t, registry.IsFormatSupported("xml"))
	assert.ElementsMatch(t, []string{"msgpack", "json"}, registry.ListSerializers())

	def, err := registry.GetDefaultSerializer()
	require.NoError(t, err)
	assert.Equal(t, "msgpack", def.GetName())

	require.NoError(t, registry.SetDefaultSerializer("json"))
	assert.Error(t, registry.SetDefaultSerializer("xml"))

	_, err = NewSerializerFactory("xml")
	assert.Error(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	registry := NewSerializerRegistry()
	require.NoError(t, registry.RegisterSerializer(NewJSONSerializer()))
	assert.Error(t, registry.RegisterSerializer(NewJSONSerializer()))
}

func TestVersionedState(t *testing.T) {
	registry, err := NewSerializerFactory("")
	require.NoError(t, err)

	state, err := registry.SerializeWithVersion(sampleTree(), "msgpack")
	require.NoError(t, err)
	assert.Equal(t, "msgpack", state.Format)
	assert.Equal(t, "1.0.0", state.Version)

	got, err := registry.DeserializeWithVersion(state)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), got)

	state.Version = "2.0.0"
	_, err = registry.DeserializeWithVersion(state)
	assert.Error(t, err)
}

func TestConvertFormat(t *testing.T) {
	registry, err := NewSerializerFactory("")
	require.NoError(t, err)

	jsonData, err := registry.GetSerializer("json")
	require.NoError(t, err)
	encoded, err := jsonData.Serialize(sampleTree())
	require.NoError(t, err)

	packed, err := registry.ConvertFormat(encoded, "json", "msgpack")
	require.NoError(t, err)

	back, err := registry.ConvertFormat(packed, "msgpack", "json")
	require.NoError(t, err)

	decoded, err := jsonData.Deserialize(back)
	require.NoError(t, err)
	assert.Equal(t, sampleTree(), decoded)
}
