package logging

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/matchpack/errors"
)

type captureWriter struct {
	lines []string
}

func (w *captureWriter) Write(data []byte) error {
	w.lines = append(w.lines, string(data))
	return nil
}

func (w *captureWriter) Flush() error    { return nil }
func (w *captureWriter) Close() error    { return nil }
func (w *captureWriter) GetName() string { return "capture" }

func newCapturedLogger(level LogLevel, formatter Formatter) (*DefaultLogger, *captureWriter) {
	sink := &captureWriter{}
	logger := NewDefaultLoggerWithConfig(LoggerConfig{
		Level:      level,
		Formatters: []Formatter{formatter},
		Writers:    []Writer{sink},
		CallerSkip: 2,
	})
	return logger, sink
}

func TestLevelFiltering(t *testing.T) {
	logger, sink := newCapturedLogger(LevelWarning, NewTextFormatter())

	logger.Debug("too quiet")
	logger.Info("still too quiet")
	logger.Warn("heard")
	logger.Error("also heard")

	require.Len(t, sink.lines, 2)
	assert.Contains(t, sink.lines[0], "heard")
	assert.Contains(t, sink.lines[1], "also heard")
}

func TestTextFormatterTags(t *testing.T) {
	logger, sink := newCapturedLogger(LevelInfo, NewTextFormatter())

	logger.WithComponent("codec").WithFormat("msgpack").Info("encoded",
		IntField("bytes", 18))

	require.Len(t, sink.lines, 1)
	line := sink.lines[0]
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "[codec]")
	assert.Contains(t, line, "[msgpack]")
	assert.Contains(t, line, "bytes=18")
}

func TestJSONFormatter(t *testing.T) {
	logger, sink := newCapturedLogger(LevelInfo, NewJSONFormatter())

	logger.WithComponent("registry").Info("format registered", StringField("name", "json"))

	require.Len(t, sink.lines, 1)
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(sink.lines[0])), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "format registered", entry["message"])
	assert.Equal(t, "registry", entry["component"])
}

func TestErrorCodeUnpacksTaxonomy(t *testing.T) {
	logger, sink := newCapturedLogger(LevelInfo, NewTextFormatter())

	err := errors.New(errors.CategoryUnpacker, 1, "OUT_OF_RANGE",
		"out of range data-access during deserialization").
		WithContext("offset", 13)
	logger.ErrorCode(err)

	require.Len(t, sink.lines, 1)
	line := sink.lines[0]
	assert.Contains(t, line, "out of range data-access")
	assert.Contains(t, line, "category=UNPACKER")
	assert.Contains(t, line, "offset=13")
}

func TestApplyLogLevel(t *testing.T) {
	var cfg LoggerConfig
	cfg.ApplyLogLevel("debug")
	assert.Equal(t, LevelDebug, cfg.Level)
	cfg.ApplyLogLevel("warn")
	assert.Equal(t, LevelWarning, cfg.Level)
	cfg.ApplyLogLevel("nonsense")
	assert.Equal(t, LevelInfo, cfg.Level)
}
