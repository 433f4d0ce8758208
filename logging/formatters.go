package logging

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONFormatter formats log entries as JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})

	output["timestamp"] = entry.Timestamp.Format(time.RFC3339)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Caller != "" {
		output["caller"] = entry.Caller
	}
	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if entry.Format != "" {
		output["format"] = entry.Format
	}
	if entry.Error != nil {
		output["error"] = entry.Error.Error()
	}
	if entry.Stack != "" {
		output["stack"] = entry.Stack
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	// IncludeTimestamp controls whether to include the timestamp
	IncludeTimestamp bool
	// IncludeCaller controls whether to include the caller information
	IncludeCaller bool
	// IncludeLevel controls whether to include the log level
	IncludeLevel bool
	// ColorOutput controls whether to use ANSI color codes
	ColorOutput bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeCaller:    false,
		IncludeLevel:     true,
		ColorOutput:      false,
	}
}

// NewTextFormatterWithOptions creates a new text formatter with custom options
func NewTextFormatterWithOptions(includeTimestamp, includeCaller, includeLevel, colorOutput bool) *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: includeTimestamp,
		IncludeCaller:    includeCaller,
		IncludeLevel:     includeLevel,
		ColorOutput:      colorOutput,
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var output string

	if f.IncludeTimestamp {
		output += fmt.Sprintf("[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	if f.IncludeLevel {
		levelStr := entry.Level.String()
		if f.ColorOutput {
			levelStr = f.colorizeLevel(levelStr, entry.Level)
		}
		output += fmt.Sprintf("[%s] ", levelStr)
	}

	if entry.Component != "" {
		output += fmt.Sprintf("[%s] ", entry.Component)
	}
	if entry.Format != "" {
		output += fmt.Sprintf("[%s] ", entry.Format)
	}

	output += entry.Message

	if f.IncludeCaller && entry.Caller != "" {
		output += fmt.Sprintf(" (caller: %s)", entry.Caller)
	}
	if entry.Error != nil {
		output += fmt.Sprintf(" (error: %s)", entry.Error.Error())
	}
	if len(entry.Fields) > 0 {
		output += " " + f.formatFields(entry.Fields)
	}

	output += "\n"
	return []byte(output), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

// formatFields formats the fields map as a string
func (f *TextFormatter) formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}

	output := "["
	first := true
	for key, value := range fields {
		if !first {
			output += ", "
		}
		output += fmt.Sprintf("%s=%v", key, value)
		first = false
	}
	output += "]"
	return output
}

// colorizeLevel adds ANSI color codes to the level string
func (f *TextFormatter) colorizeLevel(level string, logLevel LogLevel) string {
	switch logLevel {
	case LevelDebug:
		return fmt.Sprintf("\x1b[36m%s\x1b[0m", level) // Cyan
	case LevelInfo:
		return fmt.Sprintf("\x1b[32m%s\x1b[0m", level) // Green
	case LevelWarning:
		return fmt.Sprintf("\x1b[33m%s\x1b[0m", level) // Yellow
	case LevelError:
		return fmt.Sprintf("\x1b[31m%s\x1b[0m", level) // Red
	case LevelFatal:
		return fmt.Sprintf("\x1b[35m%s\x1b[0m", level) // Magenta
	default:
		return level
	}
}

// ConsoleFormatter formats log entries for interactive console output
type ConsoleFormatter struct {
	*TextFormatter
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{
		TextFormatter: NewTextFormatterWithOptions(true, false, true, true),
	}
}

// GetName returns the name of the formatter
func (f *ConsoleFormatter) GetName() string {
	return "console"
}
