package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the simple application configuration
type Config struct {
	REPL          REPLConfig          `json:"repl" yaml:"repl"`
	Logging       LoggingConfig       `json:"logging" yaml:"logging"`
	Serialization SerializationConfig `json:"serialization" yaml:"serialization"`
}

// REPLConfig contains REPL configuration
type REPLConfig struct {
	Prompt      string `json:"prompt" yaml:"prompt"`
	HistorySize int    `json:"history_size" yaml:"history_size"`
	HistoryFile string `json:"history_file" yaml:"history_file"`
	ShowWelcome bool   `json:"show_welcome" yaml:"show_welcome"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
}

// SerializationConfig contains serialization configuration
type SerializationConfig struct {
	DefaultFormat string `json:"default_format" yaml:"default_format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		REPL: REPLConfig{
			Prompt:      "> ",
			HistorySize: 1000,
			HistoryFile: "/tmp/matchpack_history",
			ShowWelcome: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Serialization: SerializationConfig{
			DefaultFormat: "msgpack",
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If no path provided, return default config
	if path == "" {
		return config, nil
	}

	// Expand ~ in path
	path = expandHome(path)

	// Read the config file
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return default config
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	// Determine file format by extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %v", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %v", err)
		}
	default:
		// Try YAML as default
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config *Config, path string) error {
	// Expand ~ in path
	path = expandHome(path)

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %v", err)
	}

	// Determine file format by extension
	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	switch ext {
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON config: %v", err)
		}
	default:
		// Default to YAML
		data, err = yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML config: %v", err)
		}
	}

	// Write the config file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}

	return nil
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
