package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/matchpack/logging"
	"github.com/funvibe/matchpack/repl"
	"github.com/funvibe/matchpack/serialization"
)

const version = "matchpack v0.1.0 - pattern matching and binary serialization workbench"

func main() {

	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")

		// One-shot codec flags
		packInput   = flag.String("pack", "", "Encode a JSON value and print the result as hex")
		unpackInput = flag.String("unpack", "", "Decode hex-encoded data and print the value")
		format      = flag.String("format", "", "Serialization format (msgpack, json)")

		verbose = flag.Bool("verbose", false, "Enable verbose output")
	)
	flag.Parse()

	// Handle version flag with verbose support
	if *showVersion {
		if *verbose {
			fmt.Println(version)
			fmt.Println("Build: development")
			fmt.Println("Formats: msgpack, json")
		} else {
			fmt.Println(version)
		}
		os.Exit(0)
	}

	// Handle help flag
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// Load configuration
	configFilePath := *configPath
	if configFilePath == "" {
		// Try default locations
		home, _ := os.UserHomeDir()
		defaultPaths := []string{
			filepath.Join(home, ".matchpack", "config.yaml"),
			"./config.yaml",
		}
		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				configFilePath = path
				break
			}
		}
	}

	cfg, err := LoadConfig(configFilePath)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Override config with command line flags
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	if *format != "" {
		cfg.Serialization.DefaultFormat = *format
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Error configuring logging: %v\n", err)
		os.Exit(1)
	}

	registry, err := serialization.NewSerializerFactory(cfg.Serialization.DefaultFormat)
	if err != nil {
		fmt.Printf("Error: unsupported serialization format %q\n", cfg.Serialization.DefaultFormat)
		os.Exit(1)
	}

	// One-shot modes bypass the interactive loop
	if *packInput != "" || *unpackInput != "" {
		if err := runOneShot(registry, *packInput, *unpackInput); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Start the interactive workbench
	r, err := repl.NewWithConfig(repl.Config{
		Registry:    registry,
		Logger:      logger,
		Prompt:      cfg.REPL.Prompt,
		HistoryFile: cfg.REPL.HistoryFile,
		HistorySize: cfg.REPL.HistorySize,
		ShowWelcome: cfg.REPL.ShowWelcome,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := r.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger constructs the application logger from config.
func buildLogger(cfg LoggingConfig) (logging.Logger, error) {
	loggerConfig := logging.LoggerConfig{}
	loggerConfig.ApplyLogLevel(cfg.Level)

	if cfg.Format == "json" {
		loggerConfig.Formatters = []logging.Formatter{logging.NewJSONFormatter()}
	}

	if cfg.File != "" {
		fileWriter, err := logging.NewFileWriter(expandHome(cfg.File))
		if err != nil {
			return nil, err
		}
		loggerConfig.Writers = []logging.Writer{
			logging.NewMultiWriter(logging.NewConsoleWriter(), fileWriter),
		}
	}

	return logging.NewDefaultLoggerWithConfig(loggerConfig), nil
}

// runOneShot handles the -pack and -unpack flags without entering the REPL.
func runOneShot(registry *serialization.SerializerRegistry, packInput, unpackInput string) error {
	serializer, err := registry.GetDefaultSerializer()
	if err != nil {
		return err
	}

	if packInput != "" {
		jsonSerializer, err := registry.GetSerializer("json")
		if err != nil {
			return err
		}
		value, err := jsonSerializer.Deserialize([]byte(packInput))
		if err != nil {
			return fmt.Errorf("invalid input: %v", err)
		}
		data, err := serializer.Serialize(value)
		if err != nil {
			return err
		}
		fmt.Println(repl.FormatBytes(data))
	}

	if unpackInput != "" {
		data, err := parseHexArg(unpackInput)
		if err != nil {
			return fmt.Errorf("invalid hex input: %v", err)
		}
		value, err := serializer.Deserialize(data)
		if err != nil {
			return err
		}
		fmt.Println(repl.FormatValue(value))
	}

	return nil
}

// parseHexArg decodes a hex argument, tolerating spaces and a 0x prefix.
func parseHexArg(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ",", "").Replace(s)
	cleaned = strings.TrimPrefix(cleaned, "0x")
	return hex.DecodeString(cleaned)
}

func printHelp() {
	fmt.Println(version)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  matchpack [flags]              Start the interactive workbench")
	fmt.Println("  matchpack -pack '<json>'       Encode a JSON value, print hex")
	fmt.Println("  matchpack -unpack '<hex>'      Decode hex data, print the value")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config <path>   Path to configuration file (yaml or json)")
	fmt.Println("  -format <name>   Serialization format: msgpack (default) or json")
	fmt.Println("  -verbose         Enable debug logging")
	fmt.Println("  -version         Show version information")
	fmt.Println("  -help            Show this help")
	fmt.Println()
	fmt.Println("Interactive commands: :pack, :unpack, :format, :convert, :bits, :help, :exit")
}
