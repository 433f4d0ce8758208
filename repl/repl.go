package repl

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/funvibe/matchpack/errors"
	"github.com/funvibe/matchpack/logging"
	"github.com/funvibe/matchpack/serialization"
)

// REPL is an interactive workbench over the serializer registry. Values
// are entered as JSON, encoded with the active format and shown as hex
// plus an Erlang-style bitstring; encoded data is entered as hex and
// decoded back into a value tree.
type REPL struct {
	registry    *serialization.SerializerRegistry
	logger      logging.Logger
	prompt      string
	historyFile string
	historySize int
	showWelcome bool
	running     bool
	showBits    bool
}

// Config contains configuration for the REPL.
type Config struct {
	Registry    *serialization.SerializerRegistry
	Logger      logging.Logger
	Prompt      string // Main prompt (default: "> ")
	HistoryFile string // History file path (default: "/tmp/matchpack_history")
	HistorySize int    // Maximum history size (default: 1000)
	ShowWelcome bool
}

// New creates a REPL with default configuration.
func New() (*REPL, error) {
	return NewWithConfig(Config{ShowWelcome: true})
}

// NewWithConfig creates a REPL instance with configuration.
func NewWithConfig(config Config) (*REPL, error) {
	registry := config.Registry
	if registry == nil {
		var err error
		registry, err = serialization.NewSerializerFactory("msgpack")
		if err != nil {
			return nil, err
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	prompt := config.Prompt
	if prompt == "" {
		prompt = "> "
	}
	historyFile := config.HistoryFile
	if historyFile == "" {
		historyFile = "/tmp/matchpack_history"
	}
	historySize := config.HistorySize
	if historySize == 0 {
		historySize = 1000
	}

	return &REPL{
		registry:    registry,
		logger:      logger.WithComponent("repl"),
		prompt:      prompt,
		historyFile: historyFile,
		historySize: historySize,
		showWelcome: config.ShowWelcome,
		showBits:    true,
	}, nil
}

// isInteractive checks if the input is interactive (terminal) or piped
func (r *REPL) isInteractive() bool {
	fileInfo, _ := os.Stdin.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.running = true

	if r.showWelcome {
		r.printWelcome()
	}

	if r.isInteractive() {
		return r.runInteractive()
	}
	return r.runPiped()
}

// runInteractive runs the REPL with readline for history and line editing.
func (r *REPL) runInteractive() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt,
		HistoryFile:     r.historyFile,
		HistoryLimit:    r.historySize,
		InterruptPrompt: "^C",
		EOFPrompt:       ":exit",
		AutoComplete:    newCommandCompleter(r.registry),
	})
	if err != nil {
		return errors.Newf(errors.CategorySystem, 1, "READLINE_INIT_FAILED", "failed to initialize readline: %v", err)
	}
	defer func() {
		if err := rl.Close(); err != nil {
			fmt.Printf("Warning: failed to close readline: %v\n", err)
		}
	}()

	for r.running {
		input, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(input) == 0 {
					fmt.Println("\nGoodbye!")
					break
				}
				continue
			}
			if err == io.EOF {
				fmt.Println("\nGoodbye!")
				break
			}
			return errors.Newf(errors.CategorySystem, 2, "READ_ERROR", "read error: %v", err)
		}

		line := strings.TrimSpace(input)
		if line == "" {
			continue
		}
		r.processLine(line)
	}

	return nil
}

// runPiped reads commands from stdin until EOF.
func (r *REPL) runPiped() error {
	scanner := bufio.NewScanner(os.Stdin)

	for r.running && scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		r.processLine(line)
	}

	if err := scanner.Err(); err != nil {
		return errors.Newf(errors.CategorySystem, 2, "READ_ERROR", "error reading from stdin: %v", err)
	}

	return nil
}

// printWelcome displays the welcome message
func (r *REPL) printWelcome() {
	fmt.Println("Welcome to matchpack - pattern matching and binary serialization workbench")
	fmt.Println("Type ':help' for available commands or ':exit' to quit")
	fmt.Printf("Active format: %s\n", r.activeFormat())
	fmt.Println()
}

func (r *REPL) activeFormat() string {
	serializer, err := r.registry.GetDefaultSerializer()
	if err != nil {
		return "(none)"
	}
	return serializer.GetName()
}

// processLine dispatches one line of input. Lines starting with ':' are
// commands; anything else is treated as a value to pack.
func (r *REPL) processLine(line string) {
	if strings.HasPrefix(line, ":") {
		r.handleCommand(line)
		return
	}
	r.cmdPack(line)
}

func (r *REPL) handleCommand(line string) {
	parts := strings.SplitN(line, " ", 2)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch cmd {
	case ":exit", ":quit", ":q":
		fmt.Println("Goodbye!")
		r.running = false
	case ":help", ":h":
		r.printHelp()
	case ":pack", ":p":
		r.cmdPack(arg)
	case ":unpack", ":u":
		r.cmdUnpack(arg)
	case ":format", ":f":
		r.cmdFormat(arg)
	case ":convert", ":c":
		r.cmdConvert(arg)
	case ":bits":
		r.showBits = !r.showBits
		fmt.Printf("Bitstring display: %v\n", r.showBits)
	default:
		fmt.Printf("Unknown command: %s (try :help)\n", cmd)
	}
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  :pack <json>      Encode a JSON value with the active format (default for bare input)")
	fmt.Println("  :unpack <hex>     Decode hex-encoded data back into a value")
	fmt.Println("  :format [name]    Show or switch the active serialization format")
	fmt.Println("  :convert <from> <to> <hex>")
	fmt.Println("                    Re-encode data from one format to another")
	fmt.Println("  :bits             Toggle bitstring display for encoded output")
	fmt.Println("  :help             Show this help")
	fmt.Println("  :exit             Quit")
}

// cmdPack parses the argument as JSON and encodes it with the active format.
func (r *REPL) cmdPack(arg string) {
	if arg == "" {
		fmt.Println("Usage: :pack <json>")
		return
	}

	jsonSerializer, err := r.registry.GetSerializer("json")
	if err != nil {
		r.reportError(err)
		return
	}
	value, err := jsonSerializer.Deserialize([]byte(arg))
	if err != nil {
		fmt.Printf("Invalid input: %v\n", err)
		return
	}

	serializer, err := r.registry.GetDefaultSerializer()
	if err != nil {
		r.reportError(err)
		return
	}
	data, err := serializer.Serialize(value)
	if err != nil {
		r.reportError(err)
		return
	}

	r.logger.Debug("packed value",
		logging.StringField("format", serializer.GetName()),
		logging.IntField("bytes", len(data)))

	fmt.Printf("=> %s\n", FormatBytes(data))
	if r.showBits {
		fmt.Printf("   %s\n", FormatBitstring(data))
	}
}

// cmdUnpack decodes hex input with the active format and prints the value.
func (r *REPL) cmdUnpack(arg string) {
	if arg == "" {
		fmt.Println("Usage: :unpack <hex>")
		return
	}

	data, err := parseHex(arg)
	if err != nil {
		fmt.Printf("Invalid hex input: %v\n", err)
		return
	}

	serializer, err := r.registry.GetDefaultSerializer()
	if err != nil {
		r.reportError(err)
		return
	}
	value, err := serializer.Deserialize(data)
	if err != nil {
		r.reportError(err)
		return
	}

	fmt.Printf("=> %s\n", FormatValue(value))
}

// cmdFormat shows or switches the active serialization format.
func (r *REPL) cmdFormat(arg string) {
	if arg == "" {
		fmt.Printf("Active format: %s\n", r.activeFormat())
		fmt.Printf("Available: %s\n", strings.Join(r.registry.ListSerializers(), ", "))
		return
	}
	if err := r.registry.SetDefaultSerializer(arg); err != nil {
		r.reportError(err)
		return
	}
	fmt.Printf("Active format: %s\n", arg)
}

// cmdConvert re-encodes hex data from one registered format to another.
func (r *REPL) cmdConvert(arg string) {
	fields := strings.Fields(arg)
	if len(fields) < 3 {
		fmt.Println("Usage: :convert <from> <to> <hex>")
		return
	}
	from, to := fields[0], fields[1]

	data, err := parseHex(strings.Join(fields[2:], " "))
	if err != nil {
		fmt.Printf("Invalid hex input: %v\n", err)
		return
	}

	converted, err := r.registry.ConvertFormat(data, from, to)
	if err != nil {
		r.reportError(err)
		return
	}

	if to == "json" {
		fmt.Printf("=> %s\n", string(converted))
		return
	}
	fmt.Printf("=> %s\n", FormatBytes(converted))
	if r.showBits {
		fmt.Printf("   %s\n", FormatBitstring(converted))
	}
}

// reportError prints a structured error and logs its taxonomy fields.
func (r *REPL) reportError(err error) {
	if codeErr, ok := errors.AsCodeError(err); ok {
		fmt.Printf("Error [%s:%s]: %s\n", codeErr.Category, codeErr.Name, codeErr.Message)
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	r.logger.ErrorCode(err)
}

// parseHex decodes hex input, tolerating spaces, commas and a 0x prefix.
func parseHex(s string) ([]byte, error) {
	cleaned := strings.NewReplacer(" ", "", ",", "", "\t", "").Replace(s)
	cleaned = strings.TrimPrefix(cleaned, "0x")
	return hex.DecodeString(cleaned)
}

// newCommandCompleter builds readline autocompletion for REPL commands.
func newCommandCompleter(registry *serialization.SerializerRegistry) readline.AutoCompleter {
	formats := registry.ListSerializers()
	formatItems := make([]readline.PrefixCompleterInterface, len(formats))
	for i, f := range formats {
		formatItems[i] = readline.PcItem(f)
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(":pack"),
		readline.PcItem(":unpack"),
		readline.PcItem(":format", formatItems...),
		readline.PcItem(":convert", formatItems...),
		readline.PcItem(":bits"),
		readline.PcItem(":help"),
		readline.PcItem(":exit"),
	)
}
