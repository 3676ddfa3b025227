package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // trace, debug, info, warn, error, fatal, panic
	Format     string // json, console
	TimeFormat string // RFC3339, Unix, or custom format
	Output     string // stderr, stdout, or file path
}

// DefaultConfig returns a sensible default logging configuration.
// Logs go to stderr so command output on stdout stays machine readable.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     "stderr",
	}
}

// Setup initializes the global logger with the provided configuration
func Setup(config LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer
	toFile := false
	switch config.Output {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return err
		}
		output = file
		toFile = true
	}

	log.Logger = New(output, config.Format, config.TimeFormat, toFile)

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	return nil
}

// New builds a logger writing to w in the given format. Unknown formats
// fall back to console output.
func New(w io.Writer, format, timeFormat string, noColor bool) zerolog.Logger {
	if strings.ToLower(format) != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: timeFormat,
			NoColor:    noColor,
		}
	}
	return zerolog.New(w).With().
		Timestamp().
		Caller().
		Logger()
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

// WithReceipt returns a component logger bound to one receipt
func WithReceipt(component, receiptID string) zerolog.Logger {
	return log.Logger.With().
		Str("component", component).
		Str("receipt_id", receiptID).
		Logger()
}
