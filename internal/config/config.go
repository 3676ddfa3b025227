package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"receipts/internal/logger"
)

// ErrMissingAPIURL is returned by RequireAPI when no back office URL is set.
var ErrMissingAPIURL = errors.New("RECEIPTS_API_URL is required")

type Config struct {
	// Receipts back office
	APIURL          string        `yaml:"api_url"`
	APIToken        string        `yaml:"api_token"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	PollSchedule    string        `yaml:"poll_schedule"`
	DefaultCurrency string        `yaml:"default_currency"`

	// Google Sheets export
	GoogleSheetURL       string `yaml:"google_sheet_url"`
	GoogleSheetWorksheet string `yaml:"google_sheet_worksheet"`

	// Document AI
	GoogleProjectID       string `yaml:"google_project_id"`
	GoogleLocation        string `yaml:"google_location"`
	DocumentAIProcessorID string `yaml:"document_ai_processor_id"`

	// Logging Configuration
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogTimeFormat string `yaml:"log_time_format"`
	LogOutput     string `yaml:"log_output"`
}

// Defaults returns the configuration used before any file or env var applies.
func Defaults() *Config {
	return &Config{
		HTTPTimeout:          30 * time.Second,
		PollSchedule:         "@every 30s",
		DefaultCurrency:      "SEK",
		GoogleSheetWorksheet: "Receipts",
		GoogleLocation:       "eu",
		LogLevel:             "info",
		LogFormat:            "console",
		LogTimeFormat:        "2006-01-02T15:04:05Z07:00",
		LogOutput:            "stderr",
	}
}

// Load builds the configuration from defaults, the YAML file named by
// RECEIPTS_CONFIG if any, and environment variables, in that order.
func Load() (*Config, error) {
	config := Defaults()

	if path := os.Getenv("RECEIPTS_CONFIG"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	timeout, err := getEnvDuration("RECEIPTS_HTTP_TIMEOUT", config.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	config.APIURL = getEnv("RECEIPTS_API_URL", config.APIURL)
	config.APIToken = getEnv("RECEIPTS_API_TOKEN", config.APIToken)
	config.HTTPTimeout = timeout
	config.PollSchedule = getEnv("RECEIPTS_POLL_SCHEDULE", config.PollSchedule)
	config.DefaultCurrency = strings.ToUpper(getEnv("RECEIPTS_DEFAULT_CURRENCY", config.DefaultCurrency))
	config.GoogleSheetURL = getEnv("GOOGLE_SHEET_URL", config.GoogleSheetURL)
	config.GoogleSheetWorksheet = getEnv("GOOGLE_SHEET_WORKSHEET", config.GoogleSheetWorksheet)
	config.GoogleProjectID = getEnv("GOOGLE_PROJECT_ID", getEnv("GOOGLE_CLOUD_PROJECT", config.GoogleProjectID))
	config.GoogleLocation = getEnv("GOOGLE_LOCATION", getEnv("GOOGLE_CLOUD_LOCATION", config.GoogleLocation))
	config.DocumentAIProcessorID = getEnv("GOOGLE_PROCESSOR_ID", getEnv("DOCUMENT_AI_PROCESSOR_ID", config.DocumentAIProcessorID))
	config.LogLevel = getEnv("LOG_LEVEL", config.LogLevel)
	config.LogFormat = getEnv("LOG_FORMAT", config.LogFormat)
	config.LogTimeFormat = getEnv("LOG_TIME_FORMAT", config.LogTimeFormat)
	config.LogOutput = getEnv("LOG_OUTPUT", config.LogOutput)

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("RECEIPTS_API_URL must be an absolute URL, got %q", c.APIURL)
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("RECEIPTS_HTTP_TIMEOUT must be positive")
	}
	if strings.TrimSpace(c.PollSchedule) == "" {
		return fmt.Errorf("RECEIPTS_POLL_SCHEDULE must not be empty")
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("RECEIPTS_DEFAULT_CURRENCY must be a three letter code, got %q", c.DefaultCurrency)
	}
	return nil
}

// RequireAPI reports whether the back office can be reached.
func (c *Config) RequireAPI() error {
	if c.APIURL == "" {
		return ErrMissingAPIURL
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("45s") and plain seconds ("45").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return d, nil
}
