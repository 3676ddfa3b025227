package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"RECEIPTS_CONFIG", "RECEIPTS_API_URL", "RECEIPTS_API_TOKEN", "RECEIPTS_HTTP_TIMEOUT",
		"RECEIPTS_POLL_SCHEDULE", "RECEIPTS_DEFAULT_CURRENCY", "GOOGLE_SHEET_URL",
		"GOOGLE_SHEET_WORKSHEET", "GOOGLE_PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "GOOGLE_LOCATION",
		"GOOGLE_CLOUD_LOCATION", "GOOGLE_PROCESSOR_ID", "DOCUMENT_AI_PROCESSOR_ID",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_TIME_FORMAT", "LOG_OUTPUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.ErrorIs(t, cfg.RequireAPI(), ErrMissingAPIURL)
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "receipts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://backoffice.example.com
api_token: from-file
http_timeout: 45s
poll_schedule: "*/5 * * * *"
log_level: debug
`), 0o600))

	t.Setenv("RECEIPTS_CONFIG", path)
	t.Setenv("RECEIPTS_API_TOKEN", "from-env")
	t.Setenv("RECEIPTS_DEFAULT_CURRENCY", "eur")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://backoffice.example.com", cfg.APIURL)
	assert.Equal(t, "from-env", cfg.APIToken)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "*/5 * * * *", cfg.PollSchedule)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.RequireAPI())
}

func TestLoadTimeoutFormats(t *testing.T) {
	clearEnv(t)

	t.Setenv("RECEIPTS_HTTP_TIMEOUT", "12")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12*time.Second, cfg.HTTPTimeout)

	t.Setenv("RECEIPTS_HTTP_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{name: "relative url", key: "RECEIPTS_API_URL", value: "/api"},
		{name: "zero timeout", key: "RECEIPTS_HTTP_TIMEOUT", value: "0s"},
		{name: "currency", key: "RECEIPTS_DEFAULT_CURRENCY", value: "kronor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RECEIPTS_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})
}
