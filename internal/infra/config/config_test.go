package config

import (
	"os"
	"path/filepath"
	"testing"

	"telegram-messenger/internal/domain/delivery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"API_ID", "API_HASH", "PHONE_NUMBER", "SESSION_FILE", "PEERS_CACHE_FILE", "STATE_FILE",
	"LOG_LEVEL", "SEND_MAX_ATTEMPTS", "THROTTLE_RPS", "FLOOD_WAIT_MAX_RETRIES", "DIALOGS_LIMIT",
	"TEST_DC", "LOG_FILE", "LOG_FILE_LEVEL", "LOG_FILE_MAX_SIZE_MB", "LOG_FILE_MAX_BACKUPS",
	"LOG_FILE_MAX_AGE_DAYS", "LOG_FILE_COMPRESS",
}

// clearEnv убирает переменные на время теста; t.Setenv вернёт прежние значения.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_ID", "12345")
	t.Setenv("API_HASH", "hash")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 12345, cfg.APIID)
	assert.Equal(t, "hash", cfg.APIHash)
	assert.Empty(t, cfg.PhoneNumber)
	assert.Equal(t, defaultSessionFile, cfg.SessionFile)
	assert.Equal(t, defaultPeersCacheFile, cfg.PeersCacheFile)
	assert.Equal(t, defaultStateFile, cfg.StateFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 3, cfg.SendMaxAttempts)
	assert.Equal(t, 2, cfg.ThrottleRPS)
	assert.Equal(t, 3, cfg.FloodWaitMaxRetries)
	assert.Equal(t, 20, cfg.DialogsLimit)
	assert.False(t, cfg.TestDC)
	assert.Empty(t, cfg.LogFile.Path)
	assert.Equal(t, "debug", cfg.LogFile.Level)
	assert.True(t, cfg.LogFile.Compress)
	assert.NotEmpty(t, cfg.Warnings())
}

func TestFromEnvRequired(t *testing.T) {
	cases := []struct {
		name  string
		id    string
		hash  string
		errIs string
	}{
		{name: "missingID", id: "", hash: "h", errIs: "API_ID must be set"},
		{name: "badID", id: "abc", hash: "h", errIs: "valid integer"},
		{name: "negativeID", id: "-5", hash: "h", errIs: "positive"},
		{name: "missingHash", id: "1", hash: " ", errIs: "API_HASH"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("API_ID", tc.id)
			t.Setenv("API_HASH", tc.hash)

			_, err := FromEnv()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errIs)
		})
	}
}

func TestFromEnvInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_ID", "1")
	t.Setenv("API_HASH", "h")
	t.Setenv("SEND_MAX_ATTEMPTS", "0")
	t.Setenv("THROTTLE_RPS", "fast")
	t.Setenv("LOG_LEVEL", "LOUD")
	t.Setenv("TEST_DC", "maybe")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, delivery.DefaultMaxAttempts, cfg.SendMaxAttempts)
	assert.Equal(t, defaultThrottleRPS, cfg.ThrottleRPS)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.False(t, cfg.TestDC)

	warnings := cfg.Warnings()
	assert.Contains(t, warnings, `env SEND_MAX_ATTEMPTS value 0 does not satisfy constraints; using default 3`)
	assert.Contains(t, warnings, `env LOG_LEVEL value "LOUD" is invalid; using default "info"`)
}

func TestLoadReadsEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	content := "API_ID=777\nAPI_HASH=abc\nPHONE_NUMBER=+10000000000\nSEND_MAX_ATTEMPTS=5\nTEST_DC=true\nLOG_FILE=logs/app.log\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 777, cfg.APIID)
	assert.Equal(t, "+10000000000", cfg.PhoneNumber)
	assert.Equal(t, 5, cfg.SendMaxAttempts)
	assert.True(t, cfg.TestDC)
	assert.Equal(t, "logs/app.log", cfg.LogFile.Path)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))

	assert.ErrorIs(t, err, ErrEnvFileMissing)
}

func TestWarningsReturnsCopy(t *testing.T) {
	cfg := &Config{warnings: []string{"a"}}
	w := cfg.Warnings()
	w[0] = "b"
	assert.Equal(t, []string{"a"}, cfg.Warnings())
}
