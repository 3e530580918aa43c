// Package config собирает настройки клиента из .env и окружения процесса.
// Обязательны только API_ID и API_HASH; для остального есть значения по умолчанию,
// а каждая подстановка фиксируется предупреждением (см. Config.Warnings).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"telegram-messenger/internal/domain/delivery"

	"github.com/joho/godotenv"
)

// ErrEnvFileMissing — .env не найден. main выводит подсказку по настройке.
var ErrEnvFileMissing = errors.New(".env file not found")

// Config — снимок настроек на момент загрузки.
type Config struct {
	APIID       int
	APIHash     string
	PhoneNumber string

	SessionFile    string
	PeersCacheFile string
	StateFile      string

	LogLevel string
	LogFile  LogFileConfig

	SendMaxAttempts     int
	ThrottleRPS         int
	FloodWaitMaxRetries int
	DialogsLimit        int
	TestDC              bool

	warnings []string
}

// LogFileConfig — файловый лог. Пустой Path отключает его.
type LogFileConfig struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

const (
	defaultSessionFile         = "data/session.json"
	defaultPeersCacheFile      = "data/peers.bbolt"
	defaultStateFile           = "data/state.bbolt"
	defaultLogLevel            = "info"
	defaultThrottleRPS         = 2
	defaultFloodWaitMaxRetries = 3
	defaultDialogsLimit        = 20
	// LOG_FILE без значения по умолчанию: файл пишется, только если путь задан явно.
	defaultLogFileLevel      = "debug"
	defaultLogFileMaxSize    = 50
	defaultLogFileMaxBackups = 3
	defaultLogFileMaxAge     = 7
	defaultLogFileCompress   = true
)

// Load читает envPath (существующие переменные окружения не перезаписываются)
// и собирает Config. Отсутствие файла — ErrEnvFileMissing.
func Load(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEnvFileMissing, envPath)
		}
		return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	return FromEnv()
}

// FromEnv собирает Config только из окружения процесса.
func FromEnv() (*Config, error) {
	apiID, err := parseRequiredInt("API_ID")
	if err != nil {
		return nil, err
	}
	if apiID <= 0 {
		return nil, fmt.Errorf("env API_ID must be positive, got %d", apiID)
	}
	apiHash := strings.TrimSpace(os.Getenv("API_HASH"))
	if apiHash == "" {
		return nil, errors.New("env API_HASH must be set")
	}

	cfg := &Config{
		APIID:       apiID,
		APIHash:     apiHash,
		PhoneNumber: strings.TrimSpace(os.Getenv("PHONE_NUMBER")),
	}
	w := &cfg.warnings

	cfg.SessionFile = sanitizeFile("SESSION_FILE", defaultSessionFile, w)
	cfg.PeersCacheFile = sanitizeFile("PEERS_CACHE_FILE", defaultPeersCacheFile, w)
	cfg.StateFile = sanitizeFile("STATE_FILE", defaultStateFile, w)
	cfg.LogLevel = sanitizeLogLevel("LOG_LEVEL", defaultLogLevel, w)
	cfg.SendMaxAttempts = parseIntDefault("SEND_MAX_ATTEMPTS", delivery.DefaultMaxAttempts, greaterThanZero, w)
	cfg.ThrottleRPS = parseIntDefault("THROTTLE_RPS", defaultThrottleRPS, greaterThanZero, w)
	cfg.FloodWaitMaxRetries = parseIntDefault("FLOOD_WAIT_MAX_RETRIES", defaultFloodWaitMaxRetries, nonNegative, w)
	cfg.DialogsLimit = parseIntDefault("DIALOGS_LIMIT", defaultDialogsLimit, greaterThanZero, w)
	cfg.TestDC = parseBoolDefault("TEST_DC", false, w)

	cfg.LogFile = LogFileConfig{
		Path:       strings.TrimSpace(os.Getenv("LOG_FILE")),
		Level:      sanitizeLogLevel("LOG_FILE_LEVEL", defaultLogFileLevel, w),
		MaxSizeMB:  parseIntDefault("LOG_FILE_MAX_SIZE_MB", defaultLogFileMaxSize, greaterThanZero, w),
		MaxBackups: parseIntDefault("LOG_FILE_MAX_BACKUPS", defaultLogFileMaxBackups, nonNegative, w),
		MaxAgeDays: parseIntDefault("LOG_FILE_MAX_AGE_DAYS", defaultLogFileMaxAge, nonNegative, w),
		Compress:   parseBoolDefault("LOG_FILE_COMPRESS", defaultLogFileCompress, w),
	}

	return cfg, nil
}

// Warnings возвращает копию предупреждений, накопленных при загрузке.
func (c *Config) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)
	return out
}

func parseRequiredInt(name string) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return 0, fmt.Errorf("env %s must be set", name)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("env %s must be a valid integer: %w", name, err)
	}
	return v, nil
}

// parseIntDefault: пусто, не число или не прошло validator — defaultVal плюс предупреждение.
func parseIntDefault(name string, defaultVal int, validator func(int) bool, warnings *[]string) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		appendWarningf(warnings, "env %s is not set; using default %d", name, defaultVal)
		return defaultVal
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid integer; using default %d", name, value, defaultVal)
		return defaultVal
	}
	if validator != nil && !validator(v) {
		appendWarningf(warnings, "env %s value %d does not satisfy constraints; using default %d", name, v, defaultVal)
		return defaultVal
	}
	return v
}

func parseBoolDefault(name string, defaultVal bool, warnings *[]string) bool {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		appendWarningf(warnings, "env %s value %q is not a valid boolean; using default %v", name, value, defaultVal)
		return defaultVal
	}
	return v
}

func sanitizeLogLevel(name, defaultVal string, warnings *[]string) string {
	raw := os.Getenv(name)
	lvl := strings.ToLower(strings.TrimSpace(raw))
	switch lvl {
	case "":
		return defaultVal
	case "debug", "info", "warn", "error":
		return lvl
	default:
		appendWarningf(warnings, "env %s value %q is invalid; using default %q", name, raw, defaultVal)
		return defaultVal
	}
}

func sanitizeFile(name, fallback string, warnings *[]string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		appendWarningf(warnings, "env %s is not set; using default %q", name, fallback)
		return fallback
	}
	return v
}

func appendWarningf(warnings *[]string, format string, args ...any) {
	if warnings == nil {
		return
	}
	*warnings = append(*warnings, fmt.Sprintf(format, args...))
}

func greaterThanZero(v int) bool { return v > 0 }
func nonNegative(v int) bool     { return v >= 0 }
