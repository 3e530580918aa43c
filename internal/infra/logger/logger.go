// Package logger держит общий zap-логгер процесса. Консольный вывод идёт в stdout
// (через readline-совместимый writer, если он подставлен), а при заданном пути ещё
// и в файл с ротацией через lumberjack. Уровни консоли и файла независимы.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOptions описывает файловый приёмник логов.
type FileOptions struct {
	Path       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Options — параметры инициализации.
type Options struct {
	Level string
	File  *FileOptions
}

var (
	mu sync.Mutex
	// log — текущий экземпляр; пересобирается при Init и SetWriters.
	log *zap.Logger

	consoleLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	fileLevel    = zap.NewAtomicLevelAt(zap.DebugLevel)

	stdoutWriter = zapcore.Lock(zapcore.AddSync(os.Stdout))
	stderrWriter = zapcore.Lock(zapcore.AddSync(os.Stderr))

	fileSink *lumberjack.Logger
)

func consoleEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// fileEncoderConfig — то же, но без ANSI-цветов и с ISO8601: файл читают grep и jq.
func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := consoleEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

// ParseLevel переводит строку в уровень zap. Неизвестные значения дают info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func rebuildLocked() {
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), stdoutWriter, consoleLevel),
	}
	if fileSink != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig()), zapcore.AddSync(fileSink), fileLevel))
	}
	if log != nil {
		_ = log.Sync()
	}
	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.ErrorOutput(stderrWriter))
}

// Init настраивает логгер по opts. Повторный вызов закрывает предыдущий файл.
func Init(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	consoleLevel.SetLevel(ParseLevel(opts.Level))
	closeFileLocked()
	if opts.File != nil && strings.TrimSpace(opts.File.Path) != "" {
		fileLevel.SetLevel(ParseLevel(opts.File.Level))
		fileSink = &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
		}
	}
	rebuildLocked()
}

func closeFileLocked() {
	if fileSink == nil {
		return
	}
	_ = fileSink.Close()
	fileSink = nil
}

// SetWriters подменяет консольные потоки (nil — stdout/stderr). Файловый приёмник не трогается.
func SetWriters(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	stdoutWriter = zapcore.Lock(zapcore.AddSync(stdout))
	stderrWriter = zapcore.Lock(zapcore.AddSync(stderr))
	rebuildLocked()
}

// Logger возвращает текущий логгер, создавая консольный при первом обращении.
// Пакеты предметной области получают его параметром, а не через этот вызов.
func Logger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if log == nil {
		rebuildLocked()
	}
	return log
}

// Named — дочерний логгер подсистемы.
func Named(name string) *zap.Logger { return Logger().Named(name) }

// Close сбрасывает буферы и закрывает файл логов.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if log != nil {
		_ = log.Sync()
	}
	closeFileLocked()
	log = nil
}

func Debug(msg string, fields ...zap.Field) { Logger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...) }

// Infof и Errorf нужны для коротких сообщений из main; в остальном коде — поля zap.
func Infof(msg string, a ...any)  { Logger().WithOptions(zap.AddCallerSkip(1)).Info(fmt.Sprintf(msg, a...)) }
func Errorf(msg string, a ...any) { Logger().WithOptions(zap.AddCallerSkip(1)).Error(fmt.Sprintf(msg, a...)) }
