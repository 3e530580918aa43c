package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"telegram-messenger/internal/app"
	"telegram-messenger/internal/infra/config"
	"telegram-messenger/internal/infra/logger"
	"telegram-messenger/internal/infra/pr"
	"telegram-messenger/internal/support/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	// envPath — .env с API_ID/API_HASH и настройками клиента.
	envPath := flag.String("env", ".env", "path to .env file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		pr.Println("telegram-messenger", version.String())
		return 0
	}

	pr.Println("Telegram Terminal Client", version.Version)

	cfg, err := config.Load(*envPath)
	if errors.Is(err, config.ErrEnvFileMissing) {
		printSetupHints(*envPath)
		return 0
	}
	if err != nil {
		pr.ErrPrintln("failed to load config:", err)
		return 1
	}

	logger.Init(logger.Options{
		Level: cfg.LogLevel,
		File: &logger.FileOptions{
			Path:       cfg.LogFile.Path,
			Level:      cfg.LogFile.Level,
			MaxSizeMB:  cfg.LogFile.MaxSizeMB,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAgeDays: cfg.LogFile.MaxAgeDays,
			Compress:   cfg.LogFile.Compress,
		},
	})
	defer logger.Close()

	// В терминале ввод идёт через readline, и логи печатаются в его буферы.
	if pr.Interactive() {
		if err := pr.Init(); err != nil {
			logger.Error("failed to init console", zap.Error(err))
			return 1
		}
		defer pr.Close()
		logger.SetWriters(pr.Stdout(), pr.Stderr())
	}
	for _, msg := range cfg.Warnings() {
		logger.Warn(msg)
	}

	// Контекст с обработкой системных сигналов; stop() снимает подписку.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, logger.Logger()).Run(ctx); err != nil {
		logger.Error("Fatal error", zap.Error(err))
		pr.ErrPrintln("Fatal error:", err)
		return 1
	}
	logger.Info("Application closed")
	return 0
}

func printSetupHints(envPath string) {
	pr.Printf("Warning: %s file not found!\n", envPath)
	pr.Println()
	pr.Println("First-time setup:")
	pr.Println("1. Copy .env.example to .env")
	pr.Println("2. Get API credentials from https://my.telegram.org/apps")
	pr.Println("3. Set API_ID and API_HASH in .env")
	pr.Println()
	pr.Println("Then run this program again.")
}
