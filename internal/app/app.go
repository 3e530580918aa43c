// Package app — верхний уровень сборки терминального клиента. Здесь связываются
// конфигурация, gotd-клиент, авторизация и меню; отсюда же гарантируется, что
// соединение закрывается ровно один раз при любом исходе.
package app

import (
	"context"

	"telegram-messenger/internal/adapters/cli"
	"telegram-messenger/internal/adapters/telegram/gotdclient"
	"telegram-messenger/internal/domain/authflow"
	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/config"
	"telegram-messenger/internal/infra/pr"

	"go.uber.org/zap"
)

// ClientFactory создаёт клиента протокола по конфигурации.
type ClientFactory func(cfg *config.Config, log *zap.Logger) (chat.Client, error)

// App агрегирует зависимости одного запуска клиента.
type App struct {
	cfg         *config.Config
	log         *zap.Logger
	newClient   ClientFactory
	credentials authflow.Credentials
	readLine    func(prompt string) (string, error)
	interrupt   func()
}

// Option настраивает App. Используется тестами для подмены сети и ввода.
type Option func(*App)

func WithClientFactory(f ClientFactory) Option {
	return func(a *App) { a.newClient = f }
}

func WithCredentials(c authflow.Credentials) Option {
	return func(a *App) { a.credentials = c }
}

// WithInput подменяет чтение строк меню и прерывание ввода при остановке.
func WithInput(readLine func(string) (string, error), interrupt func()) Option {
	return func(a *App) {
		a.readLine = readLine
		a.interrupt = interrupt
	}
}

// New собирает приложение. Сеть не трогает: всё начинается в Run.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		cfg:         cfg,
		log:         log,
		newClient:   newGotdClient,
		credentials: cli.NewConsoleCredentials(cfg.PhoneNumber),
		readLine:    pr.ReadLine,
		interrupt:   pr.InterruptReadline,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func newGotdClient(cfg *config.Config, log *zap.Logger) (chat.Client, error) {
	c, err := gotdclient.New(gotdclient.Options{
		APIID:               cfg.APIID,
		APIHash:             cfg.APIHash,
		SessionFile:         cfg.SessionFile,
		PeersCacheFile:      cfg.PeersCacheFile,
		StateFile:           cfg.StateFile,
		ThrottleRPS:         cfg.ThrottleRPS,
		FloodWaitMaxRetries: cfg.FloodWaitMaxRetries,
		TestDC:              cfg.TestDC,
		Logger:              log.Named("telegram"),
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Run проходит весь путь: connect → авторизация → меню → disconnect.
// Блокируется до выхода из меню или отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("Telegram client initializing...")

	client, err := a.newClient(a.cfg, a.log)
	if err != nil {
		return err
	}
	r := newRunner(client, a.log)
	defer r.teardown()

	stopWatch := watchCancel(ctx, a.interrupt)
	defer stopWatch()

	if err := r.connect(ctx); err != nil {
		return err
	}
	if err := r.authenticate(ctx, a.credentials); err != nil {
		return err
	}

	menu, err := cli.NewService(cli.Options{
		Client:          client,
		Logger:          a.log.Named("cli"),
		DialogsLimit:    a.cfg.DialogsLimit,
		SendMaxAttempts: a.cfg.SendMaxAttempts,
		ReadLine:        a.readLine,
	})
	if err != nil {
		return err
	}
	return menu.Run(ctx)
}
