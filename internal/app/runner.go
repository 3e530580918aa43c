package app

import (
	"context"
	"fmt"
	"sync"

	"telegram-messenger/internal/domain/authflow"
	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/pr"

	"go.uber.org/zap"
)

// runner ведёт одно соединение: подключение, вход и единственное закрытие.
type runner struct {
	client    chat.Client
	log       *zap.Logger
	closeOnce sync.Once
}

func newRunner(client chat.Client, log *zap.Logger) *runner {
	return &runner{client: client, log: log}
}

func (r *runner) connect(ctx context.Context) error {
	r.log.Info("Connecting to Telegram...")
	if err := r.client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// authenticate восстанавливает сессию или проводит интерактивный вход и печатает, кто вошёл.
func (r *runner) authenticate(ctx context.Context, creds authflow.Credentials) error {
	session, err := authflow.Establish(ctx, r.client, creds,
		authflow.WithObserver(authflow.NewLogObserver(r.log.Named("auth"))))
	if err != nil {
		return err
	}
	if session.Interactive() {
		r.log.Info("Authentication successful")
	}

	self, err := r.client.Self(ctx)
	if err != nil {
		return fmt.Errorf("get self: %w", err)
	}
	r.log.Info("Signed in", zap.Int64("id", self.ID), zap.String("username", self.Username))
	pr.Println("Logged in as:", self)
	return nil
}

// teardown закрывает соединение ровно один раз; ошибка только логируется.
func (r *runner) teardown() {
	r.closeOnce.Do(func() {
		if err := r.client.Disconnect(); err != nil {
			r.log.Warn("Disconnect finished with error", zap.Error(err))
			return
		}
		r.log.Info("Disconnected from Telegram")
	})
}

// watchCancel вызывает interrupt при отмене ctx, чтобы разблокировать ожидающий ввод.
// Возвращаемая функция снимает наблюдение.
func watchCancel(ctx context.Context, interrupt func()) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		select {
		case <-ctx.Done():
			if interrupt != nil {
				interrupt()
			}
		case <-done:
		}
	})
	return func() {
		close(done)
		wg.Wait()
	}
}
