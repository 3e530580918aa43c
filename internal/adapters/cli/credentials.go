package cli

import (
	"context"

	"telegram-messenger/internal/domain/authflow"
	"telegram-messenger/internal/infra/pr"
)

// ConsoleCredentials спрашивает учётные данные в терминале.
// Телефон из конфигурации (PHONE_NUMBER), если задан, используется без вопроса.
type ConsoleCredentials struct {
	phone        string
	readLine     func(prompt string) (string, error)
	readPassword func(prompt string) (string, error)
}

var _ authflow.Credentials = (*ConsoleCredentials)(nil)

func NewConsoleCredentials(phone string) *ConsoleCredentials {
	return &ConsoleCredentials{
		phone:        phone,
		readLine:     pr.ReadLine,
		readPassword: pr.ReadPassword,
	}
}

func (c *ConsoleCredentials) Phone(ctx context.Context) (string, error) {
	if c.phone != "" {
		return c.phone, nil
	}
	return ask(ctx, c.readLine, "Enter your phone number (with country code): ")
}

func (c *ConsoleCredentials) Code(ctx context.Context) (string, error) {
	return ask(ctx, c.readLine, "Enter the code you received: ")
}

func (c *ConsoleCredentials) Password(ctx context.Context) (string, error) {
	return ask(ctx, c.readPassword, "Two-step verification enabled. Enter your password: ")
}

func ask(ctx context.Context, read func(string) (string, error), prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return read(prompt)
}
