package gotdclient

import (
	"context"

	"telegram-messenger/internal/domain/chat"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// pendingCode — состояние между RequestCode и SignIn.
type pendingCode struct {
	phone string
	hash  string
	// done: сервер авторизовал сессию уже на шаге отправки кода (AuthSentCodeSuccess).
	done bool
}

var errCodeNotRequested = errors.New("verification code was not requested for this phone")

func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return false, classify(errors.Wrap(err, "auth status"))
	}
	return status.Authorized, nil
}

func (c *Client) RequestCode(ctx context.Context, phone string) error {
	sent, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
	if err != nil {
		return classify(errors.Wrap(err, "send code"))
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()
	switch s := sent.(type) {
	case *tg.AuthSentCode:
		c.code = pendingCode{phone: phone, hash: s.PhoneCodeHash}
	case *tg.AuthSentCodeSuccess:
		c.code = pendingCode{phone: phone, done: true}
	default:
		return chat.Other(errors.Errorf("unexpected sent code type %T", sent))
	}
	return nil
}

func (c *Client) SignIn(ctx context.Context, phone, code string) error {
	c.authMu.Lock()
	pending := c.code
	c.authMu.Unlock()

	if pending.phone != phone {
		return chat.Other(errCodeNotRequested)
	}
	if pending.done {
		return nil
	}
	if _, err := c.client.Auth().SignIn(ctx, phone, code, pending.hash); err != nil {
		return classify(errors.Wrap(err, "sign in"))
	}

	c.authMu.Lock()
	c.code = pendingCode{}
	c.authMu.Unlock()
	return nil
}

func (c *Client) SignInPassword(ctx context.Context, password string) error {
	if _, err := c.client.Auth().Password(ctx, password); err != nil {
		return classify(errors.Wrap(err, "check password"))
	}
	c.authMu.Lock()
	c.code = pendingCode{}
	c.authMu.Unlock()
	return nil
}
