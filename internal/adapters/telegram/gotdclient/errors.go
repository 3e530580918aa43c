package gotdclient

import (
	"context"
	"fmt"
	"io"
	"net"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/telegram/peersmgr"

	"github.com/go-faster/errors"
	"github.com/gotd/td/pool"
	"github.com/gotd/td/rpc"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tgerr"
)

var (
	codeErrors = []string{
		"PHONE_CODE_INVALID",
		"PHONE_CODE_EXPIRED",
		"PHONE_CODE_EMPTY",
		"PHONE_CODE_HASH_EMPTY",
	}
	phoneErrors = []string{
		"PHONE_NUMBER_INVALID",
		"PHONE_NUMBER_BANNED",
		"PHONE_NUMBER_UNOCCUPIED",
		"PHONE_NUMBER_FLOOD",
	}
	passwordErrors = []string{
		"PASSWORD_HASH_INVALID",
		"PASSWORD_EMPTY",
	}
	notFoundErrors = []string{
		"USERNAME_NOT_OCCUPIED",
		"USERNAME_INVALID",
		"PEER_ID_INVALID",
	}
)

// classify переводит ошибку gotd в chat.Error. Ошибки контекста возвращаются как есть,
// чтобы вызывающий видел отмену, а не сбой.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var typed *chat.Error
	if errors.As(err, &typed) {
		return err
	}

	if wait, ok := tgerr.AsFloodWait(err); ok {
		return chat.RateLimited(int(wait.Seconds()), err)
	}

	switch {
	case errors.Is(err, auth.ErrPasswordAuthNeeded), tgerr.Is(err, "SESSION_PASSWORD_NEEDED"):
		return chat.SecondFactorRequired(err)
	case errors.Is(err, auth.ErrPasswordInvalid), tgerr.Is(err, passwordErrors...):
		return chat.InvalidCredential(chat.CredentialPassword, err)
	case tgerr.Is(err, codeErrors...):
		return chat.InvalidCredential(chat.CredentialCode, err)
	case tgerr.Is(err, phoneErrors...):
		return chat.InvalidCredential(chat.CredentialPhone, err)
	}

	var signUp *auth.SignUpRequired
	if errors.As(err, &signUp) {
		return chat.InvalidCredential(chat.CredentialPhone, errors.Wrap(err, "phone number is not registered"))
	}

	if peersmgr.IsNotFound(err) || tgerr.Is(err, notFoundErrors...) {
		return chat.Other(fmt.Errorf("%w: %w", chat.ErrPeerNotFound, err))
	}

	if isNetworkError(err) {
		return chat.Transport(err)
	}
	return chat.Other(err)
}

// isNetworkError распознаёт обрывы соединения и закрытый движок MTProto.
func isNetworkError(err error) bool {
	if errors.Is(err, pool.ErrConnDead) || errors.Is(err, rpc.ErrEngineClosed) {
		return true
	}
	var retryErr *rpc.RetryLimitReachedErr
	if errors.As(err, &retryErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
