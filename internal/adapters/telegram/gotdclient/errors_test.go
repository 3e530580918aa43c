package gotdclient

import (
	"context"
	"io"
	"net"
	"testing"

	"telegram-messenger/internal/domain/chat"

	"github.com/go-faster/errors"
	"github.com/gotd/td/pool"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/tgerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFloodWait(t *testing.T) {
	t.Parallel()

	err := classify(errors.Wrap(tgerr.New(420, "FLOOD_WAIT_5"), "send message"))

	signal, ok := chat.RateLimitOf(err)
	require.True(t, ok)
	assert.Equal(t, 5, signal.Seconds)
	assert.Equal(t, chat.KindRateLimit, chat.KindOf(err))
}

func TestClassifyCredentials(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want chat.Credential
	}{
		{name: "codeInvalid", err: tgerr.New(400, "PHONE_CODE_INVALID"), want: chat.CredentialCode},
		{name: "codeExpired", err: tgerr.New(400, "PHONE_CODE_EXPIRED"), want: chat.CredentialCode},
		{name: "phoneInvalid", err: tgerr.New(400, "PHONE_NUMBER_INVALID"), want: chat.CredentialPhone},
		{name: "phoneBanned", err: tgerr.New(400, "PHONE_NUMBER_BANNED"), want: chat.CredentialPhone},
		{name: "passwordInvalid", err: auth.ErrPasswordInvalid, want: chat.CredentialPassword},
		{name: "passwordHash", err: tgerr.New(400, "PASSWORD_HASH_INVALID"), want: chat.CredentialPassword},
		{name: "signUp", err: &auth.SignUpRequired{}, want: chat.CredentialPhone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := classify(tc.err)

			assert.Equal(t, chat.KindInvalidCredential, chat.KindOf(err))
			cred, ok := chat.CredentialOf(err)
			require.True(t, ok)
			assert.Equal(t, tc.want, cred)
		})
	}
}

func TestClassifySecondFactor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, chat.KindSecondFactorRequired, chat.KindOf(classify(auth.ErrPasswordAuthNeeded)))
	assert.Equal(t, chat.KindSecondFactorRequired, chat.KindOf(classify(tgerr.New(401, "SESSION_PASSWORD_NEEDED"))))
}

func TestClassifyTransportAndOther(t *testing.T) {
	t.Parallel()

	assert.Equal(t, chat.KindTransport, chat.KindOf(classify(pool.ErrConnDead)))
	assert.Equal(t, chat.KindTransport, chat.KindOf(classify(errors.Wrap(io.EOF, "read"))))
	assert.Equal(t, chat.KindTransport, chat.KindOf(classify(&net.OpError{Op: "dial", Err: errors.New("refused")})))
	assert.Equal(t, chat.KindOther, chat.KindOf(classify(tgerr.New(400, "PEER_ID_INVALID"))))
	assert.Equal(t, chat.KindOther, chat.KindOf(classify(errors.New("boom"))))
}

func TestClassifyKeepsContextAndTypedErrors(t *testing.T) {
	t.Parallel()

	assert.Nil(t, classify(nil))
	assert.Same(t, context.Canceled, classify(context.Canceled))

	typed := chat.Transport(io.EOF)
	assert.Same(t, typed, classify(typed))
}

func TestClassifyPeerNotFound(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
	}{
		{name: "peersCache", err: &peers.PeerNotFoundError{}},
		{name: "usernameNotOccupied", err: tgerr.New(400, "USERNAME_NOT_OCCUPIED")},
		{name: "usernameInvalid", err: tgerr.New(400, "USERNAME_INVALID")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := classify(errors.Wrap(tc.err, "resolve chat \"ghost\""))
			assert.ErrorIs(t, err, chat.ErrPeerNotFound)
			assert.Equal(t, chat.KindOther, chat.KindOf(err))
		})
	}

	assert.NotErrorIs(t, classify(tgerr.New(400, "MESSAGE_EMPTY")), chat.ErrPeerNotFound)
}
