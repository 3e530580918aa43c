package app

import (
	"bytes"
	"context"
	"io"
	"testing"

	"telegram-messenger/internal/domain/authflow"
	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/config"
	"telegram-messenger/internal/infra/pr"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	connectErr  error
	authorized  bool
	connects    int
	disconnects int
}

func (f *fakeClient) Connect(context.Context) error {
	f.connects++
	return f.connectErr
}

func (f *fakeClient) Disconnect() error {
	f.disconnects++
	return nil
}

func (f *fakeClient) SignIn(context.Context, string, string) error {
	return chat.InvalidCredential(chat.CredentialCode, errors.New("PHONE_CODE_INVALID"))
}

func (f *fakeClient) IsAuthorized(context.Context) (bool, error)                     { return f.authorized, nil }
func (f *fakeClient) RequestCode(context.Context, string) error                      { return nil }
func (f *fakeClient) SignInPassword(context.Context, string) error                   { return nil }
func (f *fakeClient) Send(context.Context, chat.Recipient, string) error             { return nil }
func (f *fakeClient) GetMessage(context.Context, string, int) (*chat.Message, error) { return nil, nil }
func (f *fakeClient) Self(context.Context) (chat.Self, error)                        { return chat.Self{ID: 1, FirstName: "Me"}, nil }
func (f *fakeClient) Monitor(context.Context, func(chat.IncomingMessage)) error      { return nil }

func (f *fakeClient) ListRecentChats(context.Context, int) ([]chat.ChatSummary, error) {
	return nil, nil
}

func (f *fakeClient) GetEntity(context.Context, string) (chat.EntityInfo, error) {
	return chat.EntityInfo{}, nil
}

type staticCredentials struct{}

func (staticCredentials) Phone(context.Context) (string, error)    { return "+15550001", nil }
func (staticCredentials) Code(context.Context) (string, error)     { return "00000", nil }
func (staticCredentials) Password(context.Context) (string, error) { return "secret", nil }

func newTestApp(t *testing.T, client *fakeClient, input ...string) *App {
	t.Helper()
	var stdout, stderr bytes.Buffer
	pr.SetOutput(&stdout, &stderr)
	t.Cleanup(pr.Close)

	read := func(string) (string, error) {
		if len(input) == 0 {
			return "", io.EOF
		}
		line := input[0]
		input = input[1:]
		return line, nil
	}
	cfg := &config.Config{DialogsLimit: 20, SendMaxAttempts: 3}
	return New(cfg, nil,
		WithClientFactory(func(*config.Config, *zap.Logger) (chat.Client, error) { return client, nil }),
		WithCredentials(staticCredentials{}),
		WithInput(read, func() {}),
	)
}

func TestRunRestoredSessionExitsFromMenu(t *testing.T) {
	client := &fakeClient{authorized: true}
	a := newTestApp(t, client, "6")

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, 1, client.connects)
	assert.Equal(t, 1, client.disconnects)
}

func TestRunDisconnectsOnAuthFailure(t *testing.T) {
	client := &fakeClient{}
	a := newTestApp(t, client)

	err := a.Run(context.Background())

	var failure *authflow.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, authflow.StageCode, failure.Stage)
	assert.Equal(t, 1, client.disconnects)
}

func TestRunDisconnectsOnConnectFailure(t *testing.T) {
	client := &fakeClient{connectErr: chat.Transport(errors.New("dial tcp: refused"))}
	a := newTestApp(t, client)

	err := a.Run(context.Background())

	assert.Equal(t, chat.KindTransport, chat.KindOf(err))
	assert.Equal(t, 1, client.disconnects)
}

func TestWatchCancelInterruptsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 2)
	stop := watchCancel(ctx, func() { calls <- struct{}{} })

	cancel()
	<-calls
	stop()
	assert.Empty(t, calls)
}
