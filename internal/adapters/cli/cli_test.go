package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/domain/delivery"
	"telegram-messenger/internal/infra/pr"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	sendErrs []error
	sent     []chat.Recipient
	texts    []string

	chats     []chat.ChatSummary
	listLimit int
	message   *chat.Message
	entity    chat.EntityInfo
	entityErr error
}

func (f *fakeClient) Connect(context.Context) error                { return nil }
func (f *fakeClient) Disconnect() error                            { return nil }
func (f *fakeClient) IsAuthorized(context.Context) (bool, error)   { return true, nil }
func (f *fakeClient) RequestCode(context.Context, string) error    { return nil }
func (f *fakeClient) SignIn(context.Context, string, string) error { return nil }
func (f *fakeClient) SignInPassword(context.Context, string) error { return nil }
func (f *fakeClient) Self(context.Context) (chat.Self, error)      { return chat.Self{ID: 1, FirstName: "Me"}, nil }

func (f *fakeClient) Send(_ context.Context, to chat.Recipient, text string) error {
	f.sent = append(f.sent, to)
	f.texts = append(f.texts, text)
	if len(f.sendErrs) == 0 {
		return nil
	}
	err := f.sendErrs[0]
	f.sendErrs = f.sendErrs[1:]
	return err
}

func (f *fakeClient) ListRecentChats(_ context.Context, limit int) ([]chat.ChatSummary, error) {
	f.listLimit = limit
	return f.chats, nil
}

func (f *fakeClient) GetEntity(context.Context, string) (chat.EntityInfo, error) {
	return f.entity, f.entityErr
}

func (f *fakeClient) GetMessage(context.Context, string, int) (*chat.Message, error) {
	return f.message, nil
}

func (f *fakeClient) Monitor(ctx context.Context, onMessage func(chat.IncomingMessage)) error {
	onMessage(chat.IncomingMessage{SenderID: 5, SenderName: "bob", ChatName: "Family"})
	<-ctx.Done()
	return nil
}

// scriptedInput отдаёт заранее заданные строки, затем io.EOF.
func scriptedInput(lines ...string) func(string) (string, error) {
	return func(string) (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		line := lines[0]
		lines = lines[1:]
		return line, nil
	}
}

func newTestService(t *testing.T, client chat.Client, input ...string) (*Service, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	pr.SetOutput(&stdout, &stderr)
	t.Cleanup(pr.Close)

	s, err := NewService(Options{
		Client:          client,
		DialogsLimit:    20,
		SendMaxAttempts: 1,
		ReadLine:        scriptedInput(input...),
	})
	require.NoError(t, err)
	return s, &stdout
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(Options{DialogsLimit: 1, SendMaxAttempts: 1})
	assert.Error(t, err)

	_, err = NewService(Options{Client: &fakeClient{}, DialogsLimit: 1, SendMaxAttempts: 0})
	assert.Error(t, err)

	_, err = NewService(Options{Client: &fakeClient{}, DialogsLimit: 0, SendMaxAttempts: 1})
	assert.Error(t, err)
}

func TestRunSendFlow(t *testing.T) {
	client := &fakeClient{}
	s, out := newTestService(t, client,
		"1",        // menu: send
		"1", "bob", // recipient by username
		"hello",
		"n",
		"exit",
	)

	require.NoError(t, s.Run(context.Background()))

	require.Len(t, client.sent, 1)
	name, ok := client.sent[0].Username()
	assert.True(t, ok)
	assert.Equal(t, "@bob", name)
	assert.Equal(t, []string{"hello"}, client.texts)
	assert.Contains(t, out.String(), "Message delivered successfully!")
	assert.Contains(t, out.String(), "Goodbye!")
}

func TestSendFlowRejectsEmptyAndQuits(t *testing.T) {
	client := &fakeClient{}
	s, out := newTestService(t, client,
		"2", "+15550001", "", // empty text is rejected
		"3", "42", "q",
	)

	require.NoError(t, s.sendInteractive(context.Background()))

	assert.Empty(t, client.sent)
	assert.Contains(t, out.String(), "Message cannot be empty.")
}

func TestSendFlowReportsExhaustedBudget(t *testing.T) {
	client := &fakeClient{sendErrs: []error{chat.RateLimited(5, errors.New("FLOOD_WAIT_5"))}}
	s, out := newTestService(t, client, "1", "alice", "hi", "n")

	require.NoError(t, s.sendInteractive(context.Background()))

	assert.Len(t, client.sent, 1)
	assert.Contains(t, out.String(), "rate limit persisted after 1 attempt(s): rate limited: retry after 5s")
}

func TestDeliveryOutcomeNamesAttemptsAndCause(t *testing.T) {
	t.Parallel()

	peerInvalid := chat.Other(errors.New("PEER_ID_INVALID"))
	cases := []struct {
		name string
		res  delivery.Result
		err  error
		want string
	}{
		{name: "firstTry", res: delivery.Result{Attempts: 1}, want: "Message delivered successfully!"},
		{name: "retried", res: delivery.Result{Attempts: 3}, want: "Message delivered successfully after 3 attempts."},
		{
			name: "otherError",
			err:  &delivery.Failure{Reason: delivery.ReasonOther, Attempts: 1, Cause: peerInvalid},
			want: "Failed to send message after 1 attempt(s): request failed: PEER_ID_INVALID",
		},
		{
			name: "budgetExhausted",
			err:  &delivery.Failure{Reason: delivery.ReasonRetryBudgetExhausted, Attempts: 3, Cause: chat.RateLimited(30, nil)},
			want: "Failed to send message: rate limit persisted after 3 attempt(s): rate limited: retry after 30s",
		},
		{
			name: "canceled",
			err:  &delivery.Failure{Reason: delivery.ReasonCanceled, Attempts: 1, Cause: context.Canceled},
			want: "Sending cancelled.",
		},
		{name: "unwrapped", err: errors.New("boom"), want: "Failed to send message: boom"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, deliveryOutcome(tc.res, tc.err))
		})
	}
}

func TestListUsesArgumentOrDefault(t *testing.T) {
	client := &fakeClient{chats: []chat.ChatSummary{{ID: 1, Name: "Alice", Username: "alice", Type: chat.PeerUser}}}
	s, out := newTestService(t, client, "")

	assert.False(t, s.handleCommand(context.Background(), "list 5"))
	assert.Equal(t, 5, client.listLimit)

	assert.False(t, s.handleCommand(context.Background(), "2"))
	assert.Equal(t, 20, client.listLimit)
	assert.Contains(t, out.String(), "@alice")
}

func TestDumpNotFound(t *testing.T) {
	s, out := newTestService(t, &fakeClient{})

	assert.False(t, s.handleCommand(context.Background(), "dump @news 10"))
	assert.Contains(t, out.String(), "Message 10 not found")
}

func TestEntityPrintsJSON(t *testing.T) {
	client := &fakeClient{entity: chat.EntityInfo{ID: 9, Type: "User", Username: "bob"}}
	s, out := newTestService(t, client)

	assert.False(t, s.handleCommand(context.Background(), "5 @bob"))
	assert.Contains(t, out.String(), `"username": "bob"`)
}

func TestEntityNotFoundIsReported(t *testing.T) {
	notFound := chat.Other(fmt.Errorf("%w: %w", chat.ErrPeerNotFound, errors.New("USERNAME_NOT_OCCUPIED")))
	s, out := newTestService(t, &fakeClient{entityErr: notFound})

	assert.False(t, s.handleCommand(context.Background(), "entity @ghost"))
	assert.Contains(t, out.String(), "Not found: no user, chat or channel matches \"@ghost\"")
}

func TestMonitorStopsOnEnter(t *testing.T) {
	s, out := newTestService(t, &fakeClient{}, "")

	require.NoError(t, s.monitor(context.Background()))
	assert.Contains(t, out.String(), "Monitoring all chats")
}

func TestUnknownCommand(t *testing.T) {
	s, out := newTestService(t, &fakeClient{})

	assert.False(t, s.handleCommand(context.Background(), "9"))
	assert.Contains(t, out.String(), "Invalid choice")
	assert.True(t, s.handleCommand(context.Background(), "6"))
}
