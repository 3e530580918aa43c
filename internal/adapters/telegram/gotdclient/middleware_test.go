package gotdclient

import (
	"context"
	"testing"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMiddleware struct{ calls int }

func (m *countingMiddleware) Handle(next tg.Invoker) telegram.InvokeFunc {
	return func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		m.calls++
		return next.Invoke(ctx, input, output)
	}
}

type recordingInvoker struct{ inputs []bin.Encoder }

func (r *recordingInvoker) Invoke(_ context.Context, input bin.Encoder, _ bin.Decoder) error {
	r.inputs = append(r.inputs, input)
	return nil
}

func TestBypassForSendRequests(t *testing.T) {
	t.Parallel()

	inner := &countingMiddleware{}
	next := &recordingInvoker{}
	invoke := bypassFor{inner: inner, skip: isSendRequest}.Handle(next)
	ctx := context.Background()

	require.NoError(t, invoke(ctx, &tg.MessagesSendMessageRequest{Message: "hi"}, nil))
	assert.Zero(t, inner.calls)

	require.NoError(t, invoke(ctx, &tg.MessagesGetDialogsRequest{}, nil))
	assert.Equal(t, 1, inner.calls)
	assert.Len(t, next.inputs, 2)
}
